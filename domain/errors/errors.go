// Package errors provides domain-specific error types for the plugin protocol.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
)

var (
	// ErrUnknownRequestID is reported when a reply names an id that is not in flight.
	ErrUnknownRequestID = stdErrors.New("response id does not match an in-flight request")

	// ErrAlreadyAnswered is reported when a second reply is attempted for one request.
	ErrAlreadyAnswered = stdErrors.New("request has already been answered")

	// ErrDuplicateRequest is reported when the host reuses an id that is still in flight.
	ErrDuplicateRequest = stdErrors.New("request id is already in flight")
)

// DetailedError is implemented by errors that know which text should reach the
// host inside an Error response. Types implementing it only need to provide
// ProtocolMessage; Message picks it up through errors.As.
type DetailedError interface {
	error
	ProtocolMessage() string
}

// Message returns the best text for an Error response built from err.
// It returns an empty string for a nil error; callers apply the fallback.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ProtocolMessage()
	}
	return err.Error()
}

// ParseError represents an inbound envelope that could not be parsed.
// A ParseError cannot be answered: without an id there is nothing to correlate.
type ParseError struct {
	Err    error
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	msg := "parse request"
	if e.Field != "" {
		msg = fmt.Sprintf("%s: field '%s'", msg, e.Field)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ProtocolError represents a violation of the one-request-one-response contract.
type ProtocolError struct {
	Err error
	ID  uint64
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation for request %d: %v", e.ID, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ValidationError represents a request body that decoded but failed validation.
type ValidationError struct {
	Err   error
	Kind  string
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s request: field '%s': %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s request: %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ProtocolMessage implements DetailedError.
func (e *ValidationError) ProtocolMessage() string {
	return e.Error()
}

// UnsupportedKindError is returned for request kinds nobody registered a handler for.
type UnsupportedKindError struct {
	Kind string
}

func (e *UnsupportedKindError) Error() string {
	if e.Kind == "" {
		return "request has no kind"
	}
	return fmt.Sprintf("unsupported request kind %q", e.Kind)
}

// ProtocolMessage implements DetailedError.
func (e *UnsupportedKindError) ProtocolMessage() string {
	return e.Error()
}

// HandlerError wraps a failure raised by application code answering a request.
type HandlerError struct {
	Err  error
	Kind string
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler failed: %v", e.Kind, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// ProtocolMessage implements DetailedError. The host only sees the
// application's own message, not the handler bookkeeping around it.
func (e *HandlerError) ProtocolMessage() string {
	return Message(e.Err)
}

// PanicError represents a recovered panic inside application code.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	var msg string
	switch v := e.Value.(type) {
	case error:
		msg = v.Error()
	case string:
		msg = v
	case fmt.Stringer:
		msg = v.String()
	default:
		msg = "panic recovered"
	}
	return "panic: " + msg
}

// ProtocolMessage implements DetailedError.
func (e *PanicError) ProtocolMessage() string {
	return e.Error()
}
