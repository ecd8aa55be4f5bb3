package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Response kinds, the values of the "as" discriminator.
const (
	AsNoneOk      = "NoneOk"
	AsOkString    = "OkString"
	AsOkJSON      = "OkJSON"
	AsError       = "Error"
	AsWebResponse = "WebResponse"
)

// DefaultErrorMessage is sent when an Error response has no usable message.
const DefaultErrorMessage = "An error occurred."

// ResponseBody is the sealed union of response bodies.
// Implementations: NoneOkBody, OkStringBody, OkJSONBody, ErrorBody, WebResponseBody.
type ResponseBody interface {
	// As returns the value of the "as" discriminator.
	As() string
	isResponseBody()
}

// Response is an outbound envelope. ID always echoes the answered request.
type Response struct {
	ID   uint64       `json:"id"`
	Body ResponseBody `json:"body"`
}

// NoneOkBody reports success without data.
type NoneOkBody struct{}

// OkStringBody reports success with a single string.
type OkStringBody struct {
	Value string `json:"value"`
}

// OkJSONBody reports success with arbitrary structured data.
type OkJSONBody struct {
	Value any `json:"value"`
}

// ErrorBody reports a failure. Message is never empty.
type ErrorBody struct {
	Message string `json:"message"`
}

// WebResponseBody answers a web-content request.
type WebResponseBody struct {
	AppendHeaders map[string]string `json:"append_headers"`
	ResponseBody  string            `json:"response_body"`
}

func (NoneOkBody) As() string      { return AsNoneOk }
func (OkStringBody) As() string    { return AsOkString }
func (OkJSONBody) As() string      { return AsOkJSON }
func (ErrorBody) As() string       { return AsError }
func (WebResponseBody) As() string { return AsWebResponse }

func (NoneOkBody) isResponseBody()      {}
func (OkStringBody) isResponseBody()    {}
func (OkJSONBody) isResponseBody()      {}
func (ErrorBody) isResponseBody()       {}
func (WebResponseBody) isResponseBody() {}

// IsNilBody reports whether body is nil or holds a nil pointer such as
// (*OkStringBody)(nil).
func IsNilBody(body ResponseBody) bool {
	if body == nil {
		return true
	}
	v := reflect.ValueOf(body)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// MarshalJSON adds the "as" discriminator.
func (b NoneOkBody) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		As string `json:"as"`
	}{AsNoneOk})
}

// MarshalJSON adds the "as" discriminator.
func (b OkStringBody) MarshalJSON() ([]byte, error) {
	type alias OkStringBody
	return json.Marshal(struct {
		As string `json:"as"`
		alias
	}{AsOkString, alias(b)})
}

// MarshalJSON adds the "as" discriminator.
func (b OkJSONBody) MarshalJSON() ([]byte, error) {
	type alias OkJSONBody
	return json.Marshal(struct {
		As string `json:"as"`
		alias
	}{AsOkJSON, alias(b)})
}

// MarshalJSON adds the "as" discriminator.
func (b ErrorBody) MarshalJSON() ([]byte, error) {
	type alias ErrorBody
	if strings.TrimSpace(b.Message) == "" {
		b.Message = DefaultErrorMessage
	}
	return json.Marshal(struct {
		As string `json:"as"`
		alias
	}{AsError, alias(b)})
}

// MarshalJSON adds the "as" discriminator. Nil headers are sent as {}.
func (b WebResponseBody) MarshalJSON() ([]byte, error) {
	type alias WebResponseBody
	if b.AppendHeaders == nil {
		b.AppendHeaders = map[string]string{}
	}
	return json.Marshal(struct {
		As string `json:"as"`
		alias
	}{AsWebResponse, alias(b)})
}

// UnmarshalJSON decodes an envelope, selecting the body variant by "as".
func (r *Response) UnmarshalJSON(data []byte) error {
	var envelope struct {
		ID   *uint64         `json:"id"`
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.ID == nil {
		return fmt.Errorf("response has no id")
	}
	body, err := DecodeResponseBody(envelope.Body)
	if err != nil {
		return fmt.Errorf("response %d: %w", *envelope.ID, err)
	}
	r.ID = *envelope.ID
	r.Body = body
	return nil
}

// DecodeResponseBody decodes one response body by its "as" discriminator.
// Fields that do not belong to the selected variant are rejected.
func DecodeResponseBody(raw json.RawMessage) (ResponseBody, error) {
	var head struct {
		As string `json:"as"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}

	switch head.As {
	case AsNoneOk:
		var b struct {
			As string `json:"as"`
		}
		if err := decodeStrict(raw, &b); err != nil {
			return nil, err
		}
		return NoneOkBody{}, nil
	case AsOkString:
		var b struct {
			As    string `json:"as"`
			Value string `json:"value"`
		}
		if err := decodeStrict(raw, &b); err != nil {
			return nil, err
		}
		return OkStringBody{Value: b.Value}, nil
	case AsOkJSON:
		var b struct {
			As    string `json:"as"`
			Value any    `json:"value"`
		}
		if err := decodeStrict(raw, &b); err != nil {
			return nil, err
		}
		return OkJSONBody{Value: b.Value}, nil
	case AsError:
		var b struct {
			As      string  `json:"as"`
			Message *string `json:"message"`
		}
		if err := decodeStrict(raw, &b); err != nil {
			return nil, err
		}
		if b.Message == nil || strings.TrimSpace(*b.Message) == "" {
			return ErrorBody{Message: DefaultErrorMessage}, nil
		}
		return ErrorBody{Message: *b.Message}, nil
	case AsWebResponse:
		var b struct {
			As            string            `json:"as"`
			AppendHeaders map[string]string `json:"append_headers"`
			ResponseBody  string            `json:"response_body"`
		}
		if err := decodeStrict(raw, &b); err != nil {
			return nil, err
		}
		if b.AppendHeaders == nil {
			b.AppendHeaders = map[string]string{}
		}
		return WebResponseBody{AppendHeaders: b.AppendHeaders, ResponseBody: b.ResponseBody}, nil
	default:
		return nil, fmt.Errorf("unknown response kind %q", head.As)
	}
}

func decodeStrict(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
