package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name string
		err  *ParseError
		want string
	}{
		{
			name: "field and reason",
			err:  &ParseError{Field: "id", Reason: "missing"},
			want: "parse request: field 'id': missing",
		},
		{
			name: "wrapped cause",
			err:  &ParseError{Reason: "not a JSON object", Err: fmt.Errorf("unexpected end of JSON input")},
			want: "parse request: not a JSON object: unexpected end of JSON input",
		},
		{
			name: "bare",
			err:  &ParseError{},
			want: "parse request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestProtocolError_Is(t *testing.T) {
	err := &ProtocolError{ID: 9, Err: ErrUnknownRequestID}

	assert.Equal(t, "protocol violation for request 9: response id does not match an in-flight request", err.Error())
	assert.True(t, errors.Is(err, ErrUnknownRequestID))
	assert.False(t, errors.Is(err, ErrAlreadyAnswered))

	var pe *ProtocolError
	require.True(t, errors.As(fmt.Errorf("reply: %w", err), &pe))
	assert.Equal(t, uint64(9), pe.ID)
}

func TestMessage(t *testing.T) {
	base := errors.New("template not found")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: base, want: "template not found"},
		{
			name: "handler error exposes the application message",
			err:  &HandlerError{Kind: "ContentRenderRequest", Err: base},
			want: "template not found",
		},
		{
			name: "wrapped handler error",
			err:  fmt.Errorf("route: %w", &HandlerError{Kind: "Test", Err: base}),
			want: "template not found",
		},
		{
			name: "validation error",
			err:  &ValidationError{Kind: "ContentRenderRequest", Field: "template_path", Err: errors.New("is required")},
			want: "invalid ContentRenderRequest request: field 'template_path': is required",
		},
		{
			name: "unsupported kind",
			err:  &UnsupportedKindError{Kind: "SomethingUnseen"},
			want: `unsupported request kind "SomethingUnseen"`,
		},
		{
			name: "unsupported empty kind",
			err:  &UnsupportedKindError{},
			want: "request has no kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}

func TestPanicError(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "string", value: "boom", want: "panic: boom"},
		{name: "error", value: errors.New("nil map"), want: "panic: nil map"},
		{name: "other", value: 42, want: "panic: panic recovered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &PanicError{Value: tt.value}
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.want, Message(err))
		})
	}
}

func TestHandlerError_Unwrap(t *testing.T) {
	err := &HandlerError{Kind: "Test", Err: ErrAlreadyAnswered}
	assert.True(t, errors.Is(err, ErrAlreadyAnswered))
	assert.Equal(t, "Test handler failed: request has already been answered", err.Error())
}
