package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
)

// Request kinds understood by this SDK. Hosts may send others.
const (
	KindTest          = "Test"
	KindContentRender = "ContentRenderRequest"
)

// IsKnownKind reports whether kind has a typed body in this package.
func IsKnownKind(kind string) bool {
	return kind == KindTest || kind == KindContentRender
}

// RequestBody is the sealed union of request bodies.
// Implementations: *TestRequestBody, *ContentRenderRequestBody, *UnknownRequestBody.
type RequestBody interface {
	// Kind returns the value of the "for" discriminator.
	Kind() string
	isRequestBody()
}

// Request is an inbound envelope. It is immutable once parsed.
type Request struct {
	ID   uint64      `json:"id"`
	Body RequestBody `json:"body"`
}

// Kind returns the discriminator of the request body, or "" when there is none.
func (r *Request) Kind() string {
	if r == nil || r.Body == nil {
		return ""
	}
	return r.Body.Kind()
}

// Test returns the typed body of a Test request.
func (r *Request) Test() (*TestRequestBody, bool) {
	b, ok := r.Body.(*TestRequestBody)
	return b, ok
}

// ContentRender returns the typed body of a ContentRenderRequest.
func (r *Request) ContentRender() (*ContentRenderRequestBody, bool) {
	b, ok := r.Body.(*ContentRenderRequestBody)
	return b, ok
}

// Unknown returns the raw body of a request this package could not classify.
func (r *Request) Unknown() (*UnknownRequestBody, bool) {
	b, ok := r.Body.(*UnknownRequestBody)
	return b, ok
}

// TestRequestBody is a diagnostic request: {for: "Test", test: string}.
type TestRequestBody struct {
	Test string `json:"test"`
}

// Kind implements RequestBody.
func (*TestRequestBody) Kind() string { return KindTest }
func (*TestRequestBody) isRequestBody() {}

// MarshalJSON adds the "for" discriminator.
func (b TestRequestBody) MarshalJSON() ([]byte, error) {
	type alias TestRequestBody
	return json.Marshal(struct {
		For string `json:"for"`
		alias
	}{KindTest, alias(b)})
}

// UnknownRequestBody carries a body whose "for" value is absent or not
// recognised, or whose fields do not match the known kind it names. Raw is
// the body exactly as received (nil when the envelope had no body).
type UnknownRequestBody struct {
	For string
	Raw json.RawMessage
}

// Kind implements RequestBody.
func (b *UnknownRequestBody) Kind() string { return b.For }
func (*UnknownRequestBody) isRequestBody()  {}

// Decode unmarshals the raw body into v, for kinds newer than this SDK.
func (b *UnknownRequestBody) Decode(v any) error {
	if len(b.Raw) == 0 {
		return fmt.Errorf("request body is empty")
	}
	return json.Unmarshal(b.Raw, v)
}

// MarshalJSON returns the raw body untouched.
func (b UnknownRequestBody) MarshalJSON() ([]byte, error) {
	if len(b.Raw) == 0 {
		return []byte("null"), nil
	}
	return b.Raw, nil
}

// ParseRequest parses one inbound envelope and classifies its body.
//
// A missing, null, negative or non-integer id is a *errors.ParseError, as is
// input that is not a JSON object. Everything about the body is permissive:
// a missing body or an unrecognised "for" yields an *UnknownRequestBody.
func ParseRequest(raw []byte) (*Request, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &errors.ParseError{Reason: "request is not a JSON object", Err: err}
	}

	idRaw, ok := envelope["id"]
	if !ok || isNull(idRaw) {
		return nil, &errors.ParseError{Field: "id", Reason: "missing"}
	}
	id, err := strconv.ParseUint(string(bytes.TrimSpace(idRaw)), 10, 64)
	if err != nil {
		return nil, &errors.ParseError{Field: "id", Reason: "must be a non-negative integer", Err: err}
	}

	return &Request{ID: id, Body: Classify(envelope["body"])}, nil
}

// Classify turns a raw request body into one of the known kinds, or an
// *UnknownRequestBody. It never fails.
func Classify(raw json.RawMessage) RequestBody {
	if len(raw) == 0 || isNull(raw) {
		return &UnknownRequestBody{}
	}

	var head struct {
		For *string `json:"for"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.For == nil {
		return &UnknownRequestBody{Raw: raw}
	}

	switch *head.For {
	case KindTest:
		var b TestRequestBody
		if err := json.Unmarshal(raw, &b); err == nil {
			return &b
		}
	case KindContentRender:
		var b ContentRenderRequestBody
		if err := json.Unmarshal(raw, &b); err == nil {
			return &b
		}
	}
	return &UnknownRequestBody{For: *head.For, Raw: raw}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
