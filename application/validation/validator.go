// Package validation checks outgoing responses against the protocol's JSON Schema.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cynthia-web/plugin-sdk-go/application/schema"
	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const responseSchemaURL = "cynthia-plugin-response.json"

// ResponseValidator validates response envelopes against the compiled
// response schema. It is safe for concurrent use.
type ResponseValidator struct {
	schema *jsonschema.Schema
}

// NewResponseValidator compiles the response schema.
func NewResponseValidator() (*ResponseValidator, error) {
	doc, err := schema.ResponseSchema()
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(responseSchemaURL, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("failed to add response schema: %w", err)
	}

	sch, err := compiler.Compile(responseSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid response schema: %w", err)
	}
	return &ResponseValidator{schema: sch}, nil
}

// Validate checks resp exactly as it would appear on the wire.
func (v *ResponseValidator) Validate(resp entities.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response %d: %w", resp.ID, err)
	}
	return v.ValidateJSON(data)
}

// ValidateJSON checks a serialized response envelope.
func (v *ResponseValidator) ValidateJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj interface{}
	if err := dec.Decode(&obj); err != nil {
		return fmt.Errorf("failed to prepare validation object: %w", err)
	}

	if err := v.schema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("response does not match protocol schema: %s", leafMessage(ve))
		}
		return err
	}
	return nil
}

// leafMessage reports the deepest cause, which names the offending field.
func leafMessage(ve *jsonschema.ValidationError) string {
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	if leaf.InstanceLocation == "" {
		return leaf.Message
	}
	return fmt.Sprintf("%s: %s", leaf.InstanceLocation, leaf.Message)
}

// ValidatingSink checks every response before forwarding it. A response that
// does not match the schema is replaced by an Error response for the same id,
// so the host still gets its one answer, and the mismatch is returned.
type ValidatingSink struct {
	next      ports.DispatchSink
	validator *ResponseValidator
}

// NewValidatingSink wraps next with v.
func NewValidatingSink(next ports.DispatchSink, v *ResponseValidator) *ValidatingSink {
	return &ValidatingSink{next: next, validator: v}
}

var _ ports.DispatchSink = (*ValidatingSink)(nil)

// Dispatch implements ports.DispatchSink.
func (s *ValidatingSink) Dispatch(resp entities.Response) error {
	err := s.validator.Validate(resp)
	if err == nil {
		return s.next.Dispatch(resp)
	}

	replacement := entities.Response{ID: resp.ID, Body: entities.ErrorBody{Message: err.Error()}}
	if dispatchErr := s.next.Dispatch(replacement); dispatchErr != nil {
		return fmt.Errorf("response %d: %w", resp.ID, errors.Join(err, dispatchErr))
	}
	return fmt.Errorf("response %d: %w", resp.ID, err)
}
