package schema

import (
	"encoding/json"
	"fmt"

	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/invopop/jsonschema"
)

// Wire layouts of each variant, used only for reflection. The enum tag pins
// the discriminator to the variant's name.

type noneOkWire struct {
	As string `json:"as" jsonschema:"enum=NoneOk"`
}

type okStringWire struct {
	As    string `json:"as" jsonschema:"enum=OkString"`
	Value string `json:"value"`
}

type okJSONWire struct {
	As    string `json:"as" jsonschema:"enum=OkJSON"`
	Value any    `json:"value"`
}

type errorWire struct {
	As      string `json:"as" jsonschema:"enum=Error"`
	Message string `json:"message,omitempty" jsonschema:"minLength=1"`
}

type webResponseWire struct {
	As            string            `json:"as" jsonschema:"enum=WebResponse"`
	AppendHeaders map[string]string `json:"append_headers"`
	ResponseBody  string            `json:"response_body"`
}

type testRequestWire struct {
	For  string `json:"for" jsonschema:"enum=Test"`
	Test string `json:"test"`
}

type contentRenderWire struct {
	For          string                `json:"for" jsonschema:"enum=ContentRenderRequest"`
	TemplatePath string                `json:"template_path" jsonschema:"minLength=1"`
	TemplateData entities.TemplateData `json:"template_data"`
}

// ResponseSchema returns the JSON Schema every outgoing response satisfies.
func ResponseSchema() ([]byte, error) {
	return envelopeSchema(
		"Cynthia plugin response",
		noneOkWire{}, okStringWire{}, okJSONWire{}, errorWire{}, webResponseWire{},
	)
}

// RequestSchema returns the JSON Schema of the request kinds this SDK knows.
// Hosts may send other kinds; those are classified as unknown, not rejected.
func RequestSchema() ([]byte, error) {
	return envelopeSchema(
		"Cynthia plugin request",
		testRequestWire{}, contentRenderWire{},
	)
}

func envelopeSchema(title string, variants ...any) ([]byte, error) {
	bodies := make([]*jsonschema.Schema, 0, len(variants))
	for _, v := range variants {
		bodies = append(bodies, reflectInline(v))
	}

	props := jsonschema.NewProperties()
	props.Set("id", &jsonschema.Schema{Type: "integer", Minimum: json.Number("0")})
	props.Set("body", &jsonschema.Schema{OneOf: bodies})

	envelope := &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                title,
		Type:                 "object",
		Properties:           props,
		Required:             []string{"id", "body"},
		AdditionalProperties: jsonschema.FalseSchema,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
