package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSchema(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func bodyVariants(t *testing.T, doc map[string]any) []map[string]any {
	t.Helper()
	props := doc["properties"].(map[string]any)
	body := props["body"].(map[string]any)
	oneOf, ok := body["oneOf"].([]any)
	require.True(t, ok, "body should be a oneOf")

	variants := make([]map[string]any, 0, len(oneOf))
	for _, v := range oneOf {
		variants = append(variants, v.(map[string]any))
	}
	return variants
}

func discriminators(variants []map[string]any, key string) []string {
	var names []string
	for _, v := range variants {
		prop := v["properties"].(map[string]any)[key].(map[string]any)
		names = append(names, prop["enum"].([]any)[0].(string))
	}
	return names
}

func TestResponseSchema(t *testing.T) {
	data, err := ResponseSchema()
	require.NoError(t, err)
	doc := decodeSchema(t, data)

	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", doc["$schema"])
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.ElementsMatch(t, []any{"id", "body"}, doc["required"])

	id := doc["properties"].(map[string]any)["id"].(map[string]any)
	assert.Equal(t, "integer", id["type"])
	assert.EqualValues(t, 0, id["minimum"])

	variants := bodyVariants(t, doc)
	assert.Equal(t, []string{"NoneOk", "OkString", "OkJSON", "Error", "WebResponse"}, discriminators(variants, "as"))
	for _, v := range variants {
		assert.Equal(t, false, v["additionalProperties"], "variant %v must not accept foreign fields", v["properties"])
		assert.NotContains(t, v, "$schema")
		assert.NotContains(t, v, "$id")
	}
}

func TestResponseSchema_ErrorMessageIsOptional(t *testing.T) {
	data, err := ResponseSchema()
	require.NoError(t, err)

	errorVariant := bodyVariants(t, decodeSchema(t, data))[3]
	assert.ElementsMatch(t, []any{"as"}, errorVariant["required"])
}

func TestRequestSchema(t *testing.T) {
	data, err := RequestSchema()
	require.NoError(t, err)
	doc := decodeSchema(t, data)

	variants := bodyVariants(t, doc)
	assert.Equal(t, []string{"Test", "ContentRenderRequest"}, discriminators(variants, "for"))

	content := variants[1]["properties"].(map[string]any)
	templateData := content["template_data"].(map[string]any)
	meta := templateData["properties"].(map[string]any)["meta"].(map[string]any)
	assert.ElementsMatch(t, []any{"id", "title", "dates"}, meta["required"])
}
