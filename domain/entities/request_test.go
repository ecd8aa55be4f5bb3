package entities

import (
	"encoding/json"
	stdErrors "errors"
	"testing"

	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentRenderLine = `{
	"id": 3,
	"body": {
		"for": "ContentRenderRequest",
		"template_path": "/site/cynthiaFiles/templates/post/default.hbs",
		"template_data": {
			"meta": {
				"id": "hello-world",
				"title": "Hello, world",
				"desc": null,
				"category": "notes",
				"tags": ["intro"],
				"author": {"name": "MLC", "link": "https://example.org"},
				"dates": {"altered": 1717000000, "published": 1716000000},
				"thumbnail": null
			},
			"content": "<p>hi</p>"
		}
	}
}`

func TestParseRequest_Test(t *testing.T) {
	req, err := ParseRequest([]byte(`{"id": 7, "body": {"for": "Test", "test": "x"}}`))
	require.NoError(t, err)

	assert.Equal(t, uint64(7), req.ID)
	assert.Equal(t, KindTest, req.Kind())

	body, ok := req.Test()
	require.True(t, ok)
	assert.Equal(t, "x", body.Test)

	_, ok = req.ContentRender()
	assert.False(t, ok)
}

func TestParseRequest_ContentRender(t *testing.T) {
	req, err := ParseRequest([]byte(contentRenderLine))
	require.NoError(t, err)

	assert.Equal(t, uint64(3), req.ID)
	body, ok := req.ContentRender()
	require.True(t, ok)

	assert.Equal(t, "/site/cynthiaFiles/templates/post/default.hbs", body.TemplatePath)
	meta := body.TemplateData.Meta
	assert.Equal(t, "hello-world", meta.ID)
	assert.Equal(t, "Hello, world", meta.Title)
	assert.Empty(t, meta.Desc)
	assert.Equal(t, "notes", meta.Category)
	assert.Equal(t, []string{"intro"}, meta.Tags)
	require.NotNil(t, meta.Author)
	assert.Equal(t, "MLC", meta.Author.Name)
	assert.Equal(t, int64(1717000000), meta.Dates.Altered)
	assert.Equal(t, int64(1716000000), meta.Dates.Published)
	assert.Equal(t, "<p>hi</p>", body.TemplateData.Content)
	assert.NoError(t, body.Validate())
}

func TestParseRequest_Unknown(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind string
		wantRaw  string
	}{
		{
			name:     "unseen kind",
			line:     `{"id": 4, "body": {"for": "SomethingUnseen", "x": 1}}`,
			wantKind: "SomethingUnseen",
			wantRaw:  `{"for": "SomethingUnseen", "x": 1}`,
		},
		{
			name:    "missing body",
			line:    `{"id": 4}`,
			wantRaw: "",
		},
		{
			name:    "null body",
			line:    `{"id": 4, "body": null}`,
			wantRaw: "",
		},
		{
			name:    "body without discriminator",
			line:    `{"id": 4, "body": {"test": "x"}}`,
			wantRaw: `{"test": "x"}`,
		},
		{
			name:    "body is not an object",
			line:    `{"id": 4, "body": [1, 2]}`,
			wantRaw: `[1, 2]`,
		},
		{
			name:    "discriminator is not a string",
			line:    `{"id": 4, "body": {"for": 12}}`,
			wantRaw: `{"for": 12}`,
		},
		{
			name:     "known kind with mismatched fields",
			line:     `{"id": 4, "body": {"for": "Test", "test": 5}}`,
			wantKind: KindTest,
			wantRaw:  `{"for": "Test", "test": 5}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.line))
			require.NoError(t, err)
			assert.Equal(t, uint64(4), req.ID)

			body, ok := req.Unknown()
			require.True(t, ok, "expected an unknown body, got %T", req.Body)
			assert.Equal(t, tt.wantKind, body.Kind())
			assert.Equal(t, tt.wantRaw, string(body.Raw))
		})
	}
}

func TestParseRequest_ParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantField string
	}{
		{name: "missing id", line: `{"body": {"for": "Test", "test": "x"}}`, wantField: "id"},
		{name: "null id", line: `{"id": null}`, wantField: "id"},
		{name: "negative id", line: `{"id": -1}`, wantField: "id"},
		{name: "fractional id", line: `{"id": 1.5}`, wantField: "id"},
		{name: "string id", line: `{"id": "7"}`, wantField: "id"},
		{name: "not an object", line: `[1, 2, 3]`},
		{name: "not json", line: `parse: {"id": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.line))
			require.Error(t, err)
			assert.Nil(t, req)

			var pe *errors.ParseError
			require.True(t, stdErrors.As(err, &pe))
			assert.Equal(t, tt.wantField, pe.Field)
		})
	}
}

func TestClassify_NeverFailsWithID(t *testing.T) {
	bodies := []string{
		`{}`, `""`, `0`, `true`, `{"for": ""}`, `{"for": "ContentRenderRequest"}`,
		`{"for": "ContentRenderRequest", "template_data": "nope"}`, `{"for": null}`,
	}
	for _, b := range bodies {
		req, err := ParseRequest([]byte(`{"id": 1, "body": ` + b + `}`))
		require.NoError(t, err, b)
		assert.NotNil(t, req.Body, b)
	}
}

func TestUnknownRequestBody_Decode(t *testing.T) {
	req, err := ParseRequest([]byte(`{"id": 11, "body": {"for": "WebRequest", "method": "GET", "url": "/p/home", "headers": {"Accept": "text/html"}, "body": ""}}`))
	require.NoError(t, err)

	unknown, ok := req.Unknown()
	require.True(t, ok)

	var web WebRequest
	require.NoError(t, unknown.Decode(&web))
	assert.Equal(t, "GET", web.Method)
	assert.Equal(t, "/p/home", web.URL)

	accept, ok := web.Header("accept")
	assert.True(t, ok)
	assert.Equal(t, "text/html", accept)

	empty := &UnknownRequestBody{}
	assert.Error(t, empty.Decode(&web))
}

func TestRequest_MarshalRoundTrip(t *testing.T) {
	original, err := ParseRequest([]byte(contentRenderLine))
	require.NoError(t, err)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	again, err := ParseRequest(data)
	require.NoError(t, err)
	assert.Equal(t, original, again)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, KindContentRender, decoded["body"].(map[string]any)["for"])
}

func TestContentRenderRequestBody_Validate(t *testing.T) {
	valid := func() *ContentRenderRequestBody {
		return &ContentRenderRequestBody{
			TemplatePath: "post/default.hbs",
			TemplateData: TemplateData{Meta: Meta{ID: "a", Title: "A"}},
		}
	}

	tests := []struct {
		name      string
		mutate    func(b *ContentRenderRequestBody)
		wantField string
	}{
		{name: "valid", mutate: func(*ContentRenderRequestBody) {}},
		{name: "no template path", mutate: func(b *ContentRenderRequestBody) { b.TemplatePath = "" }, wantField: "template_path"},
		{name: "no meta id", mutate: func(b *ContentRenderRequestBody) { b.TemplateData.Meta.ID = "" }, wantField: "template_data.meta.id"},
		{name: "no title", mutate: func(b *ContentRenderRequestBody) { b.TemplateData.Meta.Title = "" }, wantField: "template_data.meta.title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := valid()
			tt.mutate(b)
			err := b.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *errors.ValidationError
			require.True(t, stdErrors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, KindContentRender, ve.Kind)
		})
	}
}
