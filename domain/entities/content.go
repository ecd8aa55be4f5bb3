package entities

import (
	"encoding/json"
	stdErrors "errors"
	"reflect"
	"strings"

	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
	"github.com/go-playground/validator/v10"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report wire names ("template_path") instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ContentRenderRequestBody asks the plugin to render a publication through a template.
type ContentRenderRequestBody struct {
	TemplatePath string       `json:"template_path" validate:"required"`
	TemplateData TemplateData `json:"template_data"`
}

// TemplateData is the data the host passes to the template.
type TemplateData struct {
	Meta    Meta   `json:"meta"`
	Content string `json:"content"`
}

// Meta describes the publication being rendered.
type Meta struct {
	Author    *Author  `json:"author,omitempty"`
	ID        string   `json:"id" validate:"required"`
	Title     string   `json:"title" validate:"required"`
	Desc      string   `json:"desc,omitempty"`
	Category  string   `json:"category,omitempty"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Dates     Dates    `json:"dates"`
}

// Author of a publication. Every field is optional.
type Author struct {
	Name      string `json:"name,omitempty"`
	Link      string `json:"link,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Dates are epoch timestamps; the host owns the unit.
type Dates struct {
	Altered   int64 `json:"altered"`
	Published int64 `json:"published"`
}

// Kind implements RequestBody.
func (*ContentRenderRequestBody) Kind() string { return KindContentRender }
func (*ContentRenderRequestBody) isRequestBody() {}

// MarshalJSON adds the "for" discriminator.
func (b ContentRenderRequestBody) MarshalJSON() ([]byte, error) {
	type alias ContentRenderRequestBody
	return json.Marshal(struct {
		For string `json:"for"`
		alias
	}{KindContentRender, alias(b)})
}

// Validate checks the fields a renderer cannot work without.
// The first failing field is reported as an *errors.ValidationError.
func (b *ContentRenderRequestBody) Validate() error {
	err := validate.Struct(b)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if stdErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		// Namespace is "ContentRenderRequestBody.template_data.meta.id"; drop the type name.
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		return &errors.ValidationError{
			Kind:  KindContentRender,
			Field: field,
			Err:   stdErrors.New("failed '" + fe.Tag() + "' rule"),
		}
	}
	return &errors.ValidationError{Kind: KindContentRender, Err: err}
}
