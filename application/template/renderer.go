// Package template renders ContentRenderRequests with html/template.
package template

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
)

// DefaultPatterns are the template files a renderer accepts unless configured otherwise.
var DefaultPatterns = []string{"**/*.hbs", "**/*.html", "**/*.tmpl"}

// templateConfig holds configuration for the HTMLRenderer.
type templateConfig struct {
	root     string
	patterns []string
	strict   bool // Fail on missing keys
}

func defaultTemplateConfig() templateConfig {
	return templateConfig{
		strict:   true, // Secure default
		patterns: DefaultPatterns,
	}
}

// TemplateOption configures an HTMLRenderer.
type TemplateOption func(*templateConfig)

// WithStrict enables/disables strict mode for missing keys.
// When enabled (default), rendering fails if a template references a key the
// data does not have.
func WithStrict(enabled bool) TemplateOption {
	return func(c *templateConfig) {
		c.strict = enabled
	}
}

// WithRoot confines template paths to dir. Relative template paths are
// resolved against it; absolute ones must lie inside it.
func WithRoot(dir string) TemplateOption {
	return func(c *templateConfig) {
		c.root = dir
	}
}

// WithAllowedPatterns replaces DefaultPatterns. Patterns use doublestar
// syntax and are matched against the slash-separated path below the root.
func WithAllowedPatterns(patterns ...string) TemplateOption {
	return func(c *templateConfig) {
		c.patterns = patterns
	}
}

// HTMLRenderer implements ContentRenderer using html/template.
type HTMLRenderer struct {
	config templateConfig
}

var _ ports.ContentRenderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer creates a new HTMLRenderer.
func NewHTMLRenderer(opts ...TemplateOption) *HTMLRenderer {
	cfg := defaultTemplateConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &HTMLRenderer{config: cfg}
}

// Render reads the template named by body.TemplatePath and executes it with
// .meta and .content. Content is trusted HTML produced by the host.
func (r *HTMLRenderer) Render(body *entities.ContentRenderRequestBody) (string, error) {
	if body == nil {
		return "", fmt.Errorf("no content render request")
	}

	path, err := r.resolve(body.TemplatePath)
	if err != nil {
		return "", err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", body.TemplatePath, err)
	}

	out, err := r.Execute(filepath.Base(path), raw, body.TemplateData)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Execute parses raw as a template called name and runs it with data.
func (r *HTMLRenderer) Execute(name string, raw []byte, data entities.TemplateData) ([]byte, error) {
	tmpl := template.New(name)

	// Use Option("missingkey=error") to fail fast if a key is missing.
	if r.config.strict {
		tmpl = tmpl.Option("missingkey=error")
	}

	tmpl, err := tmpl.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateValues(data)); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// resolve maps a requested template path onto the filesystem and checks it
// against the root and the allowed patterns.
func (r *HTMLRenderer) resolve(requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		return "", fmt.Errorf("template path is empty")
	}

	path := filepath.Clean(requested)
	rel := strings.TrimPrefix(filepath.ToSlash(path), "/")

	if r.config.root != "" {
		root := filepath.Clean(r.config.root)
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		within, err := filepath.Rel(root, path)
		if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("template %s is outside %s", requested, root)
		}
		rel = filepath.ToSlash(within)
	}

	for _, pattern := range r.config.patterns {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return "", fmt.Errorf("invalid template pattern %q: %w", pattern, err)
		}
		if ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("template %s does not match any allowed pattern", requested)
}

// templateValues exposes every field under its wire name, present even when
// empty, so strict mode only trips on real typos.
func templateValues(data entities.TemplateData) map[string]any {
	m := data.Meta

	var author map[string]any
	if m.Author != nil {
		author = map[string]any{
			"name":      m.Author.Name,
			"link":      m.Author.Link,
			"thumbnail": m.Author.Thumbnail,
		}
	}

	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}

	return map[string]any{
		"meta": map[string]any{
			"id":        m.ID,
			"title":     m.Title,
			"desc":      m.Desc,
			"category":  m.Category,
			"tags":      tags,
			"author":    author,
			"thumbnail": m.Thumbnail,
			"dates": map[string]any{
				"altered":   m.Dates.Altered,
				"published": m.Dates.Published,
			},
		},
		// Already HTML, rendered by the host.
		"content": template.HTML(data.Content),
	}
}
