// Package config loads plugin runtime settings from an optional TOML file and
// CYNTHIA_PLUGIN_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/cynthia-web/plugin-sdk-go/infrastructure/stdio"
	"github.com/cynthia-web/plugin-sdk-go/log"
	"github.com/go-playground/validator/v10"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CYNTHIA_PLUGIN_"

var validate = validator.New()

// Config holds the runtime settings of a plugin process.
type Config struct {
	// LogLevel is the lowest label printed: debug, log, info, warn or error.
	LogLevel string `toml:"log_level" json:"log_level" env:"LOG_LEVEL" validate:"oneof=debug log info warn error" jsonschema:"enum=debug,enum=log,enum=info,enum=warn,enum=error"`

	// ResponsePrefix marks response lines on stdout.
	ResponsePrefix string `toml:"response_prefix" json:"response_prefix" env:"RESPONSE_PREFIX"`

	// MaxLineBytes bounds one request line.
	MaxLineBytes int `toml:"max_line_bytes" json:"max_line_bytes" env:"MAX_LINE_BYTES" validate:"min=1024" jsonschema:"minimum=1024"`

	// ValidateResponses checks every outgoing response against the protocol schema.
	ValidateResponses bool `toml:"validate_responses" json:"validate_responses" env:"VALIDATE_RESPONSES"`

	// TemplateRoot confines the templates a ContentRenderRequest may name.
	// Empty means the request's template_path is used as given.
	TemplateRoot string `toml:"template_root" json:"template_root" env:"TEMPLATE_ROOT"`

	// TemplateGlobs lists the doublestar patterns a template path must match.
	TemplateGlobs []string `toml:"template_globs" json:"template_globs" env:"TEMPLATE_GLOBS" envSeparator:"," validate:"min=1,dive,required" jsonschema:"minItems=1"`
}

// fileConfig is the TOML file layout. Keys absent from the file keep their defaults.
type fileConfig struct {
	LogLevel          string   `toml:"log_level"`
	ResponsePrefix    string   `toml:"response_prefix"`
	MaxLineBytes      int      `toml:"max_line_bytes"`
	ValidateResponses bool     `toml:"validate_responses"`
	TemplateRoot      string   `toml:"template_root"`
	TemplateGlobs     []string `toml:"template_globs"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel:       "info",
		ResponsePrefix: stdio.DefaultPrefix,
		MaxLineBytes:   stdio.DefaultMaxLineBytes,
		TemplateGlobs:  []string{"**/*.hbs", "**/*.html", "**/*.tmpl"},
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the environment, in that order, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load plugin config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load plugin config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("response_prefix") {
		c.ResponsePrefix = raw.ResponsePrefix
	}
	if meta.IsDefined("max_line_bytes") {
		c.MaxLineBytes = raw.MaxLineBytes
	}
	if meta.IsDefined("validate_responses") {
		c.ValidateResponses = raw.ValidateResponses
	}
	if meta.IsDefined("template_root") {
		c.TemplateRoot = strings.TrimSpace(raw.TemplateRoot)
	}
	if meta.IsDefined("template_globs") {
		c.TemplateGlobs = raw.TemplateGlobs
	}
	return nil
}

// ParseEnv loads CYNTHIA_PLUGIN_* environment variables into target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid plugin config: %w", err)
	}
	return nil
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() slog.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
