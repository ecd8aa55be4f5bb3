// Package log provides structured logging (slog) in the line format the
// Cynthia host reads from a plugin's standard output: "<label>: <message>".
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
)

// LevelLog sits between debug and info and prints with the "log" label.
const LevelLog = slog.Level(-2)

// ConsoleHandler implements slog.Handler writing one labelled line per record.
type ConsoleHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	opts   handlerConfig
	attrs  string // pre-rendered WithAttrs output
	prefix string // dotted group path for record attributes
}

// HandlerOption configures the ConsoleHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewHandler creates a ConsoleHandler writing to w.
func NewHandler(w io.Writer, opts ...HandlerOption) *ConsoleHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ConsoleHandler{w: w, mu: &sync.Mutex{}, opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// Handle writes the record as a single line.
func (h *ConsoleHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(Label(record.Level))
	b.WriteString(": ")
	b.WriteString(singleLine(record.Message))
	b.WriteString(h.attrs)

	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(&b, h.prefix, attr)
		return true
	})

	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		appendAttr(&b, "", slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", frame.File, frame.Line)))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

// WithAttrs returns a new ConsoleHandler that includes the given attributes.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, attr := range attrs {
		appendAttr(&b, h.prefix, attr)
	}
	clone := *h
	clone.attrs = b.String()
	return &clone
}

// WithGroup returns a new ConsoleHandler nesting later attributes under name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// Label returns the host-facing label for level.
func Label(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	case level >= LevelLog:
		return "log"
	default:
		return "debug"
	}
}

// ParseLevel maps a label back to its level.
func ParseLevel(label string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "debug":
		return slog.LevelDebug, nil
	case "log":
		return LevelLog, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", label)
}

// Setup installs a ConsoleHandler writing to w as the slog default and
// returns its logger. A nil w writes to os.Stdout.
func Setup(w io.Writer, opts ...HandlerOption) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	logger := slog.New(NewHandler(w, opts...))
	slog.SetDefault(logger)
	return logger
}
