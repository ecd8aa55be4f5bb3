package log

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
)

// Console prints free-text diagnostics with a severity label. It has no
// effect on the protocol.
type Console struct {
	logger *slog.Logger
}

var _ ports.DiagnosticSink = (*Console)(nil)

// NewConsole returns a Console writing through logger. A nil logger uses slog.Default().
func NewConsole(logger *slog.Logger) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{logger: logger}
}

// Log prints v with the "log" label, between debug and info.
func (c *Console) Log(v any) { c.print(LevelLog, v) }

// Error prints v with the "error" label.
func (c *Console) Error(v any) { c.print(slog.LevelError, v) }

// Warn prints v with the "warn" label.
func (c *Console) Warn(v any) { c.print(slog.LevelWarn, v) }

// Info prints v with the "info" label.
func (c *Console) Info(v any) { c.print(slog.LevelInfo, v) }

// Debug prints v with the "debug" label. It is dropped unless the handler
// level is debug.
func (c *Console) Debug(v any) { c.print(slog.LevelDebug, v) }

func (c *Console) print(level slog.Level, v any) {
	c.logger.Log(context.Background(), level, text(v))
}

func text(v any) string {
	switch m := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return m
	case error:
		return m.Error()
	case fmt.Stringer:
		return m.String()
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprint(v)
}
