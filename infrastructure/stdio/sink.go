// Package stdio carries the plugin protocol over line-delimited standard
// streams. Requests arrive one JSON envelope per line; responses leave as
// "parse: <json>" lines so the host can tell them apart from log output.
package stdio

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
)

// DefaultPrefix marks a stdout line as a protocol response.
const DefaultPrefix = "parse: "

// SyncWriter serializes writes to an underlying writer so whole lines from
// different goroutines never interleave.
type SyncWriter struct {
	w  io.Writer
	mu sync.Mutex
}

// NewSyncWriter wraps w. Wrapping a SyncWriter again returns it unchanged.
func NewSyncWriter(w io.Writer) *SyncWriter {
	if sw, ok := w.(*SyncWriter); ok {
		return sw
	}
	return &SyncWriter{w: w}
}

// Write implements io.Writer.
func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// LineSink is a DispatchSink writing one response per line.
type LineSink struct {
	w      *SyncWriter
	prefix string
}

// SinkOption configures a LineSink.
type SinkOption func(*LineSink)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) SinkOption {
	return func(s *LineSink) {
		s.prefix = prefix
	}
}

// NewLineSink creates a LineSink writing to w.
func NewLineSink(w io.Writer, opts ...SinkOption) *LineSink {
	s := &LineSink{
		w:      NewSyncWriter(w),
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.DispatchSink = (*LineSink)(nil)

// Dispatch serializes resp and writes it as a single line with one Write call.
func (s *LineSink) Dispatch(resp entities.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response %d: %w", resp.ID, err)
	}

	line := make([]byte, 0, len(s.prefix)+len(data)+1)
	line = append(line, s.prefix...)
	line = append(line, data...)
	line = append(line, '\n')

	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("write response %d: %w", resp.ID, err)
	}
	return nil
}
