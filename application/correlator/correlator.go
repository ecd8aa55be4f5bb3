// Package correlator is the single choke point through which responses leave
// the plugin. It remembers which request ids are in flight and refuses to emit
// a response for any other id.
package correlator

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
)

// Replier sends exactly one response for a request id.
type Replier interface {
	Reply(id uint64, body entities.ResponseBody) error
}

// Correlator tags response bodies with their request id and forwards them to
// a DispatchSink. It is safe for concurrent use.
type Correlator struct {
	sink    ports.DispatchSink
	logger  *slog.Logger
	pending map[uint64]struct{}
	mu      sync.Mutex
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithLogger sets the logger protocol violations and dispatch failures are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Correlator) {
		c.logger = logger
	}
}

// New creates a Correlator forwarding to sink. A nil sink is a programming
// error and panics.
func New(sink ports.DispatchSink, opts ...Option) *Correlator {
	if sink == nil {
		panic("correlator: nil dispatch sink")
	}
	c := &Correlator{
		sink:    sink,
		logger:  slog.Default(),
		pending: make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe records id as in flight. The host must not reuse an id before it
// has been answered; doing so yields a ProtocolError wrapping ErrDuplicateRequest.
func (c *Correlator) Observe(id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[id]; ok {
		err := &errors.ProtocolError{ID: id, Err: errors.ErrDuplicateRequest}
		c.logger.Error("correlator: duplicate request id", "id", id)
		return err
	}
	c.pending[id] = struct{}{}
	return nil
}

// Reply sends {id, body} to the sink. The id must have been observed and not
// yet answered, otherwise a ProtocolError wrapping ErrUnknownRequestID is
// returned and nothing is sent. A nil body is a programming error and panics.
//
// The id is released before dispatch, so of two concurrent replies for one id
// exactly one reaches the sink. Sink failures are returned, not retried.
func (c *Correlator) Reply(id uint64, body entities.ResponseBody) error {
	if entities.IsNilBody(body) {
		panic(fmt.Sprintf("correlator: reply to request %d without a response body", id))
	}

	c.mu.Lock()
	if _, ok := c.pending[id]; !ok {
		c.mu.Unlock()
		c.logger.Error("correlator: reply for unknown request id", "id", id, "as", body.As())
		return &errors.ProtocolError{ID: id, Err: errors.ErrUnknownRequestID}
	}
	delete(c.pending, id)
	c.mu.Unlock()

	if err := c.sink.Dispatch(entities.Response{ID: id, Body: body}); err != nil {
		c.logger.Error("correlator: dispatch failed", "id", id, "as", body.As(), "error", err)
		return fmt.Errorf("dispatch response %d: %w", id, err)
	}
	return nil
}

// Pending returns the ids still waiting for a reply, in ascending order.
func (c *Correlator) Pending() []uint64 {
	c.mu.Lock()
	ids := make([]uint64, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	slices.Sort(ids)
	return ids
}

// Len returns the number of requests in flight.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
