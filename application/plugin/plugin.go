// Package plugin runs a Cynthia plugin: it reads request envelopes, routes each
// to a handler by its kind and replies through a correlator.
//
// Example:
//
//	router, err := plugin.NewRouter(plugin.WithContentRenderHandler(render))
//	if err != nil {
//	    return err
//	}
//	c := correlator.New(stdio.NewLineSink(os.Stdout))
//	return plugin.New(router, c).Serve(ctx, stdio.NewReader(os.Stdin))
package plugin

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/cynthia-web/plugin-sdk-go/application/correlator"
	"github.com/cynthia-web/plugin-sdk-go/application/response"
	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
)

// Plugin ties a Router to a Correlator. Each request is handled in its own
// goroutine, so a slow handler never holds up the requests behind it.
type Plugin struct {
	router     *Router
	correlator *correlator.Correlator
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger for parse failures and protocol violations.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Plugin) {
		p.logger = logger
	}
}

// New creates a Plugin answering requests with router through c.
func New(router *Router, c *correlator.Correlator, opts ...Option) *Plugin {
	if router == nil || c == nil {
		panic("plugin: router and correlator are required")
	}
	p := &Plugin{
		router:     router,
		correlator: c,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle parses one raw request envelope and starts answering it. It returns
// once the request is registered; the reply follows asynchronously.
//
// A ParseError means no response can be produced. A ProtocolError means the
// id is already in flight. Both are returned to the caller and nothing is sent.
func (p *Plugin) Handle(ctx context.Context, raw []byte) error {
	req, err := entities.ParseRequest(raw)
	if err != nil {
		return err
	}
	if err := p.correlator.Observe(req.ID); err != nil {
		return err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.answer(ctx, req)
	}()
	return nil
}

func (p *Plugin) answer(ctx context.Context, req *entities.Request) {
	body := p.route(ctx, req)
	if err := p.correlator.Reply(req.ID, body); err != nil {
		p.logger.ErrorContext(ctx, "reply failed", "id", req.ID, "for", req.Kind(), "error", err)
	}
}

func (p *Plugin) route(ctx context.Context, req *entities.Request) (body entities.ResponseBody) {
	defer func() {
		if v := recover(); v != nil {
			body = response.FromError(&errors.PanicError{Value: v, Stack: debug.Stack()})
		}
	}()
	return p.router.Route(ctx, req)
}

// Serve reads envelopes from src until it reports io.EOF or ctx is done, then
// waits for in-flight requests to be answered. Envelopes that cannot be read
// or parsed are logged and skipped. Serve returns nil at end of input and when
// ctx is cancelled; any other source failure is returned.
func (p *Plugin) Serve(ctx context.Context, src ports.RequestSource) error {
	defer p.Wait()

	for {
		raw, err := src.Next(ctx)
		if err != nil {
			var pe *errors.ParseError
			switch {
			case stdErrors.Is(err, io.EOF):
				return nil
			case ctx.Err() != nil:
				p.logger.DebugContext(ctx, "request stream stopped", "reason", ctx.Err())
				return nil
			case stdErrors.As(err, &pe):
				p.logger.ErrorContext(ctx, "request dropped", "error", err)
				continue
			}
			return fmt.Errorf("read request: %w", err)
		}

		if err := p.Handle(ctx, raw); err != nil {
			p.logger.ErrorContext(ctx, "request dropped", "error", err)
		}
	}
}

// Wait blocks until every request handed to Handle has been answered.
func (p *Plugin) Wait() {
	p.wg.Wait()
}
