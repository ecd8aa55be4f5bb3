package plugin

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"

	"github.com/cynthia-web/plugin-sdk-go/application/response"
	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
)

// HandlerFunc answers one classified request. A nil body with a nil error is
// answered with NoneOk; a non-nil error is answered with an Error body.
type HandlerFunc func(ctx context.Context, req *entities.Request) (entities.ResponseBody, error)

// Router is an immutable mapping from request kind to handler.
// Once created via NewRouter, handlers cannot be added or removed, so lookups
// need no locking.
type Router struct {
	handlers map[string]HandlerFunc
	fallback HandlerFunc
	kinds    []string // sorted for consistent iteration
}

// routerBuilder accumulates configuration during router construction.
type routerBuilder struct {
	handlers   map[string]HandlerFunc
	fallback   HandlerFunc
	middleware []Middleware
	errors     []error
}

// RouterOption is a functional option for configuring a Router.
type RouterOption func(*routerBuilder)

// NewRouter creates an immutable Router with the given options.
// Returns an error if a kind is registered twice or is empty.
//
// Without WithTestHandler the router echoes Test requests back as OkString.
// Without WithFallback, requests of unregistered kinds are answered with an
// "unsupported request kind" Error.
//
// Example usage:
//
//	router, err := NewRouter(
//	    WithMiddleware(RecoverMiddleware(), LoggingMiddleware(logger)),
//	    WithContentRenderHandler(render),
//	    WithHandler("WebRequest", WebHandler(serve)),
//	)
func NewRouter(opts ...RouterOption) (*Router, error) {
	b := &routerBuilder{
		handlers: make(map[string]HandlerFunc),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}

	if _, ok := b.handlers[entities.KindTest]; !ok {
		b.handlers[entities.KindTest] = EchoTest
	}
	if b.fallback == nil {
		b.fallback = Unsupported
	}

	kinds := make([]string, 0, len(b.handlers))
	for kind := range b.handlers {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	// Middleware wraps in FIFO order: the first registered is outermost.
	wrap := func(h HandlerFunc) HandlerFunc {
		for i := len(b.middleware) - 1; i >= 0; i-- {
			h = b.middleware[i](h)
		}
		return h
	}

	wrapped := make(map[string]HandlerFunc, len(b.handlers))
	for kind, h := range b.handlers {
		wrapped[kind] = wrap(h)
	}

	return &Router{
		handlers: wrapped,
		fallback: wrap(b.fallback),
		kinds:    kinds,
	}, nil
}

// Route answers req with the handler registered for its kind and always
// returns a body, never nil. Failures of any sort, panics included, become
// Error bodies.
//
// A request whose kind is known but whose fields did not decode is answered
// with a validation Error without reaching a handler.
func (r *Router) Route(ctx context.Context, req *entities.Request) entities.ResponseBody {
	if req == nil {
		return response.Error("no request")
	}

	kind := req.Kind()
	if unknown, ok := req.Unknown(); ok && entities.IsKnownKind(unknown.Kind()) {
		return response.FromError(&errors.ValidationError{
			Kind: kind,
			Err:  fmt.Errorf("body does not match the %s shape", kind),
		})
	}

	handler, ok := r.handlers[kind]
	if !ok {
		handler = r.fallback
	}
	return invoke(ctx, handler, req)
}

// Has returns true if a handler is registered for kind.
func (r *Router) Has(kind string) bool {
	_, ok := r.handlers[kind]
	return ok
}

// Kinds returns a sorted list of all registered request kinds.
func (r *Router) Kinds() []string {
	result := make([]string, len(r.kinds))
	copy(result, r.kinds)
	return result
}

func invoke(ctx context.Context, h HandlerFunc, req *entities.Request) (body entities.ResponseBody) {
	defer func() {
		if v := recover(); v != nil {
			body = response.FromError(&errors.PanicError{Value: v, Stack: debug.Stack()})
		}
	}()

	body, err := h(ctx, req)
	if err != nil {
		return response.FromError(&errors.HandlerError{Kind: req.Kind(), Err: err})
	}
	if entities.IsNilBody(body) {
		return response.NoneOk()
	}
	return body
}

// addHandler registers a handler for kind.
// Returns an error if the kind is already registered.
func (b *routerBuilder) addHandler(kind string, h HandlerFunc) error {
	if kind == "" {
		return fmt.Errorf("request kind cannot be empty")
	}
	if h == nil {
		return fmt.Errorf("nil handler for request kind %q", kind)
	}
	if _, exists := b.handlers[kind]; exists {
		return fmt.Errorf("duplicate handler for request kind %q", kind)
	}
	b.handlers[kind] = h
	return nil
}

// WithHandler registers h for requests whose body carries `for: kind`.
// Kinds unknown to this SDK are delivered as UnknownRequestBody; use
// UnknownRequestBody.Decode to read them.
func WithHandler(kind string, h HandlerFunc) RouterOption {
	return func(b *routerBuilder) {
		if err := b.addHandler(kind, h); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithTestHandler registers a typed handler for Test requests.
func WithTestHandler(h func(ctx context.Context, body *entities.TestRequestBody) (entities.ResponseBody, error)) RouterOption {
	return WithHandler(entities.KindTest, func(ctx context.Context, req *entities.Request) (entities.ResponseBody, error) {
		body, _ := req.Test()
		return h(ctx, body)
	})
}

// WithContentRenderHandler registers a typed handler for ContentRenderRequest requests.
func WithContentRenderHandler(h func(ctx context.Context, body *entities.ContentRenderRequestBody) (entities.ResponseBody, error)) RouterOption {
	return WithHandler(entities.KindContentRender, func(ctx context.Context, req *entities.Request) (entities.ResponseBody, error) {
		body, _ := req.ContentRender()
		return h(ctx, body)
	})
}

// WithFallback sets the handler for request kinds nothing else is registered for.
func WithFallback(h HandlerFunc) RouterOption {
	return func(b *routerBuilder) {
		if h == nil {
			b.errors = append(b.errors, fmt.Errorf("nil fallback handler"))
			return
		}
		b.fallback = h
	}
}

// WithMiddleware adds middleware to the router.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RouterOption {
	return func(b *routerBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
