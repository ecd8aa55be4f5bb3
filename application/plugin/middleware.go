package plugin

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
)

// Middleware is a function that wraps a HandlerFunc to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
//
// Example usage:
//
//	timing := func(next HandlerFunc) HandlerFunc {
//	    return func(ctx context.Context, req *entities.Request) (entities.ResponseBody, error) {
//	        start := time.Now()
//	        defer func() { logger.Debug("handled", "took", time.Since(start)) }()
//	        return next(ctx, req)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// RecoverMiddleware returns a middleware that converts panics into a
// *errors.PanicError. Route recovers on its own as well; middleware registered
// before this one observes the failure as an error.
func RecoverMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *entities.Request) (body entities.ResponseBody, err error) {
			defer func() {
				if v := recover(); v != nil {
					body = nil
					err = &errors.PanicError{Value: v, Stack: debug.Stack()}
				}
			}()
			return next(ctx, req)
		}
	}
}

// LoggingMiddleware returns a middleware that logs each handled request.
// A nil logger uses slog.Default().
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *entities.Request) (entities.ResponseBody, error) {
			start := time.Now()
			body, err := next(ctx, req)
			if err != nil {
				logger.WarnContext(ctx, "request failed",
					"id", req.ID, "for", req.Kind(), "error", err, "duration", time.Since(start))
				return body, err
			}
			as := entities.AsNoneOk
			if !entities.IsNilBody(body) {
				as = body.As()
			}
			logger.DebugContext(ctx, "request handled",
				"id", req.ID, "for", req.Kind(), "as", as, "duration", time.Since(start))
			return body, nil
		}
	}
}

// validatable is implemented by request bodies carrying their own validation rules.
type validatable interface {
	Validate() error
}

// ValidationMiddleware returns a middleware that rejects request bodies failing
// their Validate method before the handler runs.
func ValidationMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *entities.Request) (entities.ResponseBody, error) {
			if v, ok := req.Body.(validatable); ok {
				if err := v.Validate(); err != nil {
					return nil, err
				}
			}
			return next(ctx, req)
		}
	}
}
