// Package responder bridges application code that answers web requests to the
// response protocol. Application code supplies a function producing headers and
// a body; the responder turns its outcome into exactly one response.
package responder

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/cynthia-web/plugin-sdk-go/application/correlator"
	"github.com/cynthia-web/plugin-sdk-go/application/response"
	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
)

// Answer is what application code returns for a web request.
type Answer struct {
	Headers map[string]string
	Body    string
}

// Responder produces the answer to one web request. It may block, for example
// while rendering a template.
type Responder func() (Answer, error)

// Fold invokes fn exactly once and converts its outcome into a response body.
// A successful answer becomes a WebResponse. A returned error or a panic
// becomes an Error carrying the failure's message.
func Fold(fn Responder) (body entities.ResponseBody) {
	if fn == nil {
		return response.Error("no responder for web request")
	}

	defer func() {
		if r := recover(); r != nil {
			body = response.FromError(&errors.PanicError{Value: r, Stack: debug.Stack()})
		}
	}()

	answer, err := fn()
	if err != nil {
		return response.FromError(err)
	}
	return response.WebResponse(answer.Headers, answer.Body)
}

// WebResponder answers a single request id. It moves from pending to answered
// on the first call to Answer and refuses any further answers.
type WebResponder struct {
	replier  correlator.Replier
	id       uint64
	answered atomic.Bool
}

// New returns a WebResponder replying to id through r.
func New(r correlator.Replier, id uint64) *WebResponder {
	if r == nil {
		panic(fmt.Sprintf("responder: nil replier for request %d", id))
	}
	return &WebResponder{replier: r, id: id}
}

// ID returns the request id this responder answers.
func (w *WebResponder) ID() uint64 {
	return w.id
}

// Answered reports whether a reply has been attempted.
func (w *WebResponder) Answered() bool {
	return w.answered.Load()
}

// Answer folds fn into a response body and replies with it. The reply is sent
// only after fn returns. A second call does not invoke fn and returns a
// ProtocolError wrapping ErrAlreadyAnswered.
func (w *WebResponder) Answer(fn Responder) error {
	if !w.answered.CompareAndSwap(false, true) {
		return &errors.ProtocolError{ID: w.id, Err: errors.ErrAlreadyAnswered}
	}
	return w.replier.Reply(w.id, Fold(fn))
}
