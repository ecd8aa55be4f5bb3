package ports

import "github.com/cynthia-web/plugin-sdk-go/domain/entities"

// DispatchSink transmits one fully built response to the host.
// Implementations must be safe for concurrent use; delivery guarantees and
// retries are theirs, not the caller's.
type DispatchSink interface {
	Dispatch(resp entities.Response) error
}

// DispatchFunc adapts a function to DispatchSink.
type DispatchFunc func(resp entities.Response) error

// Dispatch implements DispatchSink.
func (f DispatchFunc) Dispatch(resp entities.Response) error {
	return f(resp)
}
