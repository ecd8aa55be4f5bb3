package ports

import "context"

// RequestSource yields raw request envelopes from the host, one per call.
type RequestSource interface {
	// Next blocks until the next envelope is available. It returns io.EOF once
	// the host closes the stream, or ctx.Err() when ctx is done first.
	Next(ctx context.Context) ([]byte, error)
}
