package stdio

import (
	"bufio"
	"bytes"
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"sync"

	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
)

// DefaultMaxLineBytes bounds a single request line.
const DefaultMaxLineBytes = 4 << 20

// ErrLineTooLong is wrapped in the *errors.ParseError reported for a request
// line longer than the configured maximum. The line is skipped and reading
// continues with the next one.
var ErrLineTooLong = stdErrors.New("request line too long")

type lineResult struct {
	err  error
	line []byte
}

// Reader is a RequestSource reading one envelope per line. Scanning happens
// in a background goroutine so Next can give up when its context is done.
type Reader struct {
	lines     chan lineResult
	done      chan struct{}
	closeOnce sync.Once
	maxLine   int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxLineBytes sets the longest accepted line. Longer lines are skipped
// and reported by Next as an *errors.ParseError wrapping ErrLineTooLong.
func WithMaxLineBytes(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// NewReader starts reading lines from src.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{
		lines:   make(chan lineResult),
		done:    make(chan struct{}),
		maxLine: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.scan(src)
	return r
}

var _ ports.RequestSource = (*Reader)(nil)

func (r *Reader) scan(src io.Reader) {
	defer close(r.lines)

	size := 64 * 1024
	if size > r.maxLine {
		size = r.maxLine
	}
	br := bufio.NewReaderSize(src, size)

	for {
		line, tooLong, err := readLine(br, r.maxLine)
		switch {
		case tooLong:
			if !r.send(lineResult{err: &errors.ParseError{
				Reason: fmt.Sprintf("request line exceeds %d bytes", r.maxLine),
				Err:    ErrLineTooLong,
			}}) {
				return
			}
		case len(bytes.TrimSpace(line)) > 0:
			if !r.send(lineResult{line: bytes.TrimSpace(line)}) {
				return
			}
		}

		if err != nil {
			if err != io.EOF {
				r.send(lineResult{err: err})
			}
			return
		}
	}
}

// readLine reads up to and including the next newline. A line longer than
// limit is consumed to its end but not kept, and tooLong is set.
func readLine(br *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, readErr := br.ReadSlice('\n')
		if !tooLong {
			n := len(line) + len(bytes.TrimRight(chunk, "\r\n"))
			if n > limit {
				tooLong, line = true, nil
			} else {
				// ReadSlice's result is only valid until the next read.
				line = append(line, chunk...)
			}
		}
		if readErr == bufio.ErrBufferFull {
			continue
		}
		return line, tooLong, readErr
	}
}

func (r *Reader) send(res lineResult) bool {
	select {
	case r.lines <- res:
		return true
	case <-r.done:
		return false
	}
}

// Next returns the next non-blank line. It returns io.EOF at end of input and
// ctx.Err() when ctx is done first.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-r.lines:
		if !ok {
			return nil, io.EOF
		}
		if res.err != nil {
			return nil, res.err
		}
		return res.line, nil
	}
}

// Close stops the background reader. A goroutine blocked reading the
// underlying stream exits once that read returns.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	return nil
}
