package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	protoerrors "github.com/cynthia-web/plugin-sdk-go/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineSink_Dispatch(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLineSink(&buf)

	require.NoError(t, sink.Dispatch(entities.Response{ID: 7, Body: entities.OkStringBody{Value: "x"}}))
	require.NoError(t, sink.Dispatch(entities.Response{ID: 8, Body: entities.NoneOkBody{}}))

	assert.Equal(t,
		"parse: {\"id\":7,\"body\":{\"as\":\"OkString\",\"value\":\"x\"}}\n"+
			"parse: {\"id\":8,\"body\":{\"as\":\"NoneOk\"}}\n",
		buf.String(),
	)
}

func TestLineSink_MultilinePayloadStaysOnOneLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLineSink(&buf, WithPrefix(""))

	body := entities.WebResponseBody{ResponseBody: "<html>\n<body>hi</body>\n</html>"}
	require.NoError(t, sink.Dispatch(entities.Response{ID: 1, Body: body}))

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.True(t, strings.HasPrefix(buf.String(), `{"id":1`))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestLineSink_WriteFailure(t *testing.T) {
	sink := NewLineSink(failingWriter{})

	err := sink.Dispatch(entities.Response{ID: 2, Body: entities.NoneOkBody{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrClosedPipe))
	assert.Contains(t, err.Error(), "write response 2")
}

func TestLineSink_MarshalFailure(t *testing.T) {
	sink := NewLineSink(io.Discard)

	err := sink.Dispatch(entities.Response{ID: 3, Body: entities.OkJSONBody{Value: make(chan int)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal response 3")
}

func TestLineSink_ConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLineSink(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			assert.NoError(t, sink.Dispatch(entities.Response{ID: id, Body: entities.OkStringBody{Value: strings.Repeat("x", 512)}}))
		}(uint64(i))
	}
	wg.Wait()

	scanner := bufio.NewScanner(&buf)
	scanner.Buffer(nil, 1<<20)
	count := 0
	for scanner.Scan() {
		line := scanner.Text()
		require.True(t, strings.HasPrefix(line, DefaultPrefix), line)
		var resp entities.Response
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, DefaultPrefix)), &resp))
		count++
	}
	assert.Equal(t, 100, count)
}

func TestNewSyncWriter_Idempotent(t *testing.T) {
	sw := NewSyncWriter(io.Discard)
	assert.Same(t, sw, NewSyncWriter(sw))
}

func TestReader_Next(t *testing.T) {
	input := "{\"id\":1}\n\n   \r\n{\"id\":2}\r\n{\"id\":3}"
	r := NewReader(strings.NewReader(input))
	defer r.Close()

	ctx := context.Background()
	var got []string
	for {
		line, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, string(line))
	}

	assert.Equal(t, []string{`{"id":1}`, `{"id":2}`, `{"id":3}`}, got)
}

func TestReader_LineTooLongIsSkipped(t *testing.T) {
	input := strings.Repeat("a", 64) + "\n" + `{"id":2}` + "\n" + strings.Repeat("b", 17) + "\r\n" + `{"id":3}`
	r := NewReader(strings.NewReader(input), WithMaxLineBytes(16))
	defer r.Close()

	ctx := context.Background()
	_, err := r.Next(ctx)
	var pe *protoerrors.ParseError
	require.True(t, errors.As(err, &pe))
	assert.True(t, errors.Is(err, ErrLineTooLong))
	assert.Contains(t, err.Error(), "exceeds 16 bytes")

	line, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"id":2}`, string(line))

	_, err = r.Next(ctx)
	assert.True(t, errors.Is(err, ErrLineTooLong))

	line, err = r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"id":3}`, string(line))

	_, err = r.Next(ctx)
	assert.True(t, errors.Is(err, io.EOF))
}

func TestReader_LineAtLimit(t *testing.T) {
	// The longest accepted line spans several internal buffer fills.
	payload := `{"id":1,"pad":"` + strings.Repeat("x", 40) + `"}`
	r := NewReader(strings.NewReader(payload+"\r\n"), WithMaxLineBytes(len(payload)))
	defer r.Close()

	line, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, payload, string(line))
}

func TestReader_ContextCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	r := NewReader(pr)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Next(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReader_ReadsAcrossWrites(t *testing.T) {
	pr, pw := io.Pipe()
	r := NewReader(pr)
	defer r.Close()

	go func() {
		_, _ = pw.Write([]byte(`{"id":`))
		_, _ = pw.Write([]byte("9}\n"))
		_ = pw.Close()
	}()

	line, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"id":9}`, string(line))

	_, err = r.Next(context.Background())
	assert.True(t, errors.Is(err, io.EOF))
}
