// Package plugintest provides a test harness for Cynthia plugins.
package plugintest

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/cynthia-web/plugin-sdk-go/application/correlator"
	"github.com/cynthia-web/plugin-sdk-go/application/plugin"
	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
)

// TestCase defines a single request sent to a plugin and the check run on
// its response.
type TestCase struct {
	Name     string
	Request  string
	Validate func(t *testing.T, r entities.Response)
}

// RecordingSink collects dispatched responses in memory. When Err is set,
// every dispatch is still recorded and then fails with Err.
type RecordingSink struct {
	Err error

	mu        sync.Mutex
	responses []entities.Response
}

var _ ports.DispatchSink = (*RecordingSink)(nil)

// Dispatch implements ports.DispatchSink.
func (s *RecordingSink) Dispatch(resp entities.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, resp)
	return s.Err
}

// Responses returns the recorded responses ordered by id.
func (s *RecordingSink) Responses() []entities.Response {
	s.mu.Lock()
	out := append([]entities.Response(nil), s.responses...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Exchange feeds each raw request line to a fresh plugin built on router and
// returns every response once all requests are answered, ordered by id.
// Lines the plugin rejects fail the test.
func Exchange(t *testing.T, router *plugin.Router, lines ...string) []entities.Response {
	t.Helper()

	sink := &RecordingSink{}
	p := plugin.New(router, correlator.New(sink))
	ctx := context.Background()
	for _, line := range lines {
		if err := p.Handle(ctx, []byte(line)); err != nil {
			t.Fatalf("request rejected: %v", err)
		}
	}
	p.Wait()
	return sink.Responses()
}

// RunPluginTests runs a suite of single-request tests against router.
func RunPluginTests(t *testing.T, router *plugin.Router, tests []TestCase) {
	t.Helper()

	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			responses := Exchange(t, router, tc.Request)
			if len(responses) != 1 {
				t.Fatalf("expected exactly one response, got %d", len(responses))
			}
			if tc.Validate != nil {
				tc.Validate(t, responses[0])
			}
		})
	}
}

// AssertOkString asserts the response is an OkString carrying expected.
func AssertOkString(t *testing.T, r entities.Response, expected string) {
	t.Helper()
	body, ok := r.Body.(entities.OkStringBody)
	if !ok {
		t.Errorf("expected OkString, got %s", describe(r))
		return
	}
	if body.Value != expected {
		t.Errorf("expected %q, got %q", expected, body.Value)
	}
}

// AssertError asserts the response is an Error. An empty expected message
// accepts any message.
func AssertError(t *testing.T, r entities.Response, expected string) {
	t.Helper()
	body, ok := r.Body.(entities.ErrorBody)
	if !ok {
		t.Errorf("expected Error, got %s", describe(r))
		return
	}
	if expected != "" && body.Message != expected {
		t.Errorf("expected error %q, got %q", expected, body.Message)
	}
}

// AssertWebResponse asserts the response is a WebResponse with the given body.
func AssertWebResponse(t *testing.T, r entities.Response, expectedBody string) {
	t.Helper()
	body, ok := r.Body.(entities.WebResponseBody)
	if !ok {
		t.Errorf("expected WebResponse, got %s", describe(r))
		return
	}
	if body.ResponseBody != expectedBody {
		t.Errorf("expected response body %q, got %q", expectedBody, body.ResponseBody)
	}
}

// AssertJSONField asserts that an OkJSON response holds an object whose key
// field matches expected once both are seen as JSON.
func AssertJSONField(t *testing.T, r entities.Response, key string, expected any) {
	t.Helper()
	body, ok := r.Body.(entities.OkJSONBody)
	if !ok {
		t.Errorf("expected OkJSON, got %s", describe(r))
		return
	}

	// Go through the wire form so handler values compare like host-side ones.
	data, err := json.Marshal(body.Value)
	if err != nil {
		t.Errorf("marshal OkJSON value: %v", err)
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Errorf("OkJSON value is not an object: %s", data)
		return
	}

	val, ok := fields[key]
	if !ok {
		t.Errorf("missing field %q", key)
		return
	}

	if expectedNum, ok := toFloat64(expected); ok {
		if actualNum, ok := toFloat64(val); ok {
			if expectedNum != actualNum {
				t.Errorf("field %q: expected %v, got %v", key, expected, val)
			}
			return
		}
	}

	if !reflect.DeepEqual(val, expected) {
		t.Errorf("field %q: expected %v, got %v", key, expected, val)
	}
}

func describe(r entities.Response) string {
	if r.Body == nil {
		return "no body"
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return r.Body.As()
	}
	return string(data)
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
