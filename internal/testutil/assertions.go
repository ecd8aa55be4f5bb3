// Package testutil provides common test utilities and assertions for SDK tests
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}

// AssertWireEqual marshals resp and compares it with the expected wire JSON
func AssertWireEqual(t *testing.T, expected string, resp entities.Response, msgAndArgs ...interface{}) {
	t.Helper()

	data, err := json.Marshal(resp)
	require.NoError(t, err, "response does not marshal")
	AssertJSONEqual(t, expected, string(data), msgAndArgs...)
}
