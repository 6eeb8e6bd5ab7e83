package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taheris/bad-write-retry-example/domain/entities"
)

// DefaultWait bounds how long assertions wait for a result.
const DefaultWait = 10 * time.Second

// RequireResult receives one response from results or fails the test after
// wait.
func RequireResult(t *testing.T, results <-chan entities.HTTPResponse, wait time.Duration) entities.HTTPResponse {
	t.Helper()

	select {
	case resp, ok := <-results:
		require.True(t, ok, "result channel closed without a response")
		return resp
	case <-time.After(wait):
		require.FailNow(t, "timed out waiting for a response", "waited %s", wait)
		return entities.HTTPResponse{}
	}
}

// RequireSingleResult receives exactly one response and asserts that the
// channel is closed afterwards.
func RequireSingleResult(t *testing.T, results <-chan entities.HTTPResponse) entities.HTTPResponse {
	t.Helper()

	resp := RequireResult(t, results, DefaultWait)
	select {
	case extra, ok := <-results:
		assert.False(t, ok, "unexpected second response: %+v", extra)
	case <-time.After(DefaultWait):
		assert.Fail(t, "result channel was not closed after the response")
	}
	return resp
}

// RequireEcho asserts a successful response whose echoed "data" equals want.
func RequireEcho(t *testing.T, resp entities.HTTPResponse, want string) EchoPayload {
	t.Helper()

	require.False(t, resp.Failed(), "unexpected failure: %s", resp.Text())

	var payload EchoPayload
	require.NoError(t, json.Unmarshal(resp.Body, &payload), "response body is not JSON")
	assert.Equal(t, want, payload.Data)
	return payload
}

// AssertFailedWith asserts a failed response whose description contains
// substr.
func AssertFailedWith(t *testing.T, resp entities.HTTPResponse, substr string) bool {
	t.Helper()

	if !assert.True(t, resp.Failed(), "expected a failure, got body %q", resp.Body) {
		return false
	}
	return assert.Contains(t, resp.Text(), substr)
}
