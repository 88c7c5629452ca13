package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pte/internal/config"
	"pte/pkg/logging"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetSendsLogIDHeader(t *testing.T) {
	logger := logging.NewLogger()
	logID := logging.NewLogID()
	logger.SetLogID(logID)

	var gotLogID, gotContentType string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotLogID = r.Header.Get("logId")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"users": [], "count": 0}`))
	})

	c := NewClient(srv.URL, WithLogger(logger))
	resp, err := c.Get(context.Background(), "/api/users", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, resp.StatusCode)
	assert.Equal(t, logID, gotLogID)
	assert.Equal(t, ContentTypeJSON, gotContentType)
}

func TestPostEncodesJSONBody(t *testing.T) {
	var received map[string]any
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 4}`))
	})

	c := NewClient(srv.URL)
	resp, err := c.Post(context.Background(), "/api/users", map[string]any{
		"name":  "John Smith",
		"email": "john.smith@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, resp.StatusCode)
	assert.Equal(t, "John Smith", received["name"])
	assert.Equal(t, "john.smith@example.com", received["email"])
}

func TestGetWithQueryParams(t *testing.T) {
	var gotQuery url.Values
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{}`))
	})

	c := NewClient(srv.URL)
	_, err := c.Get(context.Background(), "/api/users", url.Values{"limit": {"10"}})
	require.NoError(t, err)
	assert.Equal(t, "10", gotQuery.Get("limit"))
}

func TestVerbsReachServer(t *testing.T) {
	var gotMethod string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{}`))
	})
	c := NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.Put(ctx, "/api/users/1", map[string]any{"age": 26})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)

	_, err = c.Patch(ctx, "/api/users/1", map[string]any{"age": 27})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)

	_, err = c.Delete(ctx, "/api/users/1", nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestResponseJSONMap(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "healthy", "count": 3}`))
	})
	c := NewClient(srv.URL)

	resp, err := c.Get(context.Background(), "/api/health", nil)
	require.NoError(t, err)

	m, err := resp.JSONMap()
	require.NoError(t, err)
	assert.Equal(t, "healthy", m["status"])
	assert.Equal(t, float64(3), m["count"])
}

func TestResponseJSONDecodeError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})
	c := NewClient(srv.URL)

	resp, err := c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	_, err = resp.JSONMap()
	assert.ErrorContains(t, err, "failed to decode response body")
}

func TestRequestLoggedWithElapsedTime(t *testing.T) {
	logger := logging.NewLogger()
	id := logging.NewLogID()
	logger.SetLogID(id)

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	c := NewClient(srv.URL, WithLogger(logger))

	_, err := c.Get(context.Background(), "/api/users", nil)
	require.NoError(t, err)

	lines := logger.BufferedLines(id)
	require.NotEmpty(t, lines)
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "API GET")
	assert.Contains(t, joined, "-> 200")
}

func TestTransportErrorReported(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", WithTimeout(200*time.Millisecond))
	_, err := c.Get(context.Background(), "/api/users", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET http://127.0.0.1:1/api/users")
}

func TestNewClientFromConfig(t *testing.T) {
	var gotEnv, gotUA string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotEnv = r.Header.Get(HeaderEnvironment)
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{}`))
	})

	cfg := config.Resolved{
		Host:       srv.URL,
		Env:        "staging",
		Timeout:    5,
		RetryCount: 2,
		Headers:    map[string]string{"User-Agent": DefaultUserAgent},
	}
	c := NewClientFromConfig(cfg)
	require.Equal(t, 2, c.RetryCount())

	_, err := c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "staging", gotEnv)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestTruncate(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	out := truncate(long, maxLoggedBody)
	assert.Len(t, out, maxLoggedBody+len("... (truncated)"))
	assert.Equal(t, "short", truncate([]byte("short"), maxLoggedBody))
}
