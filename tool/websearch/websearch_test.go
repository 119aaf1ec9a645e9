package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, payload["q"])

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCall_FormatsResults(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, map[string]any{
		"organic": []map[string]any{
			{"title": "Go homepage", "link": "https://go.dev", "snippet": "The Go programming language"},
			{"title": "Go blog", "link": "https://go.dev/blog", "snippet": "News from the Go team"},
		},
	})

	ws := New("test-key", func(o *Options) { o.Endpoint = srv.URL })

	out, err := ws.Call(context.Background(), map[string]any{"query": "golang"})
	require.NoError(t, err)
	assert.Contains(t, out, "1. Go homepage")
	assert.Contains(t, out, "https://go.dev")
	assert.Contains(t, out, "2. Go blog")
}

func TestCall_RespectsMaxResults(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, map[string]any{
		"organic": []map[string]any{
			{"title": "one", "link": "u1", "snippet": "s1"},
			{"title": "two", "link": "u2", "snippet": "s2"},
			{"title": "three", "link": "u3", "snippet": "s3"},
		},
	})

	ws := New("test-key", func(o *Options) {
		o.Endpoint = srv.URL
		o.MaxResults = 2
	})

	out, err := ws.Call(context.Background(), map[string]any{"query": "x"})
	require.NoError(t, err)
	assert.Contains(t, out, "two")
	assert.NotContains(t, out, "three")
}

func TestCall_EmptyResults(t *testing.T) {
	srv := newFakeServer(t, http.StatusOK, map[string]any{"organic": []map[string]any{}})

	ws := New("test-key", func(o *Options) { o.Endpoint = srv.URL })

	out, err := ws.Call(context.Background(), map[string]any{"query": "obscure"})
	require.NoError(t, err)
	assert.Contains(t, out, "No web results found")
}

func TestCall_UpstreamError(t *testing.T) {
	srv := newFakeServer(t, http.StatusForbidden, map[string]any{})

	ws := New("test-key", func(o *Options) { o.Endpoint = srv.URL })

	_, err := ws.Call(context.Background(), map[string]any{"query": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestCall_MissingQuery(t *testing.T) {
	ws := New("test-key")
	_, err := ws.Call(context.Background(), map[string]any{})
	assert.Error(t, err)
}
