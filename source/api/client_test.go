package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harvestra/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New("kb", srv.URL, WithMaxRetries(2))
	require.NoError(t, err)
	return srv, client
}

func TestNew(t *testing.T) {
	t.Run("requires name", func(t *testing.T) {
		_, err := New("", "http://localhost:9999")
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("requires http base url", func(t *testing.T) {
		_, err := New("kb", "localhost:9999")
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		c, err := New("kb", "http://localhost:9999/")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9999", c.baseURL)
	})
}

func TestRetrieve(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/documents/doc-1":
			json.NewEncoder(w).Encode(apiDocument{
				ID:             "doc-1",
				Title:          "Q3 Report",
				Content:        "Q3 sales exceeded target by 15%",
				Metadata:       map[string]string{"quarter": "Q3"},
				RelevanceScore: 0.9,
			})
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc, err := client.Retrieve(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
		assert.Equal(t, "kb", doc.Source)
		assert.Equal(t, "Q3", doc.Metadata["quarter"])
		assert.Equal(t, 0.9, doc.Score)
	})

	t.Run("missing maps to ErrNotFound without retry", func(t *testing.T) {
		_, err := client.Retrieve(ctx, "missing")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestRetrieve_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(apiDocument{ID: "doc-1", Content: "body"})
	})

	doc, err := client.Retrieve(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSearch(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "sales target", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(envelope{
			Documents: []apiDocument{
				{ID: "a", Content: "first", RelevanceScore: 0.8},
				{ID: "b", Content: "second", RelevanceScore: 1.7}, // clamped
				{ID: "c", Content: "third", RelevanceScore: -0.2}, // clamped
			},
			TotalCount: 3,
		})
	})

	q := core.SearchQuery{Normalized: "sales target", Terms: []string{"sales", "target"}}
	docs, err := client.Search(context.Background(), q, 10)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, 0.8, docs[0].Score)
	assert.Equal(t, 1.0, docs[1].Score)
	assert.Equal(t, 0.0, docs[2].Score)
}

func TestSearch_RespectsLimit(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(envelope{
			Documents: []apiDocument{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		})
	})

	q := core.SearchQuery{Normalized: "anything"}
	docs, err := client.Search(context.Background(), q, 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestList(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "50", r.URL.Query().Get("offset"))
		json.NewEncoder(w).Encode(envelope{
			Documents: []apiDocument{{ID: "x", Content: "doc"}},
			HasMore:   false,
		})
	})

	docs, err := client.List(context.Background(), 25, 50)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "kb", docs[0].Source)
}

func TestHealth(t *testing.T) {
	healthy := atomic.Bool{}
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Error(t, client.Health(context.Background()))

	healthy.Store(true)
	assert.NoError(t, client.Health(context.Background()))
}

func TestErrorMapping(t *testing.T) {
	t.Run("connection refused maps to ErrSourceUnavailable", func(t *testing.T) {
		client, err := New("kb", "http://127.0.0.1:1", WithMaxRetries(1))
		require.NoError(t, err)

		_, err = client.Retrieve(context.Background(), "doc-1")
		assert.ErrorIs(t, err, core.ErrSourceUnavailable)
	})

	t.Run("deadline maps to ErrTimeout", func(t *testing.T) {
		_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := client.Retrieve(ctx, "doc-1")
		assert.ErrorIs(t, err, core.ErrTimeout)
	})
}
