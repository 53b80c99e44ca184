package badgerstore

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/harvestra/corpus/cache"
	"github.com/harvestra/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemoryTier()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testEntry(key string) *cache.Entry {
	now := time.Now().Truncate(time.Nanosecond)
	doc := &core.Document{
		ID:        "doc-1",
		Title:     "Q3 Report",
		Content:   "Q3 sales exceeded target by 15%",
		Source:    "pdf",
		Metadata:  map[string]string{"quarter": "Q3"},
		Embedding: []float32{0.1, 0.2, 0.3},
		Score:     0.87,
	}
	return &cache.Entry{
		Key:         key,
		Value:       cache.DocumentValue(doc),
		CreatedAt:   now,
		TTL:         time.Hour,
		Size:        128,
		AccessCount: 3,
		LastAccess:  now,
	}
}

func TestSetGet(t *testing.T) {
	s := newTestStore(t)

	in := testEntry("doc:abc")
	require.NoError(t, s.Set(in))

	out, err := s.Get("doc:abc")
	require.NoError(t, err)

	assert.Equal(t, in.Key, out.Key)
	require.NotNil(t, out.Value.Document)
	assert.Equal(t, *in.Value.Document, *out.Value.Document)
	assert.Equal(t, in.TTL, out.TTL)
	assert.Equal(t, in.Size, out.Size)
	assert.Equal(t, in.AccessCount, out.AccessCount)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("doc:ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGet_CorruptBytes(t *testing.T) {
	s := newTestStore(t)

	// Bypass the codec and write garbage directly.
	require.NoError(t, s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte("doc:rotten"), []byte{0xff, 0x01, 0x02})
	}))

	_, err := s.Get("doc:rotten")
	assert.ErrorIs(t, err, cache.ErrCorruptEntry)
}

func TestSearchResultRoundTrip(t *testing.T) {
	s := newTestStore(t)

	res := &core.SearchResult{
		Hits: []core.Hit{
			{
				Document: core.Document{
					ID: "a", Title: "A", Content: "alpha", Source: "files",
					Metadata:  map[string]string{"ext": "md"},
					Embedding: []float32{1, 0},
					Score:     0.9,
				},
				Score:   0.9,
				Sources: []string{"api", "files"},
			},
		},
		Statuses: []core.SourceStatus{
			{Name: "files", State: core.SourceOK, Hits: 1, Elapsed: 12 * time.Millisecond},
			{Name: "api", State: core.SourceTimedOut, Err: "timeout", Elapsed: 5 * time.Second},
		},
	}
	in := &cache.Entry{
		Key:       "search:xyz",
		Value:     cache.ResultValue(res),
		CreatedAt: time.Now(),
		TTL:       time.Minute,
	}
	require.NoError(t, s.Set(in))

	out, err := s.Get("search:xyz")
	require.NoError(t, err)
	require.NotNil(t, out.Value.Result)
	assert.Equal(t, *res, *out.Value.Result)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set(testEntry("doc:abc")))
	require.NoError(t, s.Delete("doc:abc"))

	_, err := s.Get("doc:abc")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Absent deletions are no-ops.
	assert.NoError(t, s.Delete("doc:abc"))
}

func TestKeysAndClear(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set(testEntry("doc:a")))
	require.NoError(t, s.Set(testEntry("doc:b")))
	require.NoError(t, s.Set(testEntry("search:c")))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc:a", "doc:b", "search:c"}, keys)

	require.NoError(t, s.Clear())
	keys, err = s.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
