package corpus

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/harvestra/corpus/ai/mock"
	"github.com/harvestra/corpus/cache"
	"github.com/harvestra/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.FileSources = []FileSource{{Name: "files", Dir: t.TempDir()}}
	cfg.SeedDocs = true
	cfg.WarmIndex = true
	cfg.SimilarityThreshold = 0.1
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New(cfg, WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	require.NoError(t, engine.Initialize(context.Background()))
	return engine
}

func TestConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("no sources at all", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EnableIndex = false
		assert.ErrorIs(t, cfg.Validate(), core.ErrValidation)
	})

	t.Run("bad eviction policy", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EvictionPolicy = "random"
		assert.ErrorIs(t, cfg.Validate(), cache.ErrInvalidPolicy)
	})

	t.Run("bad hybrid weights", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.VectorWeight = 0.8
		cfg.KeywordWeight = 0.5
		assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidWeights)
	})

	t.Run("bad fingerprint strategy", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FingerprintStrategy = "hash"
		assert.ErrorIs(t, cfg.Validate(), core.ErrValidation)
	})
}

func TestEngine_GetDocument(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		content, err := engine.GetDocument(ctx, "sales_report_q3_2025")
		require.NoError(t, err)
		assert.Contains(t, content, "exceeded target by 15%")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := engine.GetDocument(ctx, "no_such_document")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := engine.GetDocument(ctx, "")
		assert.ErrorIs(t, err, core.ErrEmptyDocumentID)
	})
}

func TestEngine_SearchDocuments(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()

	t.Run("finds seeded reports", func(t *testing.T) {
		hits, err := engine.SearchDocuments(ctx, "sales target", 5)
		require.NoError(t, err)
		require.NotEmpty(t, hits)

		found := false
		for _, hit := range hits {
			if strings.Contains(strings.ToLower(hit.Document.Content), "sales") {
				found = true
			}
		}
		assert.True(t, found, "expected a sales report among the hits")
	})

	t.Run("corrects misspellings", func(t *testing.T) {
		hits, err := engine.SearchDocuments(ctx, "slaes target", 5)
		require.NoError(t, err)
		assert.NotEmpty(t, hits)
	})

	t.Run("caches repeated queries", func(t *testing.T) {
		_, err := engine.SearchDocuments(ctx, "remote work policy", 5)
		require.NoError(t, err)

		before := engine.cache.Stats().Hits
		_, err = engine.SearchDocuments(ctx, "remote work policy", 5)
		require.NoError(t, err)
		assert.Greater(t, engine.cache.Stats().Hits, before)
	})
}

func TestEngine_RelevantDocuments(t *testing.T) {
	engine := newTestEngine(t, nil)

	snippets, err := engine.RelevantDocuments(context.Background(), "sales target", "quarterly")
	require.NoError(t, err)
	require.NotEmpty(t, snippets)
	for _, s := range snippets {
		assert.NotEmpty(t, s)
	}
}

func TestEngine_Stats(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := engine.SearchDocuments(ctx, "sales target", 5)
	require.NoError(t, err)
	_, err = engine.SearchDocuments(ctx, "sales target", 5)
	require.NoError(t, err)

	stats, err := engine.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, len(sampleDocs), stats.TotalDocuments)
	assert.Equal(t, 2, stats.SourcesAvailable) // files + index
	assert.Greater(t, stats.CacheHitRate, 0.0)
	assert.Greater(t, stats.AvgResponseMillis, 0.0)
}

func TestEngine_CacheControls(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := engine.SearchDocuments(ctx, "sales target", 5)
	require.NoError(t, err)
	_, err = engine.GetDocument(ctx, "sales_report_q3_2025")
	require.NoError(t, err)

	t.Run("invalidate by pattern", func(t *testing.T) {
		removed, err := engine.InvalidatePattern("search:*")
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		// Document entries survive a search-only invalidation.
		stats := engine.cache.Stats()
		assert.Equal(t, 1, stats.Entries)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, engine.ClearCache())
		assert.Equal(t, 0, engine.cache.Stats().Entries)
	})
}

func TestSeedSampleDocuments(t *testing.T) {
	dir := t.TempDir()

	n, err := SeedSampleDocuments(dir)
	require.NoError(t, err)
	assert.Equal(t, len(sampleDocs), n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, len(sampleDocs))

	t.Run("non-empty directory untouched", func(t *testing.T) {
		n, err := SeedSampleDocuments(dir)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("content covers the dedup demo query", func(t *testing.T) {
		raw, err := os.ReadFile(dir + "/sales_report_q3_2025.md")
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(raw), "Q3 sales exceeded target by 15%"))
	})
}
