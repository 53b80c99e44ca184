package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harvestra/corpus/ai/mock"
	"github.com/harvestra/corpus/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestNew(t *testing.T) {
	extractor := mock.NewMockExtractor()

	t.Run("valid directory", func(t *testing.T) {
		src, err := New("docs", t.TempDir(), extractor)
		require.NoError(t, err)
		assert.Equal(t, "docs", src.Name())
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := New("docs", filepath.Join(t.TempDir(), "absent"), extractor)
		assert.Error(t, err)
	})

	t.Run("nil extractor", func(t *testing.T) {
		_, err := New("docs", t.TempDir(), nil)
		assert.Error(t, err)
	})
}

func TestRetrieve(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"report.md":  "# Q3 Report\n\nSales exceeded target.",
		"note.txt":   "plain note",
		"ignore.bin": "binary",
	})
	src, err := New("docs", dir, mock.NewMockExtractor())
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("markdown document", func(t *testing.T) {
		doc, err := src.Retrieve(ctx, "report")
		require.NoError(t, err)
		assert.Equal(t, "report", doc.ID)
		assert.Equal(t, "Q3 Report", doc.Title)
		assert.Equal(t, "docs", doc.Source)
		assert.Equal(t, "md", doc.Metadata["ext"])
	})

	t.Run("plain text document", func(t *testing.T) {
		doc, err := src.Retrieve(ctx, "note")
		require.NoError(t, err)
		assert.Equal(t, "note", doc.Title)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := src.Retrieve(ctx, "missing")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("unsupported extension is invisible", func(t *testing.T) {
		_, err := src.Retrieve(ctx, "ignore")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestSearch(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"sales.md":   "Q3 sales exceeded target by 15%",
		"retro.md":   "Project Phoenix retrospective review",
		"ends.md":    "sales forecast review",
		"policy.txt": "remote work policy",
	})
	src, err := New("docs", dir, mock.NewMockExtractor())
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("ranks by overlap", func(t *testing.T) {
		q := core.SearchQuery{Normalized: "sales target", Terms: []string{"sales", "target"}}
		docs, err := src.Search(ctx, q, 10)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "sales", docs[0].ID)
		assert.Equal(t, 1.0, docs[0].Score)
		assert.Equal(t, "ends", docs[1].ID)
		assert.Equal(t, 0.5, docs[1].Score)
	})

	t.Run("zero scores omitted", func(t *testing.T) {
		q := core.SearchQuery{Normalized: "unrelated", Terms: []string{"unrelated"}}
		docs, err := src.Search(ctx, q, 10)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("boost terms break ties", func(t *testing.T) {
		q := core.SearchQuery{
			Normalized: "review quantum",
			Terms:      []string{"review", "quantum"},
			Boosts:     []string{"forecast"},
		}
		docs, err := src.Search(ctx, q, 10)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "ends", docs[0].ID)
		assert.Greater(t, docs[0].Score, docs[1].Score)
	})

	t.Run("respects limit", func(t *testing.T) {
		q := core.SearchQuery{Normalized: "sales", Terms: []string{"sales"}}
		docs, err := src.Search(ctx, q, 1)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}

func TestList(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"a.md": "alpha",
		"b.md": "beta",
		"c.md": "gamma",
	})
	src, err := New("docs", dir, mock.NewMockExtractor())
	require.NoError(t, err)

	ctx := context.Background()

	docs, err := src.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	rest, err := src.List(ctx, 10, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "c", rest[0].ID)

	empty, err := src.List(ctx, 10, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHealth(t *testing.T) {
	dir := t.TempDir()
	src, err := New("docs", dir, mock.NewMockExtractor())
	require.NoError(t, err)

	assert.NoError(t, src.Health(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.ErrorIs(t, src.Health(context.Background()), core.ErrSourceUnavailable)
}
