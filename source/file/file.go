package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harvestra/corpus/ai"
	"github.com/harvestra/corpus/core"
	"github.com/harvestra/corpus/query"
	"github.com/harvestra/corpus/source"
)

// Extensions the corpus recognizes, in Retrieve probe order.
var extensions = []string{".txt", ".md", ".html", ".htm"}

// Source serves documents from a flat directory of text-bearing files.
// Document ids are file names without the extension.
type Source struct {
	name      string
	dir       string
	extractor ai.Extractor
	logger    *slog.Logger
}

var _ source.Source = (*Source)(nil)

// Option configures a file Source.
type Option func(*Source)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a file-backed source reading from dir. extractor turns raw
// file bytes into text; pair a readability extractor with a plain-text
// fallback to cover both HTML and text files.
func New(name, dir string, extractor ai.Extractor, opts ...Option) (*Source, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", core.ErrValidation)
	}
	if extractor == nil {
		return nil, fmt.Errorf("%w: nil extractor", core.ErrValidation)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrSourceUnavailable, dir)
	}

	s := &Source{
		name:      name,
		dir:       dir,
		extractor: extractor,
		logger:    slog.Default().With("source", name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the registry name of the source.
func (s *Source) Name() string { return s.name }

// Retrieve loads a document by id, probing the recognized extensions in
// order.
func (s *Source) Retrieve(ctx context.Context, id string) (*core.Document, error) {
	for _, ext := range extensions {
		path := filepath.Join(s.dir, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return s.load(ctx, path)
	}
	return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
}

// Search scores every document in the corpus by query-term overlap. Scores
// are in [0,1]; zero-scoring documents are omitted. Ties are broken by id so
// repeated searches return identical ordering.
func (s *Source) Search(ctx context.Context, q core.SearchQuery, limit int) ([]core.Document, error) {
	names, err := s.fileNames()
	if err != nil {
		return nil, err
	}

	var results []core.Document
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.load(ctx, filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Debug("skipping unreadable file", "file", name, "err", err)
			continue
		}

		score := query.OverlapScore(doc.Content, q.Terms)
		if score == 0 {
			continue
		}
		if len(q.Boosts) > 0 {
			score += 0.2 * query.OverlapScore(doc.Content, q.Boosts)
			if score > 1 {
				score = 1
			}
		}

		doc.Score = score
		results = append(results, *doc)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// List enumerates documents in file-name order.
func (s *Source) List(ctx context.Context, limit, offset int) ([]core.Document, error) {
	names, err := s.fileNames()
	if err != nil {
		return nil, err
	}

	if offset >= len(names) {
		return nil, nil
	}
	names = names[offset:]
	if len(names) > limit {
		names = names[:limit]
	}

	docs := make([]core.Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.load(ctx, filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Debug("skipping unreadable file", "file", name, "err", err)
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Health verifies the corpus directory is still readable.
func (s *Source) Health(_ context.Context) error {
	if _, err := os.ReadDir(s.dir); err != nil {
		return fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}
	return nil
}

func (s *Source) fileNames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Source) load(ctx context.Context, path string) (*core.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}

	text, err := s.extractor.Extract(ctx, raw)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceUnavailable, err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	id := strings.TrimSuffix(base, ext)

	doc := &core.Document{
		ID:      id,
		Title:   titleFor(id, text),
		Content: text,
		Source:  s.name,
		Metadata: map[string]string{
			"path":     path,
			"ext":      strings.TrimPrefix(ext, "."),
			"modified": info.ModTime().UTC().Format(time.RFC3339),
		},
	}
	return doc, nil
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// titleFor prefers a leading markdown heading, falling back to the id.
func titleFor(id, text string) string {
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	if heading := strings.TrimLeft(line, "# "); heading != "" && strings.HasPrefix(line, "#") {
		return heading
	}
	return id
}
