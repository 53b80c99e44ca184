package index

import (
	"context"
	"fmt"

	"github.com/harvestra/corpus/ai"
	"github.com/harvestra/corpus/core"
	"github.com/harvestra/corpus/source"
)

const (
	defaultVectorWeight  = 0.6
	defaultKeywordWeight = 0.4
)

// Source adapts an Index into a document source so hybrid local search
// participates in fan-out alongside remote and file sources.
type Source struct {
	name      string
	index     *Index
	embedder  ai.Embedder
	vecWeight float64
	kwWeight  float64
}

var _ source.Source = (*Source)(nil)

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithWeights sets the hybrid blend. Defaults are 0.6 vector, 0.4 keyword.
func WithWeights(vecWeight, kwWeight float64) SourceOption {
	return func(s *Source) {
		s.vecWeight = vecWeight
		s.kwWeight = kwWeight
	}
}

// NewSource creates a source view over the index.
func NewSource(name string, ix *Index, embedder ai.Embedder, opts ...SourceOption) (*Source, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", core.ErrValidation)
	}
	if ix == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Source{
		name:      name,
		index:     ix,
		embedder:  embedder,
		vecWeight: defaultVectorWeight,
		kwWeight:  defaultKeywordWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := core.ValidateHybridWeights(s.vecWeight, s.kwWeight); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the registry name of the source.
func (s *Source) Name() string { return s.name }

// Retrieve returns the indexed document by ID.
func (s *Source) Retrieve(ctx context.Context, id string) (*core.Document, error) {
	doc, ok := s.index.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: document %q", core.ErrNotFound, id)
	}
	return &doc, nil
}

// Search embeds the query and runs a hybrid search over the index.
func (s *Source) Search(ctx context.Context, q core.SearchQuery, limit int) ([]core.Document, error) {
	if s.index.Len() == 0 {
		return nil, nil
	}

	embedding, err := s.embedder.EmbedText(ctx, q.Normalized)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	docs, err := s.index.HybridSearch(q, embedding, s.vecWeight, s.kwWeight, limit)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Source = s.name
	}
	return docs, nil
}

// List enumerates indexed documents sorted by ID.
func (s *Source) List(ctx context.Context, limit, offset int) ([]core.Document, error) {
	docs := s.index.List(limit, offset)
	for i := range docs {
		docs[i].Source = s.name
	}
	return docs, nil
}

// Health reports whether the index is usable. A local index is always
// reachable, so this never fails.
func (s *Source) Health(ctx context.Context) error { return nil }
