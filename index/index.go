package index

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/harvestra/corpus/core"
)

// keywordDoc is the shape handed to bleve for the keyword half of the index.
type keywordDoc struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type entry struct {
	doc core.Document
	seq uint64 // insertion order, higher is more recent
}

// Index stores documents with their embeddings and supports cosine
// similarity search, keyword search, and a weighted hybrid of both.
// All methods are safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
	seq     uint64
	dims    int
	keyword bleve.Index
	logger  *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
	}
}

// New creates an empty index backed by a memory-only bleve keyword index.
func New(opts ...Option) (*Index, error) {
	kw, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}

	ix := &Index{
		entries: make(map[string]*entry),
		keyword: kw,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Add upserts a document. Re-adding an existing ID replaces its embedding
// and content and refreshes its recency for tie-breaking.
func (ix *Index) Add(doc core.Document) error {
	if err := core.ValidateDocument(&doc); err != nil {
		return err
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("%w: document %q has no embedding", core.ErrValidation, doc.ID)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.dims == 0 {
		ix.dims = len(doc.Embedding)
	} else if len(doc.Embedding) != ix.dims {
		return fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(doc.Embedding), ix.dims)
	}

	ix.seq++
	ix.entries[doc.ID] = &entry{doc: doc, seq: ix.seq}

	if err := ix.keyword.Index(doc.ID, keywordDoc{Title: doc.Title, Content: doc.Content}); err != nil {
		return fmt.Errorf("index keyword document %q: %w", doc.ID, err)
	}
	return nil
}

// Remove deletes a document from both halves of the index.
// Removing an unknown ID is a no-op.
func (ix *Index) Remove(id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, ok := ix.entries[id]; !ok {
		return nil
	}
	delete(ix.entries, id)
	if err := ix.keyword.Delete(id); err != nil {
		return fmt.Errorf("delete keyword document %q: %w", id, err)
	}
	return nil
}

// Get returns the indexed document by ID.
func (ix *Index) Get(id string) (core.Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	e, ok := ix.entries[id]
	if !ok {
		return core.Document{}, false
	}
	return e.doc, true
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// List returns indexed documents sorted by ID, applying offset and limit.
func (ix *Index) List(limit, offset int) []core.Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := make([]string, 0, len(ix.entries))
	for id := range ix.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset >= len(ids) {
		return nil
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	docs := make([]core.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, ix.entries[id].doc)
	}
	return docs
}

// SimilaritySearch ranks documents by cosine similarity to the query vector.
// Raw cosine in [-1,1] is rescaled to [0,1]; results below threshold are
// dropped. Equal scores rank the most recently added document first.
func (ix *Index) SimilaritySearch(vec []float32, limit int, threshold float64) ([]core.Document, error) {
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", core.ErrValidation)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.dims != 0 && len(vec) != ix.dims {
		return nil, fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(vec), ix.dims)
	}

	type scored struct {
		doc   core.Document
		score float64
		seq   uint64
	}
	matches := make([]scored, 0, len(ix.entries))
	for _, e := range ix.entries {
		score := rescale(cosine(vec, e.doc.Embedding))
		if score < threshold {
			continue
		}
		matches = append(matches, scored{doc: e.doc, score: score, seq: e.seq})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].seq > matches[j].seq
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	docs := make([]core.Document, len(matches))
	for i, m := range matches {
		docs[i] = m.doc
		docs[i].Score = m.score
	}
	return docs, nil
}

// HybridSearch blends cosine similarity against the query embedding with
// normalized keyword relevance: vecWeight*similarity + kwWeight*keyword.
// Keyword scores are divided by the best keyword score so both halves
// contribute on a [0,1] scale.
func (ix *Index) HybridSearch(q core.SearchQuery, embedding []float32, vecWeight, kwWeight float64, limit int) ([]core.Document, error) {
	if err := core.ValidateHybridWeights(vecWeight, kwWeight); err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", core.ErrValidation)
	}

	kwScores, err := ix.keywordScores(q.Normalized, limit)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.dims != 0 && len(embedding) != ix.dims {
		return nil, fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(embedding), ix.dims)
	}

	type scored struct {
		doc   core.Document
		score float64
		seq   uint64
	}
	matches := make([]scored, 0, len(ix.entries))
	for id, e := range ix.entries {
		sim := rescale(cosine(embedding, e.doc.Embedding))
		combined := vecWeight*sim + kwWeight*kwScores[id]
		if combined <= 0 {
			continue
		}
		matches = append(matches, scored{doc: e.doc, score: combined, seq: e.seq})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].seq > matches[j].seq
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	docs := make([]core.Document, len(matches))
	for i, m := range matches {
		docs[i] = m.doc
		docs[i].Score = m.score
	}
	return docs, nil
}

// keywordScores runs the bleve half and normalizes hit scores by the best
// score so the top keyword match contributes exactly 1.0.
func (ix *Index) keywordScores(q string, limit int) (map[string]float64, error) {
	if q == "" {
		return nil, nil
	}

	query := bleve.NewMatchQuery(q)
	req := bleve.NewSearchRequestOptions(query, max(limit*3, 30), 0, false)
	res, err := ix.keyword.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	scores := make(map[string]float64, len(res.Hits))
	var best float64
	for _, hit := range res.Hits {
		if hit.Score > best {
			best = hit.Score
		}
	}
	if best == 0 {
		return scores, nil
	}
	for _, hit := range res.Hits {
		scores[hit.ID] = hit.Score / best
	}
	return scores, nil
}

// Close releases the keyword index.
func (ix *Index) Close() error {
	return ix.keyword.Close()
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rescale maps cosine from [-1,1] onto [0,1], clamping numeric drift.
func rescale(c float64) float64 {
	if c < -1 {
		c = -1
	}
	if c > 1 {
		c = 1
	}
	return (c + 1) / 2
}
