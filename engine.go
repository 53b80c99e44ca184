// Copyright 2025 Harvestra
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/harvestra/corpus/aggregate"
	"github.com/harvestra/corpus/ai"
	"github.com/harvestra/corpus/ai/extract"
	"github.com/harvestra/corpus/ai/openai"
	"github.com/harvestra/corpus/cache"
	"github.com/harvestra/corpus/cache/badgerstore"
	"github.com/harvestra/corpus/core"
	"github.com/harvestra/corpus/index"
	"github.com/harvestra/corpus/query"
	"github.com/harvestra/corpus/source"
	"github.com/harvestra/corpus/source/api"
	"github.com/harvestra/corpus/source/file"
	"github.com/tmc/langchaingo/textsplitter"
)

const indexSourceName = "index"

const (
	snippetChunkSize    = 400
	snippetChunkOverlap = 50
)

// Stats summarizes engine activity.
type Stats struct {
	TotalDocuments    int
	CacheHitRate      float64
	AvgResponseMillis float64
	SourcesAvailable  int
}

// Engine is the retrieval facade: it owns the source registry, the local
// hybrid index, the query processor, the aggregator, and the result cache.
type Engine struct {
	cfg        Config
	registry   *source.Registry
	index      *index.Index
	indexer    *index.Indexer
	embedder   ai.Embedder
	extractor  ai.Extractor
	processor  *query.Processor
	aggregator *aggregate.Aggregator
	cache      *cache.Manager
	splitter   textsplitter.RecursiveCharacter
	logger     *slog.Logger

	totalNanos atomic.Int64
	requests   atomic.Int64
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// WithEmbedder injects an embedder, replacing the one built from
// Config.AI. Used by tests and by callers with their own provider.
func WithEmbedder(e ai.Embedder) EngineOption {
	return func(o *engineOptions) { o.embedder = e }
}

// WithEngineLogger sets a custom logger.
// Default is slog.Default().
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New builds an engine from the configuration. Sources are constructed and
// registered here; probing, warm-up, and seeding happen in Initialize.
func New(cfg Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	embedder := options.embedder
	if embedder == nil {
		aiCfg := cfg.AI
		if aiCfg == nil {
			aiCfg = ai.DefaultConfig()
		}
		var err error
		embedder, err = openai.NewEmbedder(aiCfg)
		if err != nil {
			return nil, err
		}
	}

	var extractor ai.Extractor
	switch cfg.Extractor {
	case ExtractorPlain:
		extractor = extract.NewPlain()
	default:
		extractor = ai.NewFallbackExtractor(extract.NewReadability(), extract.NewPlain())
	}

	registry := source.NewRegistry(
		source.WithMaxConcurrent(cfg.MaxConcurrent),
		source.WithLogger(logger),
	)

	ix, err := index.New(index.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	indexer, err := index.NewIndexer(ix, embedder, index.WithIndexerLogger(logger))
	if err != nil {
		ix.Close()
		return nil, err
	}

	cleanup := func() {
		indexer.Release()
		ix.Close()
		registry.Close()
	}

	for _, fs := range cfg.FileSources {
		src, err := file.New(fs.Name, fs.Dir, extractor, file.WithLogger(logger))
		if err != nil {
			cleanup()
			return nil, err
		}
		if err := registry.Register(src); err != nil {
			cleanup()
			return nil, err
		}
	}
	for _, as := range cfg.APISources {
		src, err := api.New(as.Name, as.BaseURL,
			api.WithAPIKey(as.APIKey),
			api.WithTimeout(cfg.SourceTimeout),
			api.WithLogger(logger),
		)
		if err != nil {
			cleanup()
			return nil, err
		}
		if err := registry.Register(src); err != nil {
			cleanup()
			return nil, err
		}
	}
	if cfg.EnableIndex {
		src, err := index.NewSource(indexSourceName, ix, embedder,
			index.WithWeights(cfg.VectorWeight, cfg.KeywordWeight))
		if err != nil {
			cleanup()
			return nil, err
		}
		if err := registry.Register(src); err != nil {
			cleanup()
			return nil, err
		}
	}

	fingerprint := aggregate.ByContent
	if cfg.FingerprintStrategy == FingerprintID {
		fingerprint = aggregate.ByID
	}
	aggregator, err := aggregate.New(registry,
		aggregate.WithSourceTimeout(cfg.SourceTimeout),
		aggregate.WithFingerprint(fingerprint),
		aggregate.WithLogger(logger),
	)
	if err != nil {
		cleanup()
		return nil, err
	}

	var store cache.Tier
	if cfg.CacheDir == "" {
		store, err = badgerstore.NewMemoryTier()
	} else {
		store, err = badgerstore.Open(cfg.CacheDir, false)
	}
	if err != nil {
		cleanup()
		return nil, err
	}

	manager, err := cache.NewManager(store,
		cache.WithCapacity(cfg.CacheCapacity),
		cache.WithPolicy(cfg.EvictionPolicy),
		cache.WithTTL("doc", cfg.DocumentTTL),
		cache.WithTTL("search", cfg.SearchTTL),
		cache.WithManagerLogger(logger),
	)
	if err != nil {
		store.Close()
		cleanup()
		return nil, err
	}

	return &Engine{
		cfg:        cfg,
		registry:   registry,
		index:      ix,
		indexer:    indexer,
		embedder:   embedder,
		extractor:  extractor,
		processor:  query.NewProcessor(query.DefaultOptions()),
		aggregator: aggregator,
		cache:      manager,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(snippetChunkSize),
			textsplitter.WithChunkOverlap(snippetChunkOverlap),
		),
		logger: logger,
	}, nil
}

// Initialize probes every source, seeds sample documents if configured,
// and optionally warms the local index from the other sources.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.cfg.SeedDocs {
		for _, fs := range e.cfg.FileSources {
			n, err := SeedSampleDocuments(fs.Dir)
			if err != nil {
				return fmt.Errorf("seed %s: %w", fs.Name, err)
			}
			if n > 0 {
				e.logger.Info("seeded sample documents", "source", fs.Name, "count", n)
			}
		}
	}

	e.registry.ProbeAll(ctx)
	if e.registry.HealthyCount() == 0 {
		return fmt.Errorf("%w: no healthy sources after probing", core.ErrSourceUnavailable)
	}

	if e.cfg.WarmIndex && e.cfg.EnableIndex {
		for _, src := range e.registry.Healthy() {
			if src.Name() == indexSourceName {
				continue
			}
			n, err := e.indexer.IndexSource(ctx, src)
			if err != nil {
				e.logger.Warn("warm-up indexing failed", "source", src.Name(), "err", err)
				continue
			}
			e.logger.Info("warmed index", "source", src.Name(), "documents", n)
		}
	}
	return nil
}

// GetDocument returns the content of the document with the given ID,
// consulting the cache before asking the sources in registration order.
func (e *Engine) GetDocument(ctx context.Context, id string) (string, error) {
	defer e.observe(time.Now())

	if id == "" {
		return "", core.ErrEmptyDocumentID
	}

	key := cache.Key("doc", id)
	v, _, err := e.cache.GetOrLoad(ctx, key, func(ctx context.Context) (cache.Value, error) {
		doc, err := e.aggregator.Retrieve(ctx, id)
		if err != nil {
			return cache.Value{}, err
		}
		return cache.DocumentValue(doc), nil
	})
	if err != nil {
		return "", err
	}
	return v.Document.Content, nil
}

// SearchDocuments runs the raw query through the processor and fans it out
// to every healthy source, returning the merged ranking.
func (e *Engine) SearchDocuments(ctx context.Context, raw string, limit int) ([]core.Hit, error) {
	res, err := e.search(ctx, raw, "", limit)
	if err != nil {
		return nil, err
	}
	return res.Hits, nil
}

// RelevantDocuments returns one snippet per matching document: the chunk
// of its content that best overlaps the processed query terms.
func (e *Engine) RelevantDocuments(ctx context.Context, raw, qctx string) ([]string, error) {
	res, err := e.search(ctx, raw, qctx, 10)
	if err != nil {
		return nil, err
	}

	q := e.processor.Process(raw, qctx, 10)
	snippets := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		snippets = append(snippets, e.snippet(hit.Document.Content, q.Terms))
	}
	return snippets, nil
}

func (e *Engine) search(ctx context.Context, raw, qctx string, limit int) (*core.SearchResult, error) {
	defer e.observe(time.Now())

	q := e.processor.Process(raw, qctx, limit)
	q.MinScore = e.cfg.SimilarityThreshold

	key := cache.Key("search", q.Canonical())
	v, cached, err := e.cache.GetOrLoad(ctx, key, func(ctx context.Context) (cache.Value, error) {
		res, err := e.aggregator.Search(ctx, q, nil, limit)
		if err != nil {
			return cache.Value{}, err
		}
		return cache.ResultValue(res), nil
	})
	if err != nil {
		return nil, err
	}
	if cached {
		e.logger.Debug("search served from cache", "query", q.Normalized)
	}
	return v.Result, nil
}

// snippet picks the content chunk with the highest term overlap. Falls back
// to the first chunk, and to the whole content if splitting fails.
func (e *Engine) snippet(content string, terms []string) string {
	chunks, err := e.splitter.SplitText(content)
	if err != nil || len(chunks) == 0 {
		return content
	}

	best := chunks[0]
	bestScore := query.OverlapScore(best, terms)
	for _, chunk := range chunks[1:] {
		if score := query.OverlapScore(chunk, terms); score > bestScore {
			best, bestScore = chunk, score
		}
	}
	return best
}

// Stats reports document counts, cache effectiveness, and mean latency.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	total, err := e.countDocuments(ctx)
	if err != nil {
		return Stats{}, err
	}

	cs := e.cache.Stats()
	s := Stats{
		TotalDocuments:   total,
		CacheHitRate:     cs.HitRate(),
		SourcesAvailable: e.registry.HealthyCount(),
	}
	if n := e.requests.Load(); n > 0 {
		s.AvgResponseMillis = float64(e.totalNanos.Load()) / float64(n) / float64(time.Millisecond)
	}
	return s, nil
}

// countDocuments sums document counts across the non-index sources; the
// local index only mirrors them. An index-only engine counts the index.
func (e *Engine) countDocuments(ctx context.Context) (int, error) {
	total := 0
	counted := false
	for _, src := range e.registry.Healthy() {
		if src.Name() == indexSourceName {
			continue
		}
		counted = true
		for offset := 0; ; {
			docs, err := src.List(ctx, 100, offset)
			if err != nil {
				e.logger.Warn("failed to count documents", "source", src.Name(), "err", err)
				break
			}
			total += len(docs)
			if len(docs) < 100 {
				break
			}
			offset += len(docs)
		}
	}
	if !counted {
		total = e.index.Len()
	}
	return total, nil
}

// ClearCache drops every cached entry.
func (e *Engine) ClearCache() error {
	return e.cache.Clear()
}

// InvalidatePattern removes cached entries whose keys match the glob
// pattern, e.g. "search:*". Returns the number removed.
func (e *Engine) InvalidatePattern(pattern string) (int, error) {
	return e.cache.Invalidate(pattern)
}

// Registry exposes the source registry for probing and registration of
// additional sources before Initialize.
func (e *Engine) Registry() *source.Registry {
	return e.registry
}

// Close releases the cache, the index, and every source pool.
func (e *Engine) Close() error {
	e.indexer.Release()
	if err := e.cache.Close(); err != nil {
		e.logger.Error("error closing cache", "err", err)
		return err
	}
	if err := e.index.Close(); err != nil {
		e.logger.Error("error closing index", "err", err)
		return err
	}
	e.registry.Close()
	return nil
}

func (e *Engine) observe(start time.Time) {
	e.totalNanos.Add(int64(time.Since(start)))
	e.requests.Add(1)
}
