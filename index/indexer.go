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

package index

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/harvestra/corpus/ai"
	"github.com/harvestra/corpus/core"
	"github.com/harvestra/corpus/source"
	"github.com/panjf2000/ants/v2"
)

const listPageSize = 50

// Indexer warms the index from document sources, embedding and adding
// documents concurrently over a worker pool. Per-document failures are
// logged and counted but do not abort the run.
type Indexer struct {
	index    *Index
	embedder ai.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer) error

// WithIndexerPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithIndexerPoolSize(size int) IndexerOption {
	return func(in *Indexer) error {
		if size < 1 {
			size = 1
		}
		if in.pool != nil {
			in.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		in.pool = pool
		return nil
	}
}

// WithIndexerLogger sets a custom logger.
// Default is slog.Default().
func WithIndexerLogger(logger *slog.Logger) IndexerOption {
	return func(in *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		in.logger = logger
		return nil
	}
}

// NewIndexer creates a warm-up indexer.
func NewIndexer(ix *Index, embedder ai.Embedder, opts ...IndexerOption) (*Indexer, error) {
	if ix == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	in := &Indexer{
		index:    ix,
		embedder: embedder,
		pool:     pool,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(in); optErr != nil {
			in.Release()
			return nil, optErr
		}
	}
	return in, nil
}

// IndexSource pages through a source's documents and indexes each one.
// Returns the number of documents successfully indexed.
func (in *Indexer) IndexSource(ctx context.Context, src source.Source) (int, error) {
	var (
		wg      sync.WaitGroup
		indexed atomic.Int64
		failed  atomic.Int64
	)

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			break
		}

		docs, err := src.List(ctx, listPageSize, offset)
		if err != nil {
			wg.Wait()
			return int(indexed.Load()), err
		}
		if len(docs) == 0 {
			break
		}
		offset += len(docs)

		for _, doc := range docs {
			doc := doc
			wg.Add(1)
			submitErr := in.pool.Submit(func() {
				defer wg.Done()
				if err := in.indexDocument(ctx, doc); err != nil {
					failed.Add(1)
					in.logger.Warn("failed to index document", "source", src.Name(), "id", doc.ID, "err", err)
					return
				}
				indexed.Add(1)
			})
			if submitErr != nil {
				wg.Done()
				failed.Add(1)
			}
		}

		if len(docs) < listPageSize {
			break
		}
	}

	wg.Wait()
	in.logger.Info("source indexed", "source", src.Name(),
		"indexed", indexed.Load(), "failed", failed.Load())
	return int(indexed.Load()), nil
}

// IndexDocument embeds and adds a single document.
func (in *Indexer) IndexDocument(ctx context.Context, doc core.Document) error {
	return in.indexDocument(ctx, doc)
}

func (in *Indexer) indexDocument(ctx context.Context, doc core.Document) error {
	if len(doc.Embedding) == 0 {
		embedding, err := in.embedder.EmbedText(ctx, doc.Content)
		if err != nil {
			return err
		}
		doc.Embedding = embedding
	}
	return in.index.Add(doc)
}

// Release releases the worker pool.
// The indexer should not be used after calling Release.
func (in *Indexer) Release() {
	if in.pool != nil {
		in.pool.Release()
	}
}
