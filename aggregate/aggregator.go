package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/harvestra/corpus/core"
	"github.com/harvestra/corpus/source"
	"golang.org/x/sync/errgroup"
)

const defaultSourceTimeout = 5 * time.Second

// FingerprintFunc derives the dedup identity of a document.
type FingerprintFunc func(doc core.Document) core.Fingerprint

// ByContent fingerprints normalized document content, so the same text
// surfaced by different sources under different IDs merges into one hit.
func ByContent(doc core.Document) core.Fingerprint {
	return core.FingerprintContent(doc.Content)
}

// ByID fingerprints the document ID, for corpora where IDs are already
// globally unique and content-identical documents must stay distinct.
func ByID(doc core.Document) core.Fingerprint {
	return core.FingerprintID(doc.ID)
}

// Aggregator runs queries across the registry's sources and merges the
// results. It is stateless per request and safe for concurrent use.
type Aggregator struct {
	registry    *source.Registry
	timeout     time.Duration
	fingerprint FingerprintFunc
	logger      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSourceTimeout sets the per-source deadline applied during fan-out.
// Default is 5s.
func WithSourceTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithFingerprint sets the dedup identity function.
// Default is ByContent.
func WithFingerprint(fn FingerprintFunc) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.fingerprint = fn
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// New creates an aggregator over the given registry.
func New(registry *source.Registry, opts ...Option) (*Aggregator, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}

	a := &Aggregator{
		registry:    registry,
		timeout:     defaultSourceTimeout,
		fingerprint: ByContent,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// outcome is one source's contribution to a fan-out.
type outcome struct {
	pos    int
	status core.SourceStatus
	docs   []core.Document
}

// Search fans the query out to the named sources, or to every healthy
// source when sourceNames is nil. Merging starts only after every source
// has responded or timed out, so a slow source delays but never excludes
// the others' results. Returns ErrTimeout when no source completed.
func (a *Aggregator) Search(ctx context.Context, q core.SearchQuery, sourceNames []string, limit int) (*core.SearchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit %d", core.ErrInvalidLimit, limit)
	}
	q.Limit = limit
	if err := core.ValidateQuery(q); err != nil {
		return nil, err
	}

	sources, err := a.resolve(sourceNames)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no sources available", core.ErrSourceUnavailable)
	}

	outcomes := make(chan outcome, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			outcomes <- a.searchOne(gctx, src, i, q, limit)
			return nil
		})
	}
	g.Wait()
	close(outcomes)

	statuses := make([]core.SourceStatus, len(sources))
	var collected []outcome
	for out := range outcomes {
		statuses[out.pos] = out.status
		collected = append(collected, out)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].pos < collected[j].pos })

	completed := 0
	for _, st := range statuses {
		if st.State != core.SourceTimedOut {
			completed++
		}
	}
	if completed == 0 {
		return nil, fmt.Errorf("%w: all sources timed out", core.ErrTimeout)
	}

	hits := a.merge(collected, q, limit)
	return &core.SearchResult{Hits: hits, Statuses: statuses}, nil
}

// searchOne runs one source's search under the per-source timeout through
// its bounded pool and classifies the outcome.
func (a *Aggregator) searchOne(ctx context.Context, src source.Source, pos int, q core.SearchQuery, limit int) outcome {
	sctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type reply struct {
		docs []core.Document
		err  error
	}
	// Buffered so a task that outlives its deadline can still deliver and
	// exit. The task shares nothing with this goroutine; once Do reports a
	// timeout its eventual result is never read.
	replies := make(chan reply, 1)

	start := time.Now()
	doErr := a.registry.Do(sctx, src.Name(), func() {
		docs, err := src.Search(sctx, q, limit)
		replies <- reply{docs: docs, err: err}
	})

	var (
		docs    []core.Document
		callErr error
	)
	if doErr == nil {
		r := <-replies
		docs, callErr = r.docs, r.err
	}

	status := core.SourceStatus{Name: src.Name(), Elapsed: time.Since(start)}
	switch {
	case doErr != nil || isTimeout(callErr):
		status.State = core.SourceTimedOut
		status.Err = "timeout"
		a.logger.Warn("source timed out", "source", src.Name(), "elapsed", status.Elapsed)
		docs = nil
	case callErr != nil:
		status.State = core.SourceErrored
		status.Err = callErr.Error()
		a.logger.Warn("source search failed", "source", src.Name(), "err", callErr)
		docs = nil
	default:
		status.State = core.SourceOK
		status.Hits = len(docs)
	}
	return outcome{pos: pos, status: status, docs: docs}
}

// merge deduplicates by fingerprint, applies metadata filters and the score
// threshold, and ranks. Ties rank by fingerprint so ordering never depends
// on source arrival order.
func (a *Aggregator) merge(collected []outcome, q core.SearchQuery, limit int) []core.Hit {
	merged := make(map[core.Fingerprint]*core.Hit)
	order := make([]core.Fingerprint, 0)

	for _, out := range collected {
		for _, doc := range out.docs {
			if excludedByFilters(doc, q.Filters) {
				continue
			}

			fp := a.fingerprint(doc)
			hit, ok := merged[fp]
			if !ok {
				h := core.Hit{Document: doc, Score: doc.Score, Sources: []string{doc.Source}}
				merged[fp] = &h
				order = append(order, fp)
				continue
			}

			hit.Sources = appendUnique(hit.Sources, doc.Source)
			if doc.Score > hit.Score {
				// Higher-score instance wins the document body and any
				// conflicting metadata keys.
				hit.Document = mergeMetadata(doc, hit.Document)
				hit.Score = doc.Score
			} else {
				hit.Document = mergeMetadata(hit.Document, doc)
			}
		}
	}

	hits := make([]core.Hit, 0, len(merged))
	for _, fp := range order {
		hit := merged[fp]
		if hit.Score < q.MinScore {
			continue
		}
		sort.Strings(hit.Sources)
		hits = append(hits, *hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return a.fingerprint(hits[i].Document) < a.fingerprint(hits[j].Document)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Retrieve looks the document up source by source in registration order and
// returns the first success. ErrNotFound means at least one source answered
// and none had the document; ErrSourceUnavailable means no source could be
// asked at all.
func (a *Aggregator) Retrieve(ctx context.Context, id string) (*core.Document, error) {
	if id == "" {
		return nil, core.ErrEmptyDocumentID
	}

	sources := a.registry.Healthy()
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no sources available", core.ErrSourceUnavailable)
	}

	confirmedAbsent := false
	for _, src := range sources {
		sctx, cancel := context.WithTimeout(ctx, a.timeout)

		type reply struct {
			doc *core.Document
			err error
		}
		replies := make(chan reply, 1)
		doErr := a.registry.Do(sctx, src.Name(), func() {
			d, err := src.Retrieve(sctx, id)
			replies <- reply{doc: d, err: err}
		})
		cancel()

		var (
			doc     *core.Document
			callErr error
		)
		if doErr == nil {
			r := <-replies
			doc, callErr = r.doc, r.err
		}

		switch {
		case doErr != nil:
			a.logger.Debug("retrieve timed out", "source", src.Name(), "id", id)
		case callErr == nil:
			return doc, nil
		case errors.Is(callErr, core.ErrNotFound):
			confirmedAbsent = true
		default:
			a.logger.Debug("retrieve failed", "source", src.Name(), "id", id, "err", callErr)
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrTimeout, err)
		}
	}

	if confirmedAbsent {
		return nil, fmt.Errorf("%w: document %q", core.ErrNotFound, id)
	}
	return nil, fmt.Errorf("%w: document %q could not be confirmed absent", core.ErrSourceUnavailable, id)
}

// resolve maps nil to the healthy set and explicit names to registry lookups.
func (a *Aggregator) resolve(sourceNames []string) ([]source.Source, error) {
	if sourceNames == nil {
		return a.registry.Healthy(), nil
	}
	out := make([]source.Source, 0, len(sourceNames))
	for _, name := range sourceNames {
		src, err := a.registry.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, core.ErrTimeout)
}

// excludedByFilters drops documents whose metadata contradicts a filter.
// Documents missing the filter key pass through; only an explicit mismatch
// excludes.
func excludedByFilters(doc core.Document, filters map[string]string) bool {
	if len(filters) == 0 || len(doc.Metadata) == 0 {
		return false
	}
	for key, want := range filters {
		if got, ok := doc.Metadata[key]; ok && got != want {
			return true
		}
	}
	return false
}

// mergeMetadata unions loser's metadata into winner, keeping winner's value
// on key collisions. Returns winner with its metadata map replaced.
func mergeMetadata(winner, loser core.Document) core.Document {
	if len(loser.Metadata) == 0 {
		return winner
	}
	out := make(map[string]string, len(winner.Metadata)+len(loser.Metadata))
	for k, v := range loser.Metadata {
		out[k] = v
	}
	for k, v := range winner.Metadata {
		out[k] = v
	}
	winner.Metadata = out
	return winner
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
