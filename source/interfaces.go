package source

import (
	"context"

	"github.com/harvestra/corpus/core"
)

// Source is the capability every document source implements. Implementations
// must tolerate concurrent calls; the engine bounds outstanding calls per
// source through the Registry.
type Source interface {
	// Name returns the registry name of the source.
	Name() string

	// Retrieve fetches a single document by id.
	// Returns core.ErrNotFound if the document is absent,
	// core.ErrSourceUnavailable if the source cannot be reached, and
	// core.ErrTimeout if the per-source deadline is exceeded.
	Retrieve(ctx context.Context, id string) (*core.Document, error)

	// Search runs the source's local relevance search. It never returns more
	// than limit documents; an empty result is a valid outcome, not an
	// error. Returned documents carry normalized scores in [0,1].
	Search(ctx context.Context, query core.SearchQuery, limit int) ([]core.Document, error)

	// List enumerates documents for warm-up and indexing, in a
	// deterministic order.
	List(ctx context.Context, limit, offset int) ([]core.Document, error)

	// Health probes the source. A nil return means the source is reachable.
	Health(ctx context.Context) error
}
