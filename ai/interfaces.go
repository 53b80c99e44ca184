package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use and
// deterministic for identical input, since cache keys and fingerprints are
// derived downstream of embeddings.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in one batch.
	// The returned slice preserves input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Extractor produces plain text from raw document bytes (HTML pages, text
// files, exported reports). Implementations must be thread-safe.
//
// A failed extraction returns an error wrapping core.ErrParseFailure so
// callers can distinguish unparseable input from transport problems.
type Extractor interface {
	Extract(ctx context.Context, raw []byte) (string, error)
}
