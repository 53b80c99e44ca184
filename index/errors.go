package index

import "errors"

var (
	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrIndexRequired is returned when no index is supplied.
	ErrIndexRequired = errors.New("index is required")

	// ErrDimensionMismatch is returned when an embedding's dimensionality
	// differs from the vectors already stored.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
