package ai

import (
	"context"
	"log/slog"
)

// FallbackExtractor tries a primary extractor and, if it fails, a fallback.
// The fallback is invoked at most once per call; if both fail, the fallback's
// error is surfaced.
type FallbackExtractor struct {
	primary  Extractor
	fallback Extractor
	logger   *slog.Logger
}

// NewFallbackExtractor combines a primary and a fallback extractor.
func NewFallbackExtractor(primary, fallback Extractor) *FallbackExtractor {
	return &FallbackExtractor{
		primary:  primary,
		fallback: fallback,
		logger:   slog.Default().With("component", "extractor"),
	}
}

// Extract returns the primary extractor's text, falling back once on failure.
func (f *FallbackExtractor) Extract(ctx context.Context, raw []byte) (string, error) {
	text, err := f.primary.Extract(ctx, raw)
	if err == nil {
		return text, nil
	}

	f.logger.Debug("primary extractor failed, trying fallback", "err", err)
	return f.fallback.Extract(ctx, raw)
}
