package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harvestra/corpus/ai"
	"github.com/harvestra/corpus/core"
)

// Plain accepts UTF-8 text as-is. It rejects binary content so that it can
// serve as a safe fallback behind format-aware extractors.
type Plain struct{}

// NewPlain creates a plain-text extractor.
func NewPlain() ai.Extractor {
	return &Plain{}
}

// Extract validates raw as UTF-8 text and returns it trimmed.
func (p *Plain) Extract(_ context.Context, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: content is not valid utf-8", core.ErrParseFailure)
	}

	text := string(raw)
	for _, r := range text {
		// NUL and most other control bytes mean binary content; keep
		// whitespace controls.
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return "", fmt.Errorf("%w: content contains control bytes", core.ErrParseFailure)
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty content", core.ErrParseFailure)
	}
	return text, nil
}
