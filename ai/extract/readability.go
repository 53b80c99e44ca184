package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/harvestra/corpus/ai"
	"github.com/harvestra/corpus/core"
)

var reSpaces = regexp.MustCompile(`\s+`)

// Readability extracts readable text from HTML documents. Boilerplate
// (navigation, footers, scripts) is stripped by the readability algorithm.
type Readability struct{}

// NewReadability creates a readability-based HTML extractor.
func NewReadability() ai.Extractor {
	return &Readability{}
}

// Extract parses raw as HTML and returns its readable text content.
func (r *Readability) Extract(_ context.Context, raw []byte) (string, error) {
	if !looksLikeHTML(raw) {
		return "", fmt.Errorf("%w: content is not html", core.ErrParseFailure)
	}

	article, err := readability.FromReader(bytes.NewReader(raw), &url.URL{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrParseFailure, err)
	}

	text := strings.TrimSpace(reSpaces.ReplaceAllString(article.TextContent, " "))
	if text == "" {
		return "", fmt.Errorf("%w: no readable text", core.ErrParseFailure)
	}

	if title := strings.TrimSpace(article.Title); title != "" && !strings.Contains(text, title) {
		text = title + "\n\n" + text
	}
	return text, nil
}

// looksLikeHTML checks for an opening tag near the start of the content.
func looksLikeHTML(raw []byte) bool {
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("<"))
}
