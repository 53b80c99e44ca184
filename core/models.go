package core

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Document is a unit of retrievable content. IDs are unique within a single
// source but not globally; cross-source identity is established through
// content fingerprints (see Fingerprint).
type Document struct {
	ID        string
	Title     string
	Content   string
	Source    string            // name of the source that yielded the document
	Metadata  map[string]string // department, date, tags, ...
	Embedding []float32         // populated once, cached alongside the document
	Score     float64           // search-context relevance, not persisted
}

// Fingerprint returns the content fingerprint used for cross-source
// deduplication. Documents with equal fingerprints are treated as the same
// logical document regardless of origin.
func (d *Document) Fingerprint() Fingerprint {
	return FingerprintContent(d.Content)
}

// SearchQuery is the processed form of a raw query. It is immutable once
// constructed; the cache key for a search is derived from its canonical form.
type SearchQuery struct {
	Raw        string
	Normalized string            // corrected, lowercased query text
	Terms      []string          // expanded terms (synonyms included)
	Filters    map[string]string // structured constraints extracted from the query
	Boosts     []string          // terms injected to boost recency or context
	Limit      int
	MinScore   float64 // drop hits scoring below this; 0 disables
}

// Canonical returns a deterministic string form of the query. Filter keys are
// sorted so that logically identical queries canonicalize identically.
func (q SearchQuery) Canonical() string {
	var b strings.Builder
	b.WriteString(q.Normalized)
	b.WriteByte('|')
	b.WriteString(strings.Join(q.Terms, " "))

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(q.Filters[k])
	}

	b.WriteByte('|')
	b.WriteString(strings.Join(q.Boosts, " "))
	fmt.Fprintf(&b, "|limit=%d|min=%g", q.Limit, q.MinScore)
	return b.String()
}

// Hit is a single ranked search result. Sources lists every source that
// contributed a duplicate of the document, sorted by name so equal merges
// always render identically.
type Hit struct {
	Document Document
	Score    float64
	Sources  []string
}

// SourceState describes the outcome of one source's participation in a
// fan-out search.
type SourceState int

const (
	// SourceOK means the source answered within its deadline.
	SourceOK SourceState = iota + 1
	// SourceTimedOut means the source exceeded its deadline or the caller's.
	SourceTimedOut
	// SourceErrored means the source failed for a reason other than a deadline.
	SourceErrored
)

// String returns the state name for logs and status summaries.
func (s SourceState) String() string {
	switch s {
	case SourceOK:
		return "ok"
	case SourceTimedOut:
		return "timeout"
	case SourceErrored:
		return "error"
	}
	return "unknown"
}

// SourceStatus records one source's contribution to an aggregated search.
// Statuses are always reported alongside results so partial failures are
// never silently dropped.
type SourceStatus struct {
	Name    string
	State   SourceState
	Err     string // empty when State == SourceOK
	Hits    int
	Elapsed time.Duration
}

// SearchResult is an ordered, deduplicated, cross-source result set plus the
// per-source status summary.
type SearchResult struct {
	Hits     []Hit
	Statuses []SourceStatus
}

// Status returns the status entry for the named source, if present.
func (r *SearchResult) Status(source string) (SourceStatus, bool) {
	for _, st := range r.Statuses {
		if st.Name == source {
			return st, true
		}
	}
	return SourceStatus{}, false
}
