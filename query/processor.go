package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/harvestra/corpus/core"
)

// Common corporate-corpus misspellings corrected before tokenization.
var spellingCorrections = map[string]string{
	"slaes":       "sales",
	"preformance": "performance",
	"performence": "performance",
	"qaurter":     "quarter",
	"quater":      "quarter",
	"reveune":     "revenue",
	"revenu":      "revenue",
	"documant":    "document",
	"retro":       "retrospective",
}

// Term expansion thesaurus. Synonyms are appended to the term list, never
// substituted, so the original wording keeps its weight.
var synonyms = map[string][]string{
	"sales":         {"revenue"},
	"revenue":       {"sales"},
	"report":        {"summary"},
	"target":        {"goal"},
	"retrospective": {"review"},
	"forecast":      {"projection"},
	"budget":        {"spend"},
}

// Department tokens promoted to structured filters.
var departments = map[string]bool{
	"sales":       true,
	"engineering": true,
	"marketing":   true,
	"finance":     true,
	"hr":          true,
	"legal":       true,
}

var quarterToken = regexp.MustCompile(`^q([1-4])$`)
var yearToken = regexp.MustCompile(`^(19|20)\d{2}$`)

// Recency boost terms injected when the recency step is enabled. Constant so
// that processing stays deterministic.
var recencyBoosts = []string{"latest", "recent", "current"}

// Options toggles the individual processing steps. The zero value disables
// everything except normalization.
type Options struct {
	SpellCorrection  bool
	Synonyms         bool
	FilterExtraction bool
	RecencyBoost     bool

	// MinScore is the default relevance threshold put on produced queries.
	MinScore float64
}

// DefaultOptions enables every step with no relevance threshold.
func DefaultOptions() Options {
	return Options{
		SpellCorrection:  true,
		Synonyms:         true,
		FilterExtraction: true,
		RecencyBoost:     false,
	}
}

// Processor turns raw query strings into structured SearchQuery values. It is
// pure and deterministic: identical input and context always produce the
// same query, so cache keys derived from the output are stable.
type Processor struct {
	opts Options
}

// NewProcessor creates a processor with the given step toggles.
func NewProcessor(opts Options) *Processor {
	return &Processor{opts: opts}
}

// Process normalizes and expands a raw query. qctx is caller-supplied
// context text whose tokens become boost terms; limit bounds the result set
// of searches built from this query.
func (p *Processor) Process(raw, qctx string, limit int) core.SearchQuery {
	normalized := strings.ToLower(strings.TrimSpace(raw))

	if p.opts.SpellCorrection {
		normalized = correctSpelling(normalized)
	}

	terms := Tokenize(normalized)

	var filters map[string]string
	if p.opts.FilterExtraction {
		filters = extractFilters(terms)
	}

	if p.opts.Synonyms {
		terms = expandSynonyms(terms)
	}

	var boosts []string
	if qctx != "" {
		boosts = append(boosts, Tokenize(qctx)...)
	}
	if p.opts.RecencyBoost {
		boosts = append(boosts, recencyBoosts...)
	}

	return core.SearchQuery{
		Raw:        raw,
		Normalized: normalized,
		Terms:      terms,
		Filters:    filters,
		Boosts:     boosts,
		Limit:      limit,
		MinScore:   p.opts.MinScore,
	}
}

func correctSpelling(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		if fixed, ok := spellingCorrections[w]; ok {
			words[i] = fixed
		}
	}
	return strings.Join(words, " ")
}

// expandSynonyms appends synonyms after the original terms. Appended terms
// are sorted and deduplicated so expansion order never depends on map
// iteration.
func expandSynonyms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		seen[t] = true
	}

	var extra []string
	for _, t := range terms {
		for _, syn := range synonyms[t] {
			if !seen[syn] {
				seen[syn] = true
				extra = append(extra, syn)
			}
		}
	}
	sort.Strings(extra)
	return append(terms, extra...)
}

// extractFilters promotes quarter, year, and department tokens to structured
// filters. The tokens stay in the term list so keyword matching still sees
// them.
func extractFilters(terms []string) map[string]string {
	filters := make(map[string]string)
	for _, t := range terms {
		if m := quarterToken.FindStringSubmatch(t); m != nil {
			filters["quarter"] = "Q" + m[1]
			continue
		}
		if yearToken.MatchString(t) {
			filters["year"] = t
			continue
		}
		if departments[t] {
			filters["department"] = t
		}
	}
	if len(filters) == 0 {
		return nil
	}
	return filters
}
