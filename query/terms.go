package query

import "strings"

// Stop words filtered out of query terms and keyword matching
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Tokenize splits text into words, lowercases, trims punctuation, and removes
// stop words.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// OverlapScore returns the fraction of query terms present in the document
// text, in [0,1]. Zero query terms score zero.
func OverlapScore(document string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}

	docWords := Tokenize(document)
	docSet := make(map[string]bool, len(docWords))
	for _, w := range docWords {
		docSet[w] = true
	}

	matched := 0
	for _, term := range terms {
		if docSet[term] {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
