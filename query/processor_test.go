package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and strips punctuation",
			text: "Q3 Sales, Report!",
			want: []string{"q3", "sales", "report"},
		},
		{
			name: "removes stop words",
			text: "the report of the quarter",
			want: []string{"report", "quarter"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestOverlapScore(t *testing.T) {
	doc := "Q3 sales exceeded target by 15%"

	assert.Equal(t, 1.0, OverlapScore(doc, []string{"sales", "target"}))
	assert.Equal(t, 0.5, OverlapScore(doc, []string{"sales", "forecast"}))
	assert.Equal(t, 0.0, OverlapScore(doc, []string{"unrelated"}))
	assert.Equal(t, 0.0, OverlapScore(doc, nil))
}

func TestProcess_SpellCorrection(t *testing.T) {
	p := NewProcessor(DefaultOptions())

	q := p.Process("slaes preformance qaurter", "", 10)
	assert.Equal(t, "sales performance quarter", q.Normalized)
	assert.Equal(t, "slaes preformance qaurter", q.Raw)
}

func TestProcess_SynonymExpansion(t *testing.T) {
	p := NewProcessor(Options{Synonyms: true})

	q := p.Process("sales report", "", 10)
	// Originals first, then sorted expansions.
	assert.Equal(t, []string{"sales", "report", "revenue", "summary"}, q.Terms)
}

func TestProcess_SynonymsNeverDuplicate(t *testing.T) {
	p := NewProcessor(Options{Synonyms: true})

	// "sales" expands to "revenue" which is already present.
	q := p.Process("sales revenue", "", 10)
	assert.Equal(t, []string{"sales", "revenue"}, q.Terms)
}

func TestProcess_FilterExtraction(t *testing.T) {
	p := NewProcessor(Options{FilterExtraction: true})

	q := p.Process("q3 2025 finance forecast", "", 10)
	require.NotNil(t, q.Filters)
	assert.Equal(t, "Q3", q.Filters["quarter"])
	assert.Equal(t, "2025", q.Filters["year"])
	assert.Equal(t, "finance", q.Filters["department"])

	// Filter tokens stay available for keyword matching.
	assert.Contains(t, q.Terms, "q3")
	assert.Contains(t, q.Terms, "2025")
	assert.Contains(t, q.Terms, "finance")
}

func TestProcess_NoFiltersIsNil(t *testing.T) {
	p := NewProcessor(Options{FilterExtraction: true})

	q := p.Process("performance summary", "", 10)
	assert.Nil(t, q.Filters)
}

func TestProcess_ContextBoosts(t *testing.T) {
	p := NewProcessor(DefaultOptions())

	q := p.Process("sales report", "quarterly planning meeting", 10)
	assert.Equal(t, []string{"quarterly", "planning", "meeting"}, q.Boosts)
}

func TestProcess_RecencyBoost(t *testing.T) {
	p := NewProcessor(Options{RecencyBoost: true})

	q := p.Process("sales report", "", 10)
	assert.Equal(t, []string{"latest", "recent", "current"}, q.Boosts)
}

func TestProcess_Deterministic(t *testing.T) {
	p := NewProcessor(DefaultOptions())

	first := p.Process("slaes report q3 2025", "planning", 10)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, p.Process("slaes report q3 2025", "planning", 10))
	}
	assert.Equal(t, first.Canonical(), p.Process("slaes report q3 2025", "planning", 10).Canonical())
}

func TestProcess_StepsIndependentlyToggleable(t *testing.T) {
	off := NewProcessor(Options{})

	q := off.Process("slaes q3 finance", "", 10)
	assert.Equal(t, "slaes q3 finance", q.Normalized)
	assert.Nil(t, q.Filters)
	assert.Empty(t, q.Boosts)
	assert.Equal(t, []string{"slaes", "q3", "finance"}, q.Terms)
}
