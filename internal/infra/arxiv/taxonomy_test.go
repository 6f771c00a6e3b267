package arxiv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTaxonomy(t *testing.T) {
	tax, err := LoadTaxonomy()
	require.NoError(t, err)

	cats := tax.Categories()
	assert.NotEmpty(t, cats)

	// Display order is the embedded file order, computer science first
	assert.Equal(t, "cs.AI", cats[0].Code)
	assert.Equal(t, "Artificial Intelligence", cats[0].Label)
}

func TestTaxonomy_Label(t *testing.T) {
	tax, err := LoadTaxonomy()
	require.NoError(t, err)

	label, ok := tax.Label("cs.LG")
	assert.True(t, ok)
	assert.Equal(t, "Machine Learning", label)

	// Lookup is case-insensitive
	label, ok = tax.Label("CS.lg")
	assert.True(t, ok)
	assert.Equal(t, "Machine Learning", label)

	_, ok = tax.Label("cs.XX")
	assert.False(t, ok)
}

func TestTaxonomy_Canonical(t *testing.T) {
	tax, err := LoadTaxonomy()
	require.NoError(t, err)

	assert.Equal(t, "cs.AI", tax.Canonical("cs.ai"))
	assert.Equal(t, "quant-ph", tax.Canonical("QUANT-PH"))

	// Unknown codes pass through unchanged
	assert.Equal(t, "math.GT", tax.Canonical("math.GT"))
}

func TestTaxonomy_IsCategory(t *testing.T) {
	tax, err := LoadTaxonomy()
	require.NoError(t, err)

	tests := []struct {
		name  string
		topic string
		want  bool
	}{
		{name: "curated dotted code", topic: "cs.ai", want: true},
		{name: "curated hyphenated code", topic: "hep-th", want: true},
		{name: "uncurated dotted code", topic: "math.gt", want: true},
		{name: "keyword phrase", topic: "machine learning", want: false},
		{name: "single word keyword", topic: "transformers", want: false},
		{name: "dotted phrase with space", topic: "cs. artificial intelligence", want: false},
		{name: "trailing dot", topic: "cs.", want: false},
		{name: "leading dot", topic: ".ai", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.IsCategory(tt.topic))
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tax, err := LoadTaxonomy()
	require.NoError(t, err)

	tests := []struct {
		name  string
		topic string
		want  string
	}{
		{name: "curated category uses canonical spelling", topic: "cs.ai", want: "cat:cs.AI"},
		{name: "hyphenated category", topic: "quant-ph", want: "cat:quant-ph"},
		{name: "uncurated dotted code", topic: "math.gt", want: "cat:math.gt"},
		{name: "keyword phrase searches title and abstract", topic: "large language models", want: `ti:"large language models" OR abs:"large language models"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tax.BuildSearchQuery(tt.topic))
		})
	}
}
