package arxiv

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

// Category is one entry of the curated arXiv category list.
type Category struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// Taxonomy holds the curated arXiv category list and answers
// "is this topic a category code" questions for query building.
type Taxonomy struct {
	categories []Category
	byCode     map[string]Category
}

// LoadTaxonomy parses the embedded category list.
func LoadTaxonomy() (*Taxonomy, error) {
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(categoriesYAML, &doc); err != nil {
		return nil, fmt.Errorf("LoadTaxonomy: %w", err)
	}
	if len(doc.Categories) == 0 {
		return nil, fmt.Errorf("LoadTaxonomy: embedded category list is empty")
	}

	byCode := make(map[string]Category, len(doc.Categories))
	for _, c := range doc.Categories {
		byCode[strings.ToLower(c.Code)] = c
	}

	return &Taxonomy{categories: doc.Categories, byCode: byCode}, nil
}

// Categories returns the curated list in its original display order.
func (t *Taxonomy) Categories() []Category {
	return t.categories
}

// Label returns the human label for a category code, case-insensitively.
func (t *Taxonomy) Label(code string) (string, bool) {
	c, ok := t.byCode[strings.ToLower(code)]
	if !ok {
		return "", false
	}
	return c.Label, true
}

// Canonical returns the canonical spelling of a category code ("cs.ai" -> "cs.AI").
// Codes outside the curated list are returned unchanged.
func (t *Taxonomy) Canonical(code string) string {
	if c, ok := t.byCode[strings.ToLower(code)]; ok {
		return c.Code
	}
	return code
}

// IsCategory reports whether a topic should be treated as a category code
// rather than a keyword phrase. Topics in the curated list always qualify;
// otherwise a two-part dotted form like "math.GT" is accepted as a
// heuristic for archive categories outside the curated list.
func (t *Taxonomy) IsCategory(topic string) bool {
	if _, ok := t.byCode[strings.ToLower(topic)]; ok {
		return true
	}

	if strings.ContainsAny(topic, " \t") {
		return false
	}
	parts := strings.Split(topic, ".")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}
