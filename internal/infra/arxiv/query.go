package arxiv

import "fmt"

// BuildSearchQuery translates a subscription topic into an arXiv API
// search_query expression. Category codes search by classification,
// anything else becomes a phrase search across title and abstract.
func (t *Taxonomy) BuildSearchQuery(topic string) string {
	if t.IsCategory(topic) {
		return fmt.Sprintf("cat:%s", t.Canonical(topic))
	}
	return fmt.Sprintf("ti:%q OR abs:%q", topic, topic)
}
