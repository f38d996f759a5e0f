package domain

// Vector is a stored embedding together with its source text and metadata.
type Vector struct {
	ID       string
	Values   []float32
	Text     string
	Metadata map[string]string
}

// SearchResult is a single similarity hit. Score is normalized so that
// higher always means more similar, whatever the backend metric.
type SearchResult struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]string
}

// Filter narrows a search to vectors whose metadata contains every listed pair.
// An empty filter matches everything.
type Filter map[string]string

// Matches reports whether metadata satisfies the filter.
func (f Filter) Matches(metadata map[string]string) bool {
	for k, v := range f {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
