package types

// SearchResult is a single ranked hit. Similarity is a relative ranking
// score and can exceed 1 once lexical and boost signals are merged in.
type SearchResult struct {
	Item       MenuItem `json:"item"`
	Similarity float64  `json:"similarity"`
}

// GroupedResults buckets results by each item's own category, preserving rank order
type GroupedResults map[string][]SearchResult

// GroupByCategory builds GroupedResults from an ordered result list
func GroupByCategory(results []SearchResult) GroupedResults {
	grouped := make(GroupedResults)
	for _, r := range results {
		category := r.Item.Category
		if category == "" {
			category = DefaultCategory
		}
		grouped[category] = append(grouped[category], r)
	}
	return grouped
}

// Categories returns the grouped keys in order of first appearance in results
func (g GroupedResults) Categories(results []SearchResult) []string {
	seen := make(map[string]bool, len(g))
	out := make([]string, 0, len(g))
	for _, r := range results {
		category := r.Item.Category
		if category == "" {
			category = DefaultCategory
		}
		if seen[category] {
			continue
		}
		if _, ok := g[category]; !ok {
			continue
		}
		seen[category] = true
		out = append(out, category)
	}
	return out
}
