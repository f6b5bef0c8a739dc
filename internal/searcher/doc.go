// Package searcher ranks menu items for a free-text query.
//
// Three search modes are available:
//   - Hybrid: lexical matching plus vector similarity (default)
//   - Vector: vector similarity only
//   - Keyword: lexical matching only
//
// # Basic Usage
//
//	corpus, err := searcher.FromResult(ctx, emb.Dimension(), result)
//	s := searcher.New(emb, nil)
//	s.Load(corpus)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{Query: "healthy lunch"})
//	for _, category := range resp.Grouped.Categories(resp.Results) {
//	    fmt.Println(category, len(resp.Grouped[category]))
//	}
//
// # Scoring
//
// Hybrid scoring runs two passes. The lexical pass adds a fixed amount for
// each query word found in an item's name (0.35), category (0.2),
// description (0.09), ingredients (0.075) or dietary flags (0.07).
//
// The vector pass embeds the query, then blends it 40/60 with a context
// vector averaged from the five best lexical hits, and takes the 50 nearest
// items. Scores merge as similarity*0.6 + lexical*0.4.
//
// Hand-authored boosts follow: "healthy" rewards dietary flags, salads,
// light cooking, low calories and healthy ingredients, and a related-terms
// table (spicy -> hot, chili, ...) adds 0.15 per related word found in an
// item's description or ingredients.
//
// Scores are relative. They are not bounded by 1.
//
// # Caching
//
// With UseCache set, responses are kept in an LRU cache until CacheTTL
// passes. Loading a new corpus drops the cache.
package searcher
