package searcher

import (
	"strings"

	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/internal/indexer"
)

// Blend of raw query vector and lexical context vector
const (
	queryBlend   = 0.4
	contextBlend = 0.6
)

// queryDietaryPhrase picks out dietary words from a lowercased query
func queryDietaryPhrase(query string) string {
	var parts []string
	if strings.Contains(query, "vegetarian") {
		parts = append(parts, "vegetarian")
	}
	if strings.Contains(query, "vegan") {
		parts = append(parts, "vegan")
	}
	if strings.Contains(query, "gluten") {
		parts = append(parts, "gluten-free")
	}
	return strings.Join(parts, " ")
}

// queryVector embeds the query as if it were each searchable field of an item
func (s *Searcher) queryVector(query string) ([]float32, error) {
	return embedder.Sum(s.embedder.Dimension(),
		s.embedder.FeatureVector(query, indexer.WeightName),
		s.embedder.FeatureVector(query, indexer.WeightCategory),
		s.embedder.FeatureVector(query, indexer.WeightDescription),
		s.embedder.FeatureVector(query, indexer.WeightIngredients),
		s.embedder.FeatureVector(queryDietaryPhrase(query), indexer.WeightHealth),
	)
}

// contextVector averages the stored vectors of the best lexical hits,
// weighted by lexical score. Returns nil when there are no hits.
func contextVector(dimension int, hits []lexicalHit) ([]float32, error) {
	if len(hits) == 0 {
		return nil, nil
	}

	out := make([]float32, dimension)
	var total float64
	for _, h := range hits {
		if err := embedder.AddScaled(out, h.emb.Vector, h.score); err != nil {
			return nil, err
		}
		total += h.score
	}
	if total > 0 {
		for i := range out {
			out[i] = float32(float64(out[i]) / total)
		}
	}
	return embedder.NormalizeVector(out), nil
}

// blendVectors mixes the query and context vectors and renormalizes.
// Without context the query vector is used as is.
func blendVectors(query, context []float32) ([]float32, error) {
	if context == nil {
		return query, nil
	}
	out := make([]float32, len(query))
	if err := embedder.AddScaled(out, query, queryBlend); err != nil {
		return nil, err
	}
	if err := embedder.AddScaled(out, context, contextBlend); err != nil {
		return nil, err
	}
	return embedder.NormalizeVector(out), nil
}
