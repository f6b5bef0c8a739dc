package searcher

import (
	"sort"
	"strings"

	"github.com/dshills/menusearch-mcp/internal/indexer"
)

// Per-word lexical contributions (signal × field weight)
const (
	lexicalName        = 1.0 * 0.35
	lexicalCategory    = 0.8 * 0.25
	lexicalDescription = 0.6 * 0.15
	lexicalIngredient  = 0.5 * 0.15
	lexicalDietary     = 0.7 * 0.10
)

type lexicalHit struct {
	emb   *indexer.Embedding
	score float64
}

// lexicalScore sums substring matches of each query word against the item's fields.
// words must be lowercased.
func lexicalScore(emb *indexer.Embedding, words []string) float64 {
	item := &emb.Item
	name := strings.ToLower(item.Name)
	category := strings.ToLower(item.Category)
	description := strings.ToLower(item.Description)
	dietary := indexer.DietaryPhrase(item.Dietary)

	var score float64
	for _, w := range words {
		if strings.Contains(name, w) {
			score += lexicalName
		}
		if strings.Contains(category, w) {
			score += lexicalCategory
		}
		if strings.Contains(description, w) {
			score += lexicalDescription
		}
		for _, ing := range item.Ingredients {
			if strings.Contains(strings.ToLower(ing), w) {
				score += lexicalIngredient
				break
			}
		}
		if dietary != "" && strings.Contains(dietary, w) {
			score += lexicalDietary
		}
	}
	return score
}

// scoreLexical returns every item with a positive lexical score, in corpus order
func scoreLexical(corpus *Corpus, words []string) []lexicalHit {
	var hits []lexicalHit
	for _, emb := range corpus.Items() {
		if score := lexicalScore(emb, words); score > 0 {
			hits = append(hits, lexicalHit{emb: emb, score: score})
		}
	}
	return hits
}

// topLexical returns the n best hits without reordering the input
func topLexical(hits []lexicalHit, n int) []lexicalHit {
	top := make([]lexicalHit, len(hits))
	copy(top, hits)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].score != top[j].score {
			return top[i].score > top[j].score
		}
		return top[i].emb.Item.ID < top[j].emb.Item.ID
	})
	if n >= 0 && len(top) > n {
		top = top[:n]
	}
	return top
}
