package searcher

import (
	"strings"

	"github.com/dshills/menusearch-mcp/pkg/types"
)

const relatedTermBoost = 0.15

// relatedTerms maps a query word to words that suggest it in item text
var relatedTerms = map[string][]string{
	"healthy": {"fresh", "light", "nutritious", "lean", "salad", "grilled", "steamed"},
	"spicy":   {"hot", "chili", "pepper", "seasoned", "flavorful"},
	"light":   {"fresh", "healthy", "salad", "grilled", "steamed"},
	"fresh":   {"healthy", "light", "crisp", "garden", "seasonal"},
	"rich":    {"creamy", "decadent", "indulgent", "luxurious"},
	"sweet":   {"dessert", "sugar", "honey", "fruit"},
	"savory":  {"umami", "rich", "flavorful", "seasoned"},
}

var (
	healthyDescriptionWords = []string{"fresh", "grilled", "steamed"}
	healthyIngredientWords  = []string{"vegetable", "fruit", "salad", "lean"}
)

// semanticBoost scores an item against hand-authored query-term rules.
// query must be lowercased and words must be its fields.
func semanticBoost(item *types.MenuItem, query string, words []string) float64 {
	var boost float64
	if strings.Contains(query, "healthy") {
		boost += healthyBoost(item)
	}

	description := strings.ToLower(item.Description)
	ingredients := lowerAll(item.Ingredients)
	for _, w := range words {
		for _, term := range relatedTerms[w] {
			if strings.Contains(description, term) || anyContains(ingredients, term) {
				boost += relatedTermBoost
			}
		}
	}
	return boost
}

func healthyBoost(item *types.MenuItem) float64 {
	var boost float64
	if item.Dietary.IsVegetarian {
		boost += 0.3
	}
	if item.Dietary.IsVegan {
		boost += 0.3
	}
	if item.Dietary.IsGlutenFree {
		boost += 0.2
	}

	sub := strings.ToLower(strings.TrimSpace(item.SubCategory))
	if sub == "salads" || sub == "vegetarian" {
		boost += 0.4
	}

	description := strings.ToLower(item.Description)
	for _, w := range healthyDescriptionWords {
		if strings.Contains(description, w) {
			boost += 0.3
			break
		}
	}

	if item.HasCaloriesBelow(500) {
		boost += 0.3
	}

	for _, ing := range item.Ingredients {
		ing = strings.ToLower(ing)
		for _, w := range healthyIngredientWords {
			if strings.Contains(ing, w) {
				boost += 0.2
				break
			}
		}
	}
	return boost
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func anyContains(values []string, term string) bool {
	for _, v := range values {
		if strings.Contains(v, term) {
			return true
		}
	}
	return false
}
