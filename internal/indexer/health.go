package indexer

import (
	"strings"

	"github.com/dshills/menusearch-mcp/pkg/types"
)

// Health-context fragments, applied in order
const (
	vegetarianContext    = "vegetarian vegetable vegetables healthy plant-based"
	veganContext         = "vegan plant-based healthy natural"
	glutenFreeContext    = "gluten-free celiac healthy"
	healthyIngredientCtx = "healthy nutritious"
	freshDescriptionCtx  = "healthy fresh"
	lowCalorieContext    = "healthy light"
	saladContext         = "healthy fresh nutritious"
	lightCookingContext  = "healthy light"

	lowCalorieLimit = 500
)

var (
	healthyIngredientWords = []string{"vegetable", "fruit", "salad", "lean", "fresh"}
	lightCookingWords      = []string{"grilled", "steamed", "fresh"}
)

// HealthContext synthesizes the descriptive text embedded alongside an item's
// own fields. The rule table is the only hand-authored semantic knowledge in
// the index; the searcher's boosts mirror it.
func HealthContext(item *types.MenuItem) string {
	var parts []string

	if item.Dietary.IsVegetarian {
		parts = append(parts, vegetarianContext)
	}
	if item.Dietary.IsVegan {
		parts = append(parts, veganContext)
	}
	if item.Dietary.IsGlutenFree {
		parts = append(parts, glutenFreeContext)
	}
	if anyIngredientContains(item.Ingredients, healthyIngredientWords) {
		parts = append(parts, healthyIngredientCtx)
	}

	description := strings.ToLower(item.Description)
	if strings.Contains(description, "fresh") {
		parts = append(parts, freshDescriptionCtx)
	}
	if item.HasCaloriesBelow(lowCalorieLimit) {
		parts = append(parts, lowCalorieContext)
	}
	if strings.EqualFold(strings.TrimSpace(item.SubCategory), "salads") {
		parts = append(parts, saladContext)
	}
	if containsAny(description, lightCookingWords) {
		parts = append(parts, lightCookingContext)
	}

	return strings.Join(parts, " ")
}

// DietaryPhrase renders an item's dietary flags as searchable words
func DietaryPhrase(d types.Dietary) string {
	var parts []string
	if d.IsVegetarian {
		parts = append(parts, "vegetarian")
	}
	if d.IsVegan {
		parts = append(parts, "vegan")
	}
	if d.IsGlutenFree {
		parts = append(parts, "gluten-free")
	}
	return strings.Join(parts, " ")
}

func anyIngredientContains(ingredients []string, words []string) bool {
	for _, ing := range ingredients {
		if containsAny(strings.ToLower(ing), words) {
			return true
		}
	}
	return false
}

// containsAny expects s already lowercased
func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
