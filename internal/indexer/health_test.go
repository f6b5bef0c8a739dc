package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/menusearch-mcp/pkg/types"
)

func TestHealthContext(t *testing.T) {
	tests := []struct {
		name string
		item types.MenuItem
		want string
	}{
		{
			name: "nothing applies",
			item: types.MenuItem{Name: "Burger", Calories: intPtr(1200)},
			want: "",
		},
		{
			name: "vegetarian",
			item: types.MenuItem{Dietary: types.Dietary{IsVegetarian: true}},
			want: "vegetarian vegetable vegetables healthy plant-based",
		},
		{
			name: "vegan and gluten free",
			item: types.MenuItem{Dietary: types.Dietary{IsVegan: true, IsGlutenFree: true}},
			want: "vegan plant-based healthy natural gluten-free celiac healthy",
		},
		{
			name: "healthy ingredient",
			item: types.MenuItem{Ingredients: []string{"bread", "Lean Turkey"}},
			want: "healthy nutritious",
		},
		{
			name: "fresh description triggers two rules",
			item: types.MenuItem{Description: "Fresh catch"},
			want: "healthy fresh healthy light",
		},
		{
			name: "steamed description",
			item: types.MenuItem{Description: "steamed dumplings"},
			want: "healthy light",
		},
		{
			name: "low calories",
			item: types.MenuItem{Calories: intPtr(499)},
			want: "healthy light",
		},
		{
			name: "calories at limit",
			item: types.MenuItem{Calories: intPtr(500)},
			want: "",
		},
		{
			name: "zero calories count as known",
			item: types.MenuItem{Calories: intPtr(0)},
			want: "healthy light",
		},
		{
			name: "salads subcategory",
			item: types.MenuItem{SubCategory: "Salads"},
			want: "healthy fresh nutritious",
		},
		{
			name: "grilled salmon salad",
			item: types.MenuItem{
				Description: "fresh grilled salmon over greens",
				SubCategory: "salads",
				Calories:    intPtr(350),
			},
			want: "healthy fresh healthy light healthy fresh nutritious healthy light",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HealthContext(&tt.item))
		})
	}
}

func TestDietaryPhrase(t *testing.T) {
	assert.Equal(t, "", DietaryPhrase(types.Dietary{}))
	assert.Equal(t, "vegetarian", DietaryPhrase(types.Dietary{IsVegetarian: true}))
	assert.Equal(t, "vegetarian vegan gluten-free",
		DietaryPhrase(types.Dietary{IsVegetarian: true, IsVegan: true, IsGlutenFree: true}))
}
