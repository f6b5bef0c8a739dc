package indexer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/pkg/types"
)

func newTestIndexer(t *testing.T, workers int) *Indexer {
	t.Helper()
	emb, err := embedder.New(embedder.Config{Provider: embedder.ProviderHash})
	require.NoError(t, err)
	t.Cleanup(func() { _ = emb.Close() })
	return New(emb, &Config{Workers: workers})
}

func intPtr(v int) *int { return &v }

func sampleMenu() *types.Menu {
	return &types.Menu{Items: []types.MenuItem{
		{
			ID:          "1",
			Name:        "Veggie Wrap",
			Category:    "lunch",
			Dietary:     types.Dietary{IsVegetarian: true},
			Ingredients: []string{"tortilla", "lettuce", "tomato"},
		},
		{
			ID:          "2",
			Name:        "Steak Sandwich",
			Category:    "lunch",
			Ingredients: []string{"steak", "bread"},
		},
		{
			ID:          "3",
			Name:        "Grilled Salmon Salad",
			Description: "fresh grilled salmon over greens",
			Category:    "mains",
			SubCategory: "salads",
			Calories:    intPtr(350),
		},
	}}
}

func TestBuildIndexesEveryValidItem(t *testing.T) {
	idx := newTestIndexer(t, 2)

	result, err := idx.Build(context.Background(), sampleMenu(), nil)
	require.NoError(t, err)

	assert.Len(t, result.Embeddings, 3)
	assert.Equal(t, []string{"1", "2", "3"}, result.Order)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 3, result.Stats.ItemsTotal)
	assert.Equal(t, 3, result.Stats.ItemsIndexed)

	for id, emb := range result.Embeddings {
		assert.Equal(t, id, emb.Item.ID)
		assert.Len(t, emb.Vector, embedder.Dimension)
		assert.InDelta(t, 1.0, embedder.Norm(emb.Vector), 1e-5)
	}
}

func TestBuildSkipsInvalidItems(t *testing.T) {
	idx := newTestIndexer(t, 1)
	menu := sampleMenu()
	menu.Items = append(menu.Items,
		types.MenuItem{Name: "No ID", Category: "x"},
		types.MenuItem{ID: "5", Category: "x"},
		types.MenuItem{ID: "6", Name: "No Category", Category: "  "},
	)

	result, err := idx.Build(context.Background(), menu, nil)
	require.NoError(t, err)

	assert.Len(t, result.Embeddings, 3)
	require.Len(t, result.Skipped, 3)
	assert.ErrorIs(t, result.Skipped[0].Reason, types.ErrMissingID)
	assert.ErrorIs(t, result.Skipped[1].Reason, types.ErrMissingName)
	assert.ErrorIs(t, result.Skipped[2].Reason, types.ErrMissingCategory)
	assert.Equal(t, 3, result.Skipped[0].Position)
	assert.Equal(t, 3, result.Stats.ItemsSkipped)
}

func TestBuildErrors(t *testing.T) {
	idx := newTestIndexer(t, 1)
	ctx := context.Background()

	_, err := idx.Build(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidMenu)

	_, err = idx.Build(ctx, &types.Menu{}, nil)
	assert.ErrorIs(t, err, ErrInvalidMenu)

	_, err = idx.Build(ctx, &types.Menu{Items: []types.MenuItem{{ID: "1"}, {Name: "x"}}}, nil)
	assert.ErrorIs(t, err, ErrNoValidItems)
	assert.ErrorIs(t, err, ErrInvalidMenu, "no valid items is a configuration error")
}

func TestBuildDuplicateIDsLastWins(t *testing.T) {
	idx := newTestIndexer(t, 4)
	menu := &types.Menu{Items: []types.MenuItem{
		{ID: "dup", Name: "First", Category: "a"},
		{ID: "other", Name: "Other", Category: "a"},
		{ID: "dup", Name: "Second", Category: "b"},
	}}

	result, err := idx.Build(context.Background(), menu, nil)
	require.NoError(t, err)

	assert.Len(t, result.Embeddings, 2)
	assert.Equal(t, "Second", result.Embeddings["dup"].Item.Name)
	assert.Equal(t, []string{"dup", "other"}, result.Order)
	assert.Equal(t, 1, result.Stats.Duplicates)
}

func TestBuildProgress(t *testing.T) {
	idx := newTestIndexer(t, 3)

	var (
		mu    sync.Mutex
		calls [][2]int
	)
	_, err := idx.Build(context.Background(), sampleMenu(), func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, [2]int{done, total})
	})
	require.NoError(t, err)

	require.Len(t, calls, 3)
	for i, c := range calls {
		assert.Equal(t, i+1, c[0], "progress is monotonic")
		assert.Equal(t, 3, c[1])
	}
}

func TestBuildCancelled(t *testing.T) {
	idx := newTestIndexer(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Build(ctx, sampleMenu(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	idx := newTestIndexer(t, 1)
	menu := sampleMenu()

	result, err := idx.Build(context.Background(), menu, nil)
	require.NoError(t, err)

	menu.Items[0].Ingredients[0] = "changed"
	assert.Equal(t, "tortilla", result.Embeddings["1"].Item.Ingredients[0])
}

func TestItemVectorDeterministic(t *testing.T) {
	idx := newTestIndexer(t, 1)
	item := sampleMenu().Items[2]

	a, err := idx.ItemVector(&item)
	require.NoError(t, err)
	b, err := idx.ItemVector(&item)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestItemVectorUsesEveryField(t *testing.T) {
	idx := newTestIndexer(t, 1)
	base := types.MenuItem{ID: "x", Name: "Plain", Category: "c"}

	baseVec, err := idx.ItemVector(&base)
	require.NoError(t, err)

	variants := map[string]func(*types.MenuItem){
		"description": func(m *types.MenuItem) { m.Description = "smoky" },
		"subcategory": func(m *types.MenuItem) { m.SubCategory = "sides" },
		"ingredients": func(m *types.MenuItem) { m.Ingredients = []string{"cumin"} },
		"allergens":   func(m *types.MenuItem) { m.Allergens = []string{"peanut"} },
		"pairings":    func(m *types.MenuItem) { m.Pairings = []string{"merlot"} },
		"dietary":     func(m *types.MenuItem) { m.Dietary.IsVegan = true },
	}

	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			item := base.Clone()
			mutate(&item)
			vec, err := idx.ItemVector(&item)
			require.NoError(t, err)
			assert.NotEqual(t, baseVec, vec)
		})
	}
}
