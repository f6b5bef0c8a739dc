package searcher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/internal/indexer"
	"github.com/dshills/menusearch-mcp/pkg/types"
)

var benchCategories = []string{"Appetizers", "Salads", "Mains", "Desserts", "Drinks"}
var benchWords = []string{"spicy", "grilled", "fresh", "creamy", "smoked", "sweet", "tangy", "crispy"}

// syntheticMenu generates n varied items across a handful of categories
func syntheticMenu(n int) []types.MenuItem {
	items := make([]types.MenuItem, n)
	for i := range items {
		w := benchWords[i%len(benchWords)]
		items[i] = types.MenuItem{
			ID:          fmt.Sprintf("item-%d", i),
			Name:        fmt.Sprintf("%s dish %d", w, i),
			Description: fmt.Sprintf("A %s plate with %s sides", w, benchWords[(i+3)%len(benchWords)]),
			Category:    benchCategories[i%len(benchCategories)],
			Ingredients: []string{w, benchWords[(i+1)%len(benchWords)]},
			Dietary:     types.Dietary{IsVegetarian: i%3 == 0, IsGlutenFree: i%4 == 0},
		}
	}
	return items
}

// setupSearchBenchmark indexes a synthetic menu into a fresh searcher
func setupSearchBenchmark(b *testing.B, n int) *Searcher {
	b.Helper()
	ctx := context.Background()

	emb, err := embedder.New(embedder.Config{Provider: embedder.ProviderHash, CacheSize: embedder.DefaultCacheSize})
	if err != nil {
		b.Fatal(err)
	}

	result, err := indexer.New(emb, nil).Build(ctx, &types.Menu{Items: syntheticMenu(n)}, nil)
	if err != nil {
		b.Fatal(err)
	}

	corpus, err := FromResult(ctx, emb.Dimension(), result)
	if err != nil {
		b.Fatal(err)
	}

	s := New(emb, nil)
	s.Load(corpus)
	return s
}

func benchmarkSearch(b *testing.B, req SearchRequest) {
	s := setupSearchBenchmark(b, 500)
	defer func() { _ = s.Reset() }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Search(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkHybridSearch benchmarks the full lexical + vector + context pipeline
func BenchmarkHybridSearch(b *testing.B) {
	benchmarkSearch(b, SearchRequest{Query: "spicy grilled vegetarian", Limit: 10, Mode: SearchModeHybrid})
}

// BenchmarkVectorSearch benchmarks vector similarity search alone
func BenchmarkVectorSearch(b *testing.B) {
	benchmarkSearch(b, SearchRequest{Query: "spicy grilled vegetarian", Limit: 10, Mode: SearchModeVector})
}

// BenchmarkKeywordSearch benchmarks lexical scoring alone
func BenchmarkKeywordSearch(b *testing.B) {
	benchmarkSearch(b, SearchRequest{Query: "spicy grilled vegetarian", Limit: 10, Mode: SearchModeKeyword})
}

// BenchmarkCachedSearch benchmarks repeated queries served from the response cache
func BenchmarkCachedSearch(b *testing.B) {
	benchmarkSearch(b, SearchRequest{Query: "healthy", Limit: 10, UseCache: true, CacheTTL: time.Hour})
}
