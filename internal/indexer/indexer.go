package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/pkg/types"
)

var (
	// ErrInvalidMenu is returned when the menu is missing or has no items
	ErrInvalidMenu = errors.New("invalid menu")
	// ErrNoValidItems is returned when every item failed validation
	ErrNoValidItems = fmt.Errorf("%w: no valid items to index", ErrInvalidMenu)
)

// Field weights for the combined item embedding
const (
	WeightName        = 4.0
	WeightDescription = 2.0
	WeightCategory    = 3.0
	WeightIngredients = 2.5
	WeightAllergens   = 1.5
	WeightPairings    = 1.0
	WeightHealth      = 2.0
)

// Indexer turns a menu into per-item embeddings
type Indexer struct {
	embedder embedder.Embedder

	// Worker pool configuration
	workers int
}

// Config contains configuration for the indexer
type Config struct {
	Workers int // Number of concurrent workers (default: runtime.NumCPU())
}

// ProgressFunc receives the number of items embedded so far and the total.
// Calls are serialized and done never decreases.
type ProgressFunc func(done, total int)

// Embedding is the stored vector for one item plus the item itself
type Embedding struct {
	Vector []float32
	Item   types.MenuItem
}

// SkippedItem records an item that failed validation
type SkippedItem struct {
	Position int
	ID       string
	Reason   error
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	ItemsTotal   int
	ItemsIndexed int
	ItemsSkipped int
	Duplicates   int
	Duration     time.Duration
}

// Result is the output of a successful Build
type Result struct {
	// Embeddings is keyed by item ID
	Embeddings map[string]*Embedding
	// Order lists IDs by first appearance in the menu
	Order   []string
	Skipped []SkippedItem
	Stats   Statistics
}

// New creates a new Indexer instance
func New(emb embedder.Embedder, config *Config) *Indexer {
	workers := runtime.NumCPU()
	if config != nil && config.Workers > 0 {
		workers = config.Workers
	}
	return &Indexer{
		embedder: emb,
		workers:  workers,
	}
}

// Build validates the menu and embeds every valid item
func (idx *Indexer) Build(ctx context.Context, menu *types.Menu, progress ProgressFunc) (*Result, error) {
	if menu == nil || len(menu.Items) == 0 {
		return nil, fmt.Errorf("%w: menu has no items", ErrInvalidMenu)
	}

	startTime := time.Now()
	result := &Result{
		Embeddings: make(map[string]*Embedding),
		Stats:      Statistics{ItemsTotal: len(menu.Items)},
	}

	valid := make([]types.MenuItem, 0, len(menu.Items))
	for i := range menu.Items {
		item := &menu.Items[i]
		if err := item.Validate(); err != nil {
			log.Printf("warning: skipping menu item %d (id=%q): %v", i, item.ID, err)
			result.Skipped = append(result.Skipped, SkippedItem{Position: i, ID: item.ID, Reason: err})
			continue
		}
		valid = append(valid, item.Clone())
	}
	result.Stats.ItemsSkipped = len(result.Skipped)

	if len(valid) == 0 {
		return nil, ErrNoValidItems
	}

	vectors, err := idx.embedItems(ctx, valid, progress)
	if err != nil {
		return nil, err
	}

	// Later duplicates overwrite earlier ones
	for i, item := range valid {
		if _, exists := result.Embeddings[item.ID]; exists {
			result.Stats.Duplicates++
		} else {
			result.Order = append(result.Order, item.ID)
		}
		result.Embeddings[item.ID] = &Embedding{Vector: vectors[i], Item: item}
	}

	result.Stats.ItemsIndexed = len(result.Embeddings)
	result.Stats.Duration = time.Since(startTime)
	return result, nil
}

// embedItems computes item vectors concurrently, preserving input order
func (idx *Indexer) embedItems(ctx context.Context, items []types.MenuItem, progress ProgressFunc) ([][]float32, error) {
	vectors := make([][]float32, len(items))
	semaphore := make(chan struct{}, idx.workers)

	var (
		mu   sync.Mutex
		done int
	)
	total := len(items)

	g, gctx := errgroup.WithContext(ctx)
dispatch:
	for i := range items {
		select {
		case <-gctx.Done():
			break dispatch
		case semaphore <- struct{}{}:
			// Acquire semaphore
		}

		g.Go(func() error {
			defer func() { <-semaphore }()

			if err := gctx.Err(); err != nil {
				return err
			}

			vec, err := idx.ItemVector(&items[i])
			if err != nil {
				return fmt.Errorf("item %s: %w", items[i].ID, err)
			}
			vectors[i] = vec

			mu.Lock()
			done++
			if progress != nil {
				progress(done, total)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// ItemVector builds the combined, normalized embedding for one item
func (idx *Indexer) ItemVector(item *types.MenuItem) ([]float32, error) {
	category := strings.TrimSpace(item.Category + " " + item.SubCategory)

	fields := []struct {
		text   string
		weight float64
	}{
		{item.Name, WeightName},
		{item.Description, WeightDescription},
		{category, WeightCategory},
		{strings.Join(item.Ingredients, " "), WeightIngredients},
		{strings.Join(item.Allergens, " "), WeightAllergens},
		{strings.Join(item.Pairings, " "), WeightPairings},
		{HealthContext(item), WeightHealth},
	}

	vectors := make([][]float32, 0, len(fields))
	for _, f := range fields {
		vectors = append(vectors, idx.embedder.FeatureVector(f.text, f.weight))
	}

	return embedder.Sum(idx.embedder.Dimension(), vectors...)
}

// Dimension returns the embedding dimension produced by this indexer
func (idx *Indexer) Dimension() int {
	return idx.embedder.Dimension()
}
