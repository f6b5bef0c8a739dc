// Package vectorindex provides the nearest-neighbor structure used for
// similarity search over item embeddings. It wraps a chromem-go collection
// and swaps it atomically on rebuild so readers never see a half-built index.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

const collectionName = "menu-items"

var (
	// ErrDimensionMismatch is returned when a vector doesn't match the index dimension
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyID is returned for entries without an ID
	ErrEmptyID = errors.New("entry id is required")
)

// Entry is a vector to index, identified by ID
type Entry struct {
	ID       string
	Vector   []float32
	Content  string
	Metadata map[string]string
}

// Match is a single nearest-neighbor hit
type Match struct {
	ID         string
	Similarity float64
	Metadata   map[string]string
}

// Index is a thread-safe cosine-similarity index
type Index struct {
	mu         sync.RWMutex
	dimension  int
	db         *chromem.DB
	collection *chromem.Collection
}

// New creates an empty index for vectors of the given dimension
func New(dimension int) *Index {
	return &Index{dimension: dimension}
}

// Dimension returns the vector length accepted by the index
func (x *Index) Dimension() int {
	return x.dimension
}

// Rebuild replaces the index contents with entries. Zero vectors carry no
// direction and are skipped. Returns the number of entries indexed.
func (x *Index) Rebuild(ctx context.Context, entries []Entry) (int, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			return 0, ErrEmptyID
		}
		if len(e.Vector) != x.dimension {
			return 0, fmt.Errorf("%w: entry %s has %d, expected %d", ErrDimensionMismatch, e.ID, len(e.Vector), x.dimension)
		}
		if isZero(e.Vector) {
			continue
		}

		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)

		content := e.Content
		if content == "" {
			content = e.ID
		}

		docs = append(docs, chromem.Document{
			ID:        e.ID,
			Content:   content,
			Embedding: vec,
			Metadata:  copyMetadata(e.Metadata),
		})
	}

	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return 0, fmt.Errorf("failed to add documents: %w", err)
		}
	}

	x.mu.Lock()
	x.db = db
	x.collection = collection
	x.mu.Unlock()

	return len(docs), nil
}

// Search returns up to k entries most similar to vector, best first
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != x.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, x.dimension, len(vector))
	}

	x.mu.RLock()
	collection := x.collection
	x.mu.RUnlock()

	if collection == nil || k <= 0 || isZero(vector) {
		return nil, nil
	}

	count := collection.Count()
	if k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	query := make([]float32, len(vector))
	copy(query, vector)

	docs, err := collection.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	matches := make([]Match, 0, len(docs))
	for _, doc := range docs {
		matches = append(matches, Match{
			ID:         doc.ID,
			Similarity: float64(doc.Similarity),
			Metadata:   doc.Metadata,
		})
	}
	return matches, nil
}

// Count returns the number of indexed entries
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.collection == nil {
		return 0
	}
	return x.collection.Count()
}

// Reset drops all entries. Safe to call repeatedly.
func (x *Index) Reset() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.db != nil {
		if err := x.db.DeleteCollection(collectionName); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}
	x.db = nil
	x.collection = nil
	return nil
}

func isZero(v []float32) bool {
	for _, val := range v {
		if val != 0 {
			return false
		}
	}
	return true
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
