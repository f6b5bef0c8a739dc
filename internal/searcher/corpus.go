package searcher

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dshills/menusearch-mcp/internal/indexer"
	"github.com/dshills/menusearch-mcp/internal/vectorindex"
)

var corpusGeneration atomic.Uint64

// Corpus is an immutable set of indexed items plus the nearest-neighbor
// structure built over their vectors
type Corpus struct {
	items      []*indexer.Embedding
	byID       map[string]*indexer.Embedding
	vectors    *vectorindex.Index
	generation uint64
}

// NewCorpus builds a corpus from embeddings in index order.
// Later entries replace earlier ones with the same ID.
func NewCorpus(ctx context.Context, dimension int, embeddings []*indexer.Embedding) (*Corpus, error) {
	c := &Corpus{
		byID:       make(map[string]*indexer.Embedding, len(embeddings)),
		vectors:    vectorindex.New(dimension),
		generation: corpusGeneration.Add(1),
	}

	position := make(map[string]int, len(embeddings))
	for _, emb := range embeddings {
		if emb == nil {
			continue
		}
		id := emb.Item.ID
		if pos, ok := position[id]; ok {
			c.items[pos] = emb
		} else {
			position[id] = len(c.items)
			c.items = append(c.items, emb)
		}
		c.byID[id] = emb
	}

	entries := make([]vectorindex.Entry, 0, len(c.items))
	for _, emb := range c.items {
		entries = append(entries, vectorindex.Entry{
			ID:      emb.Item.ID,
			Vector:  emb.Vector,
			Content: emb.Item.Name,
			Metadata: map[string]string{
				"name":     emb.Item.Name,
				"category": emb.Item.Category,
			},
		})
	}

	if _, err := c.vectors.Rebuild(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to build vector index: %w", err)
	}
	return c, nil
}

// FromResult builds a corpus from an indexer result
func FromResult(ctx context.Context, dimension int, result *indexer.Result) (*Corpus, error) {
	embeddings := make([]*indexer.Embedding, 0, len(result.Order))
	for _, id := range result.Order {
		embeddings = append(embeddings, result.Embeddings[id])
	}
	return NewCorpus(ctx, dimension, embeddings)
}

// Len returns the number of items
func (c *Corpus) Len() int {
	return len(c.items)
}

// Get returns the embedding for an item ID
func (c *Corpus) Get(id string) (*indexer.Embedding, bool) {
	emb, ok := c.byID[id]
	return emb, ok
}

// Items returns embeddings in index order. The slice must not be modified.
func (c *Corpus) Items() []*indexer.Embedding {
	return c.items
}

// Dimension returns the vector dimension
func (c *Corpus) Dimension() int {
	return c.vectors.Dimension()
}

// Release drops the nearest-neighbor structure
func (c *Corpus) Release() error {
	return c.vectors.Reset()
}
