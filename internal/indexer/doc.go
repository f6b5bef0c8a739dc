// Package indexer turns a menu into the per-item embeddings used for search.
//
// # Basic Usage
//
//	emb, _ := embedder.New(embedder.Config{Provider: "hash"})
//	idx := indexer.New(emb, &indexer.Config{Workers: 4})
//
//	result, err := idx.Build(ctx, menu, func(done, total int) {
//	    fmt.Printf("\r%d/%d", done, total)
//	})
//	if errors.Is(err, indexer.ErrInvalidMenu) {
//	    // empty menu, or every item was invalid
//	}
//
// # Validation
//
// Items without an id, name or category are skipped with a logged warning and
// listed in Result.Skipped. The build only fails when nothing is left.
// When two items share an id the later one wins.
//
// # Item Embeddings
//
// Each item vector is the normalized sum of seven weighted feature vectors:
//
//	name                      4.0
//	description               2.0
//	category + subcategory    3.0
//	ingredients               2.5
//	allergens                 1.5
//	pairings                  1.0
//	health context            2.0
//
// The health context is synthesized by HealthContext from dietary flags,
// ingredients, description keywords, calories and subcategory.
//
// # Concurrent Processing
//
// Items are embedded by a bounded worker pool:
//
//	semaphore := make(chan struct{}, workers)
//	g, gctx := errgroup.WithContext(ctx)
//
// Cancelling ctx stops dispatch and Build returns the context error.
package indexer
