// Package embedder turns menu text into fixed-length feature vectors.
//
// Vectors come from deterministic hashing rather than a trained model. Each
// word of the lowercased text is hashed (djb2 style, 32-bit) and its weight
// scattered into three of the 384 dimensions. The word's first slot also gets
// a position bonus so leading words (usually the dish name) count for more.
// Bigrams and trigrams add smaller contributions so short phrases are
// captured. The result is normalized to unit length.
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{Provider: "hash", CacheSize: 10000})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	vec := emb.FeatureVector("Grilled Salmon Salad", 4.0)
//	fmt.Println(len(vec)) // 384
//
// Blank text yields an all-zero vector, never NaNs, so callers can sum
// field vectors without checking each input.
//
// # Combining Vectors
//
//	combined, err := embedder.Sum(embedder.Dimension,
//	    emb.FeatureVector(item.Name, 4.0),
//	    emb.FeatureVector(item.Description, 2.0),
//	)
//
// # Caching
//
// The hash provider optionally memoises vectors in an LRU cache keyed by
// SHA-256 of (weight, text). Cached vectors are copied on the way in and out.
package embedder
