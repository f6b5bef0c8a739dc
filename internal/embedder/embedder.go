package embedder

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrDimensionMismatch   = errors.New("vector dimension mismatch")
)

// Embedder turns text into fixed-length feature vectors
type Embedder interface {
	// FeatureVector returns a unit-normalized vector for text scaled by weight.
	// Blank text yields an all-zero vector.
	FeatureVector(text string, weight float64) []float32

	// Dimension returns the length of every vector produced
	Dimension() int

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the embedder
	Close() error
}

// Cache provides in-memory LRU caching of feature vectors by content hash
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates a new vector cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cache{
		cache: cache,
	}
}

// Get returns a copy of a cached vector so callers can mutate it freely
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a copy of vec
func (c *Cache) Set(hash string, vec []float32) {
	stored := make([]float32, len(vec))
	copy(stored, vec)
	c.cache.Add(hash, stored)
}

// Size returns the current cache size
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeHash computes SHA-256 hash of text for caching
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// cacheKey identifies a (text, weight) pair
func cacheKey(text string, weight float64) string {
	return ComputeHash(strconv.FormatFloat(weight, 'g', -1, 64) + "|" + text)
}

// NormalizeVector normalizes a vector to unit length. A zero vector is returned unchanged.
func NormalizeVector(v []float32) []float32 {
	norm := Norm(v)
	if norm == 0 {
		return v
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = float32(float64(val) / norm)
	}

	return result
}

// Norm returns the Euclidean norm of v
func Norm(v []float32) float64 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return math.Sqrt(sum)
}

// AddScaled adds src*scale into dst component-wise
func AddScaled(dst, src []float32, scale float64) error {
	if len(dst) != len(src) {
		return ErrDimensionMismatch
	}
	for i := range src {
		dst[i] += float32(float64(src[i]) * scale)
	}
	return nil
}

// Sum adds vectors component-wise and normalizes the result
func Sum(dimension int, vectors ...[]float32) ([]float32, error) {
	out := make([]float32, dimension)
	for _, v := range vectors {
		if err := AddScaled(out, v, 1); err != nil {
			return nil, err
		}
	}
	return NormalizeVector(out), nil
}

// IsZero reports whether every component is zero
func IsZero(v []float32) bool {
	for _, val := range v {
		if val != 0 {
			return false
		}
	}
	return true
}

// CosineSimilarity computes the cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
