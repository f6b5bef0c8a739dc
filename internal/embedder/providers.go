package embedder

import (
	"strings"
	"unicode/utf16"
)

// Provider configuration
const (
	ProviderHash = "hash"

	DefaultHashModel = "hash-ngram-v1"

	// Dimension is the length of every feature vector
	Dimension = 384

	DefaultCacheSize = 10000
)

// Scatter and n-gram weighting
const (
	positionDecay = 0.5
	bigramWeight  = 0.5
	trigramWeight = 0.3

	secondaryMultiplier = 31
	tertiaryMultiplier  = 37
)

// HashProvider implements Embedder with deterministic hashing plus
// n-gram and positional weighting. No model or network is involved.
type HashProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewHashProvider creates a hashing embedder; cache may be nil
func NewHashProvider(cache *Cache) *HashProvider {
	return &HashProvider{
		model:     DefaultHashModel,
		dimension: Dimension,
		cache:     cache,
	}
}

// FeatureVector implements Embedder
func (h *HashProvider) FeatureVector(text string, weight float64) []float32 {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return make([]float32, h.dimension)
	}

	var key string
	if h.cache != nil {
		key = cacheKey(normalized, weight)
		if vec, ok := h.cache.Get(key); ok {
			return vec
		}
	}

	vec := h.vectorize(normalized, weight)

	if h.cache != nil {
		h.cache.Set(key, vec)
	}

	return vec
}

func (h *HashProvider) vectorize(text string, weight float64) []float32 {
	acc := make([]float64, h.dimension)
	n := int64(h.dimension)

	words := strings.Fields(text)
	for i, word := range words {
		hash := HashString(word)

		primary := hash % n
		acc[primary] += weight
		acc[(hash*secondaryMultiplier)%n] += weight
		acc[(hash*tertiaryMultiplier)%n] += weight

		positionWeight := 1 - (float64(i)/float64(len(words)))*positionDecay
		acc[primary] += weight * positionWeight
	}

	for _, gram := range ngrams(words, 2) {
		acc[HashString(gram)%n] += weight * bigramWeight
	}
	for _, gram := range ngrams(words, 3) {
		acc[HashString(gram)%n] += weight * trigramWeight
	}

	vec := make([]float32, h.dimension)
	for i, v := range acc {
		vec[i] = float32(v)
	}
	return NormalizeVector(vec)
}

// HashString is a djb2-style string hash (h = h*31 + c) over UTF-16 code
// units, truncated to 32 bits, returned as a non-negative value.
func HashString(s string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// ngrams returns space-joined sliding windows of size n
func ngrams(words []string, n int) []string {
	if len(words) < n {
		return nil
	}
	out := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+n], " "))
	}
	return out
}

func (h *HashProvider) Dimension() int {
	return h.dimension
}

func (h *HashProvider) Provider() string {
	return ProviderHash
}

func (h *HashProvider) Model() string {
	return h.model
}

func (h *HashProvider) Close() error {
	if h.cache != nil {
		h.cache.Clear()
	}
	return nil
}
