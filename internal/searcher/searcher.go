package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/pkg/types"
)

var (
	// ErrNoCorpus is returned when searching before a corpus is loaded
	ErrNoCorpus = errors.New("no index loaded")
	// ErrInvalidCategoryPattern is returned for a malformed category glob
	ErrInvalidCategoryPattern = errors.New("invalid category pattern")
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeHybrid  SearchMode = "hybrid"  // Vector + lexical with context blending
	SearchModeVector  SearchMode = "vector"  // Vector similarity only
	SearchModeKeyword SearchMode = "keyword" // Lexical matching only
)

// Defaults
const (
	DefaultTopK           = 50
	DefaultContextMatches = 5
	DefaultCacheSize      = 1000
	DefaultCacheTTL       = time.Hour
)

// Merge weights
const (
	vectorWeight  = 0.6
	lexicalWeight = 0.4
)

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query      string
	Limit      int // 0 returns every match
	Mode       SearchMode
	Categories []string // glob patterns, case-insensitive
	UseCache   bool
	CacheTTL   time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results        []types.SearchResult
	Grouped        types.GroupedResults
	TotalResults   int // matches before Limit
	SearchMode     SearchMode
	Duration       time.Duration
	CacheHit       bool
	VectorResults  int
	LexicalResults int
}

// Config contains searcher tuning
type Config struct {
	TopK           int
	ContextMatches int
	CacheSize      int
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher scores queries against the currently loaded corpus
type Searcher struct {
	embedder       embedder.Embedder
	topK           int
	contextMatches int

	corpus  atomic.Pointer[Corpus]
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// New creates a new Searcher instance
func New(emb embedder.Embedder, config *Config) *Searcher {
	cfg := Config{
		TopK:           DefaultTopK,
		ContextMatches: DefaultContextMatches,
		CacheSize:      DefaultCacheSize,
	}
	if config != nil {
		if config.TopK > 0 {
			cfg.TopK = config.TopK
		}
		if config.ContextMatches > 0 {
			cfg.ContextMatches = config.ContextMatches
		}
		if config.CacheSize > 0 {
			cfg.CacheSize = config.CacheSize
		}
	}

	cache, err := lru.New[[32]byte, *cacheEntry](cfg.CacheSize)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		embedder:       emb,
		topK:           cfg.TopK,
		contextMatches: cfg.ContextMatches,
		cache:          cache,
	}
}

// Load swaps in a new corpus and drops cached responses.
// The previous corpus is returned so the caller can release it.
func (s *Searcher) Load(c *Corpus) *Corpus {
	old := s.corpus.Swap(c)
	s.InvalidateCache()
	return old
}

// Reset unloads the corpus and releases its vector index
func (s *Searcher) Reset() error {
	old := s.corpus.Swap(nil)
	s.InvalidateCache()
	if old != nil {
		return old.Release()
	}
	return nil
}

// Corpus returns the loaded corpus, or nil
func (s *Searcher) Corpus() *Corpus {
	return s.corpus.Load()
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	query := strings.ToLower(strings.TrimSpace(req.Query))
	if query == "" {
		return emptyResponse(req.Mode), nil
	}

	if err := validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	corpus := s.corpus.Load()
	if corpus == nil {
		return nil, ErrNoCorpus
	}

	filter, err := compileCategories(req.Categories)
	if err != nil {
		return nil, err
	}

	hash := computeQueryHash(query, req, corpus.generation)
	if req.UseCache {
		if cached := s.checkCache(hash); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	words := strings.Fields(query)
	candidates := make(map[string]*candidate)
	response := &SearchResponse{SearchMode: req.Mode}

	var lexical []lexicalHit
	if req.Mode != SearchModeVector {
		lexical = scoreLexical(corpus, words)
		response.LexicalResults = len(lexical)
	}

	if req.Mode != SearchModeKeyword {
		matches, err := s.vectorPass(ctx, corpus, query, lexical, req.Mode == SearchModeHybrid)
		if err != nil {
			return nil, err
		}
		response.VectorResults = len(matches)
		for _, m := range matches {
			emb, ok := corpus.Get(m.ID)
			if !ok {
				continue
			}
			candidates[m.ID] = &candidate{item: &emb.Item, score: m.Similarity * vectorWeight}
		}
	}

	for _, h := range lexical {
		id := h.emb.Item.ID
		if c, ok := candidates[id]; ok {
			c.score += h.score * lexicalWeight
		} else {
			candidates[id] = &candidate{item: &h.emb.Item, score: h.score * lexicalWeight}
		}
	}

	for _, c := range candidates {
		c.score += semanticBoost(c.item, query, words)
	}

	results := finalize(candidates, filter)
	response.TotalResults = len(results)
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	response.Results = results
	response.Grouped = types.GroupByCategory(results)
	response.Duration = time.Since(startTime)

	if req.UseCache {
		s.storeInCache(hash, req.CacheTTL, response)
	}

	return response, nil
}

// vectorPass embeds the query, optionally blends in the lexical context and
// runs the nearest-neighbor search
func (s *Searcher) vectorPass(ctx context.Context, corpus *Corpus, query string, lexical []lexicalHit, blend bool) ([]vectorMatch, error) {
	qv, err := s.queryVector(query)
	if err != nil {
		return nil, fmt.Errorf("failed to build query vector: %w", err)
	}

	if blend {
		ctxVec, err := contextVector(len(qv), topLexical(lexical, s.contextMatches))
		if err != nil {
			return nil, fmt.Errorf("failed to build context vector: %w", err)
		}
		if qv, err = blendVectors(qv, ctxVec); err != nil {
			return nil, fmt.Errorf("failed to blend query vector: %w", err)
		}
	}

	matches, err := corpus.vectors.Search(ctx, qv, s.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	out := make([]vectorMatch, len(matches))
	for i, m := range matches {
		out[i] = vectorMatch{ID: m.ID, Similarity: m.Similarity}
	}
	return out, nil
}

type vectorMatch struct {
	ID         string
	Similarity float64
}

type candidate struct {
	item  *types.MenuItem
	score float64
}

// finalize drops incomplete or filtered items and sorts by score, then ID
func finalize(candidates map[string]*candidate, filter []glob.Glob) []types.SearchResult {
	results := make([]types.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.item.Name) == "" || strings.TrimSpace(c.item.Category) == "" {
			continue
		}
		if !matchesCategory(filter, c.item.Category) {
			continue
		}
		results = append(results, types.SearchResult{Item: c.item.Clone(), Similarity: c.score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Item.ID < results[j].Item.ID
	})
	return results
}

func compileCategories(patterns []string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidCategoryPattern, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchesCategory(filter []glob.Glob, category string) bool {
	if len(filter) == 0 {
		return true
	}
	category = strings.ToLower(category)
	for _, g := range filter {
		if g.Match(category) {
			return true
		}
	}
	return false
}

func emptyResponse(mode SearchMode) *SearchResponse {
	if mode == "" {
		mode = SearchModeHybrid
	}
	return &SearchResponse{
		Results:    []types.SearchResult{},
		Grouped:    types.GroupedResults{},
		SearchMode: mode,
	}
}

// validateRequest ensures search request is valid
func validateRequest(req *SearchRequest) error {
	if req.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}

	if req.Mode == "" {
		req.Mode = SearchModeHybrid // Default mode
	}

	switch req.Mode {
	case SearchModeHybrid, SearchModeVector, SearchModeKeyword:
	default:
		return fmt.Errorf("unsupported search mode: %s", req.Mode)
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	return nil
}

// checkCache returns a copy of a live cached response, or nil
func (s *Searcher) checkCache(hash [32]byte) *SearchResponse {
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()

		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

// storeInCache saves a copy of the response
func (s *Searcher) storeInCache(hash [32]byte, ttl time.Duration, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(ttl),
	}

	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops every cached response
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen returns the number of cached responses
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	for i, r := range src.Results {
		dst.Results[i] = types.SearchResult{Item: r.Item.Clone(), Similarity: r.Similarity}
	}
	dst.Grouped = types.GroupByCategory(dst.Results)
	return &dst
}

// computeQueryHash computes a unique hash for a search request against one corpus
func computeQueryHash(query string, req SearchRequest, generation uint64) [32]byte {
	var data strings.Builder
	data.WriteString(query)
	data.WriteString("|")
	data.WriteString(string(req.Mode))
	data.WriteString("|")
	data.WriteString(strconv.Itoa(req.Limit))
	data.WriteString("|")
	data.WriteString(strconv.FormatUint(generation, 10))

	if len(req.Categories) > 0 {
		cats := make([]string, len(req.Categories))
		for i, c := range req.Categories {
			cats[i] = strings.ToLower(strings.TrimSpace(c))
		}
		sort.Strings(cats)
		data.WriteString("|categories:")
		data.WriteString(strings.Join(cats, ","))
	}

	return sha256.Sum256([]byte(data.String()))
}
