package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/menusearch-mcp/internal/embedder"
)

var (
	// ErrInvalidProvider indicates an unsupported embedding provider
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidSize indicates a size or count that must be positive
	ErrInvalidSize = errors.New("invalid size")

	// ErrEmptyInstanceID indicates a missing index instance ID
	ErrEmptyInstanceID = errors.New("empty instance id")

	// ErrEmptyStoragePath indicates persistence without a storage path
	ErrEmptyStoragePath = errors.New("empty storage path")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if p := strings.ToLower(cfg.Embedding.Provider); p != embedder.ProviderHash {
		errs = append(errs, fmt.Errorf("%w: must be '%s', got '%s'", ErrInvalidProvider, embedder.ProviderHash, cfg.Embedding.Provider))
	}
	if cfg.Embedding.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: embedding.cache_size must not be negative, got %d", ErrInvalidSize, cfg.Embedding.CacheSize))
	}

	if strings.TrimSpace(cfg.Index.InstanceID) == "" {
		errs = append(errs, fmt.Errorf("%w: index.instance_id is required", ErrEmptyInstanceID))
	}
	if cfg.Index.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: index.workers must be positive, got %d", ErrInvalidSize, cfg.Index.Workers))
	}
	if cfg.Index.Persist && strings.TrimSpace(cfg.Storage.Path) == "" {
		errs = append(errs, fmt.Errorf("%w: storage.path is required when index.persist is set", ErrEmptyStoragePath))
	}

	positive := map[string]int{
		"search.top_k":           cfg.Search.TopK,
		"search.context_matches": cfg.Search.ContextMatches,
		"search.cache_size":      cfg.Search.CacheSize,
	}
	for _, key := range []string{"search.top_k", "search.context_matches", "search.cache_size"} {
		if positive[key] <= 0 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidSize, key, positive[key]))
		}
	}
	if cfg.Search.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%w: search.cache_ttl must be positive, got %v", ErrInvalidSize, cfg.Search.CacheTTL))
	}
	if cfg.Menu.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: menu.debounce must not be negative, got %v", ErrInvalidSize, cfg.Menu.Debounce))
	}

	return errors.Join(errs...)
}
