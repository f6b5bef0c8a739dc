package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/internal/searcher"
	"github.com/dshills/menusearch-mcp/internal/service"
)

// Config represents the complete menusearch configuration.
// It can be loaded from .menusearch/config.yml with environment variable overrides.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Index     IndexConfig     `yaml:"index" mapstructure:"index"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Menu      MenuConfig      `yaml:"menu" mapstructure:"menu"`
}

// EmbeddingConfig configures the feature vectorizer.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`     // only "hash" is supported
	CacheSize int    `yaml:"cache_size" mapstructure:"cache_size"` // 0 disables the vector cache
}

// IndexConfig configures index builds.
type IndexConfig struct {
	InstanceID string `yaml:"instance_id" mapstructure:"instance_id"` // persisted index key
	Workers    int    `yaml:"workers" mapstructure:"workers"`         // embedding workers
	Persist    bool   `yaml:"persist" mapstructure:"persist"`         // save builds to storage.path
}

// StorageConfig locates the on-disk index database.
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // "~" expands to the home directory
}

// SearchConfig tunes query scoring and caching.
type SearchConfig struct {
	TopK           int           `yaml:"top_k" mapstructure:"top_k"`
	ContextMatches int           `yaml:"context_matches" mapstructure:"context_matches"`
	UseCache       bool          `yaml:"use_cache" mapstructure:"use_cache"`
	CacheSize      int           `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTL       time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// MenuConfig points at the menu file served by default.
type MenuConfig struct {
	Path     string        `yaml:"path" mapstructure:"path"`
	Watch    bool          `yaml:"watch" mapstructure:"watch"`
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:  embedder.ProviderHash,
			CacheSize: embedder.DefaultCacheSize,
		},
		Index: IndexConfig{
			InstanceID: "default",
			Workers:    runtime.NumCPU(),
			Persist:    true,
		},
		Storage: StorageConfig{
			Path: "~/.menusearch/index.db",
		},
		Search: SearchConfig{
			TopK:           searcher.DefaultTopK,
			ContextMatches: searcher.DefaultContextMatches,
			UseCache:       true,
			CacheSize:      searcher.DefaultCacheSize,
			CacheTTL:       searcher.DefaultCacheTTL,
		},
		Menu: MenuConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// StoragePath returns Storage.Path with a leading "~" expanded.
func (c *Config) StoragePath() (string, error) {
	return expandHome(c.Storage.Path)
}

// EmbedderConfig converts the embedding section for embedder.New.
func (c *Config) EmbedderConfig() embedder.Config {
	return embedder.Config{
		Provider:  c.Embedding.Provider,
		CacheSize: c.Embedding.CacheSize,
	}
}

// ServiceOptions fills service options from the index and search sections.
// Embedder and Storage are left for the caller.
func (c *Config) ServiceOptions() service.Options {
	return service.Options{
		InstanceID:     c.Index.InstanceID,
		Workers:        c.Index.Workers,
		TopK:           c.Search.TopK,
		ContextMatches: c.Search.ContextMatches,
		CacheSize:      c.Search.CacheSize,
		CacheTTL:       c.Search.CacheTTL,
		UseCache:       c.Search.UseCache,
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
