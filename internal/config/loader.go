package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (MENUSEARCH_SEARCH_TOP_K, ...)
const EnvPrefix = "MENUSEARCH"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader that looks for .menusearch/config.yml under rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader for an explicit config file.
func NewFileLoader(path string) Loader {
	return &loader{configFile: path}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (MENUSEARCH_*)
// 2. Config file (.menusearch/config.yml or .menusearch/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".menusearch"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., MENUSEARCH_SEARCH_TOP_K)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("embedding.provider", defaults.Embedding.Provider)
	v.SetDefault("embedding.cache_size", defaults.Embedding.CacheSize)

	v.SetDefault("index.instance_id", defaults.Index.InstanceID)
	v.SetDefault("index.workers", defaults.Index.Workers)
	v.SetDefault("index.persist", defaults.Index.Persist)

	v.SetDefault("storage.path", defaults.Storage.Path)

	v.SetDefault("search.top_k", defaults.Search.TopK)
	v.SetDefault("search.context_matches", defaults.Search.ContextMatches)
	v.SetDefault("search.use_cache", defaults.Search.UseCache)
	v.SetDefault("search.cache_size", defaults.Search.CacheSize)
	v.SetDefault("search.cache_ttl", defaults.Search.CacheTTL)

	v.SetDefault("menu.path", defaults.Menu.Path)
	v.SetDefault("menu.watch", defaults.Menu.Watch)
	v.SetDefault("menu.debounce", defaults.Menu.Debounce)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}
