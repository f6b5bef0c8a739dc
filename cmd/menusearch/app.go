package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/menusearch-mcp/internal/config"
	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/internal/service"
	"github.com/dshills/menusearch-mcp/internal/storage"
)

// app bundles what a command needs to run against one index
type app struct {
	cfg     *config.Config
	service *service.Service
	storage storage.Storage // nil when persistence is off
}

// Close releases the service and the database
func (a *app) Close() {
	if err := a.service.Close(); err != nil {
		log.Printf("warning: failed to close service: %v", err)
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			log.Printf("warning: failed to close storage: %v", err)
		}
	}
}

// loadConfig reads configuration and applies persistent flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var loader config.Loader
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader = config.NewFileLoader(path)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		loader = config.NewLoader(wd)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Storage.Path = db
		cfg.Index.Persist = true
	}
	if instance, _ := cmd.Flags().GetString("instance"); instance != "" {
		cfg.Index.InstanceID = instance
	}

	return cfg, nil
}

// newApp wires embedder, storage and service from configuration
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	emb, err := embedder.New(cfg.EmbedderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	var store storage.Storage
	if cfg.Index.Persist {
		store, err = openStorage(cfg)
		if err != nil {
			return nil, err
		}
	}

	opts := cfg.ServiceOptions()
	opts.Embedder = emb
	opts.Storage = store

	svc, err := service.New(opts)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	return &app{cfg: cfg, service: svc, storage: store}, nil
}

func openStorage(cfg *config.Config) (storage.Storage, error) {
	dbPath, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}
