package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/dshills/menusearch-mcp/internal/indexer"
	"github.com/dshills/menusearch-mcp/internal/mcp"
	"github.com/dshills/menusearch-mcp/internal/menu"
	"github.com/dshills/menusearch-mcp/internal/service"
	"github.com/dshills/menusearch-mcp/internal/storage"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Run the MCP server on stdio. The persisted index is restored when present.
With --menu the file is indexed at startup, and with --watch it is re-indexed whenever it changes.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("menu", "", "Menu file to index at startup (overrides menu.path)")
	cmd.Flags().Bool("watch", false, "Re-index when the menu file changes (overrides menu.watch)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	log.Printf("menusearch MCP server v%s starting...", cmd.Root().Version)
	log.Printf("Build Mode: %s, Driver: %s", storage.BuildMode, storage.DriverName)

	menuPath := a.cfg.Menu.Path
	if flag, _ := cmd.Flags().GetString("menu"); flag != "" {
		menuPath = flag
	}
	watch := a.cfg.Menu.Watch
	if cmd.Flags().Changed("watch") {
		watch, _ = cmd.Flags().GetBool("watch")
	}
	if watch && menuPath == "" {
		return errors.New("--watch requires a menu file (--menu or menu.path)")
	}

	restored, err := a.service.Restore(ctx)
	switch {
	case err != nil:
		log.Printf("warning: could not restore persisted index: %v", err)
	case restored:
		log.Printf("Restored index %s with %d items", a.service.InstanceID(), a.service.Status().ItemCount)
	}

	if menuPath != "" {
		if err := indexMenuFile(ctx, a.service, menuPath); err != nil {
			return err
		}
	}

	if watch {
		w, err := menu.NewWatcher(menuPath, menu.ReloadFunc(func(ctx context.Context, path string) error {
			return indexMenuFile(ctx, a.service, path)
		}), a.cfg.Menu.Debounce)
		if err != nil {
			return fmt.Errorf("failed to watch menu: %w", err)
		}
		w.Start(ctx)
		defer w.Stop()
		log.Printf("Watching %s for changes", w.Path())
	}

	srv := mcp.NewServer(a.service, a.storage)
	log.Println("MCP server ready, listening on stdio...")
	return srv.Serve(ctx)
}

// indexMenuFile loads a menu file and rebuilds the service's index from it.
// A file that fails to load or has no indexable items leaves the current
// index untouched.
func indexMenuFile(ctx context.Context, svc *service.Service, path string) error {
	m, err := menu.Load(path)
	if err != nil {
		return err
	}
	if menu.ValidCount(m) == 0 {
		return fmt.Errorf("%s: %w", path, indexer.ErrNoValidItems)
	}
	if err := svc.InitializeIndex(ctx, m); err != nil {
		return fmt.Errorf("failed to index %s: %w", path, err)
	}
	return nil
}
