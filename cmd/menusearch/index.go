package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dshills/menusearch-mcp/internal/menu"
	"github.com/dshills/menusearch-mcp/internal/service"
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <menu-file>",
		Short: "Build and persist the search index for a menu file",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndex,
	}

	cmd.Flags().BoolP("quiet", "q", false, "Hide the progress bar")
	cmd.Flags().Bool("json", false, "Output statistics in JSON format")
	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := menu.Load(args[0])
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	asJSON, _ := cmd.Flags().GetBool("json")

	if !quiet {
		bar := newProgressBar(cmd, len(m.Items))
		id := a.service.AddStateListener(func(state service.State, _ error, p service.Progress) {
			if state == service.StateLoading && p.Done > 0 {
				_ = bar.Set(p.Done)
			}
			if state == service.StateReady {
				_ = bar.Finish()
			}
		})
		defer a.service.RemoveStateListener(id)
	}

	if err := a.service.InitializeIndex(cmd.Context(), m); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	status := a.service.Status()
	stats := status.LastBuild

	if asJSON {
		out := map[string]any{
			"instance_id":   status.InstanceID,
			"items_total":   stats.ItemsTotal,
			"items_indexed": stats.ItemsIndexed,
			"items_skipped": stats.ItemsSkipped,
			"duplicates":    stats.Duplicates,
			"duration_ms":   stats.Duration.Milliseconds(),
			"persisted":     a.storage != nil,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Indexed %d of %d items into %q in %v\n",
		stats.ItemsIndexed, stats.ItemsTotal, status.InstanceID, stats.Duration.Round(time.Millisecond))
	if stats.ItemsSkipped > 0 {
		fmt.Fprintf(w, "Skipped %d invalid items\n", stats.ItemsSkipped)
	}
	if stats.Duplicates > 0 {
		fmt.Fprintf(w, "Replaced %d duplicate item IDs\n", stats.Duplicates)
	}
	if a.storage == nil {
		fmt.Fprintln(w, "Persistence is disabled; the index was not saved")
	}
	return nil
}

func newProgressBar(cmd *cobra.Command, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Embedding items"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("items/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)
}
