package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/menusearch-mcp/internal/searcher"
	"github.com/dshills/menusearch-mcp/pkg/types"
)

// ErrNoIndex is returned when there is nothing to search
var ErrNoIndex = errors.New("no persisted index found; run 'menusearch index <menu-file>' or pass --menu")

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search a menu",
		Long: `Search the persisted menu index with a natural language query.
With --menu the file is indexed first instead of restoring the persisted index.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().String("menu", "", "Menu file to index before searching")
	cmd.Flags().IntP("number", "n", 10, "Maximum results (0 for all)")
	cmd.Flags().String("mode", string(searcher.SearchModeHybrid), "Search mode: hybrid, vector or keyword")
	cmd.Flags().StringSliceP("category", "c", nil, "Only return categories matching these glob patterns")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("number")
	mode, _ := cmd.Flags().GetString("mode")
	categories, _ := cmd.Flags().GetStringSlice("category")
	asJSON, _ := cmd.Flags().GetBool("json")

	if menuPath, _ := cmd.Flags().GetString("menu"); menuPath != "" {
		if err := indexMenuFile(ctx, a.service, menuPath); err != nil {
			return err
		}
	} else {
		restored, err := a.service.Restore(ctx)
		if err != nil {
			return err
		}
		if !restored {
			return ErrNoIndex
		}
	}

	resp, err := a.service.SearchWith(ctx, searcher.SearchRequest{
		Query:      query,
		Limit:      limit,
		Mode:       searcher.SearchMode(mode),
		Categories: categories,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if asJSON {
		return outputSearchJSON(cmd, resp)
	}
	printGrouped(cmd, resp)
	return nil
}

func printGrouped(cmd *cobra.Command, resp *searcher.SearchResponse) {
	w := cmd.OutOrStdout()
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}

	for _, category := range resp.Grouped.Categories(resp.Results) {
		fmt.Fprintln(w, category)
		for _, r := range resp.Grouped[category] {
			fmt.Fprintf(w, "  %.4f  %-30s  $%.2f%s\n", r.Similarity, r.Item.Name, float64(r.Item.Price), dietaryTags(r.Item.Dietary))
		}
	}
	fmt.Fprintf(w, "\n%d of %d results (%s, %v)\n", len(resp.Results), resp.TotalResults, resp.SearchMode, resp.Duration)
}

func dietaryTags(d types.Dietary) string {
	var tags []string
	if d.IsVegan {
		tags = append(tags, "vegan")
	} else if d.IsVegetarian {
		tags = append(tags, "vegetarian")
	}
	if d.IsGlutenFree {
		tags = append(tags, "gluten-free")
	}
	if len(tags) == 0 {
		return ""
	}
	return "  [" + strings.Join(tags, ", ") + "]"
}

func outputSearchJSON(cmd *cobra.Command, resp *searcher.SearchResponse) error {
	results := make([]map[string]any, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, map[string]any{
			"similarity": r.Similarity,
			"item":       r.Item,
		})
	}

	grouped := make(map[string][]string, len(resp.Grouped))
	for category, items := range resp.Grouped {
		ids := make([]string, 0, len(items))
		for _, r := range items {
			ids = append(ids, r.Item.ID)
		}
		grouped[category] = ids
	}

	out := map[string]any{
		"results":       results,
		"grouped":       grouped,
		"total_results": resp.TotalResults,
		"search_mode":   resp.SearchMode,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
