package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/menusearch-mcp/internal/embedder"
)

// NewEmbedCmd creates the embed command, a debugging aid for the vectorizer
func NewEmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed <text>",
		Short: "Print the feature vector for a piece of text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runEmbed,
	}

	cmd.Flags().Float64P("weight", "w", 1.0, "Field weight applied before normalization")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func runEmbed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	emb, err := embedder.New(cfg.EmbedderConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}
	defer func() { _ = emb.Close() }()

	text := strings.Join(args, " ")
	weight, _ := cmd.Flags().GetFloat64("weight")
	asJSON, _ := cmd.Flags().GetBool("json")

	vec := emb.FeatureVector(text, weight)

	type component struct {
		Index int     `json:"index"`
		Value float32 `json:"value"`
	}
	var nonZero []component
	for i, v := range vec {
		if v != 0 {
			nonZero = append(nonZero, component{Index: i, Value: v})
		}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"text":      text,
			"weight":    weight,
			"dimension": emb.Dimension(),
			"norm":      embedder.Norm(vec),
			"non_zero":  nonZero,
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s/%s, %d dimensions, %d non-zero, norm %.4f\n",
		emb.Provider(), emb.Model(), emb.Dimension(), len(nonZero), embedder.Norm(vec))
	for _, c := range nonZero {
		fmt.Fprintf(w, "%4d  %+.6f\n", c.Index, c.Value)
	}
	return nil
}
