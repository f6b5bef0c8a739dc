package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/menusearch-mcp/internal/embedder"
	"github.com/dshills/menusearch-mcp/internal/storage"
)

// NewVersionCmd creates the version command
func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "menusearch MCP Server\n")
			fmt.Fprintf(w, "Version: %s\n", version)
			fmt.Fprintf(w, "Build Time: %s\n", buildTime)
			fmt.Fprintf(w, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(w, "SQLite Driver: %s\n", storage.DriverName)
			fmt.Fprintf(w, "Native SQLite: %v\n", storage.NativeDriver)
			fmt.Fprintf(w, "Schema Version: %s\n", storage.CurrentSchemaVersion)
			fmt.Fprintf(w, "Embedding Model: %s (%d dimensions)\n", embedder.DefaultHashModel, embedder.Dimension)
		},
	}
}
