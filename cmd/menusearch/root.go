package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the menusearch command tree
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "menusearch",
		Short:         "Semantic search over restaurant menus",
		Long:          `Index a restaurant menu and search it with natural language, from the command line or as an MCP server.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(
		NewServeCmd(),
		NewIndexCmd(),
		NewSearchCmd(),
		NewEmbedCmd(),
		NewVersionCmd(version),
	)

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (default .menusearch/config.yml)")
	cmd.PersistentFlags().String("db", "", "Index database path (overrides storage.path)")
	cmd.PersistentFlags().String("instance", "", "Index instance ID (overrides index.instance_id)")
}
