package cmd

import (
	"camera-ingest/config"
	"github.com/spf13/cobra"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "camera-ingest",
		Short:         "record traffic camera clips and stage frames for accident detection",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(
		server(config),
		cameras(config),
		signs(config),
		record(config),
		preview(config),
		compose(config),
	)
	return rootCmd
}
