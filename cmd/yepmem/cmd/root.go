// Package cmd provides the CLI commands for yepmem.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yepmem/core/pkg/version"
)

// NewRootCmd creates the root command for the yepmem CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yepmem",
		Short: "Local code and conversation memory engine",
		Long: `yepmem indexes a repository's code and its AI-assisted conversation
history into a hybrid vector/full-text/exact store, then serves
retrieval, ranking, graph analytics, and recommendations over it.

It runs entirely locally with zero configuration required.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.SetVersionTemplate("yepmem version {{.Version}}\n")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
