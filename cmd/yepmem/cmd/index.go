package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yepmem/core/internal/config"
	"github.com/yepmem/core/internal/engine"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Index a repository's code for retrieval",
		Long: `Index walks a repository, parses and chunks every supported source
file, embeds and upserts the result into the local store, and
captures a structural-metrics snapshot.

A re-run only re-processes files changed since the last indexed
commit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			root, err := config.FindProjectRoot(absPath)
			if err != nil {
				root = absPath
			}

			e, err := engine.Open(root, nil)
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer func() { _ = e.Close() }()

			result, err := e.RunCodeIndex(ctx)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"indexed %d files, %d symbols (%d batch failures) in %s\n",
				result.FilesIndexed, result.SymbolsIndexed, result.BatchFailures, result.Duration)
			return nil
		},
	}

	return cmd
}
