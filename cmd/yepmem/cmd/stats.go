package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yepmem/core/internal/config"
	"github.com/yepmem/core/internal/engine"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show code and conversation-memory statistics",
		Long: `Display aggregate statistics: total indexed symbols and their
language distribution, and total ingested solution chunks with their
most-touched files and contributing agents.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

type statsOutput struct {
	Code *engine.CodeStats `json:"code"`
	Memo *engine.Stats     `json:"memory"`
}

func runStats(cmd *cobra.Command, jsonOutput bool) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	e, err := engine.Open(root, nil)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer func() { _ = e.Close() }()

	ctx := cmd.Context()
	codeStats, err := e.GetCodeStats(ctx)
	if err != nil {
		return fmt.Errorf("get code stats: %w", err)
	}
	memStats, err := e.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get memory stats: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(statsOutput{Code: codeStats, Memo: memStats})
	}
	return printStatsFormatted(cmd, codeStats, memStats)
}

func printStatsFormatted(cmd *cobra.Command, code *engine.CodeStats, mem *engine.Stats) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Code Statistics")
	fmt.Fprintln(w, "===============")
	if !code.HasTable {
		fmt.Fprintln(w, "(no code indexed yet, run 'yepmem index')")
	} else {
		fmt.Fprintf(w, "Total Symbols: %d\n", code.TotalSymbols)
		fmt.Fprintln(w, "Languages:")
		for _, l := range code.Languages {
			fmt.Fprintf(w, "  %s: %d\n", l.Name, l.Count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Conversation Memory")
	fmt.Fprintln(w, "===================")
	if !mem.HasTable {
		fmt.Fprintln(w, "(no solutions ingested yet)")
		return nil
	}
	fmt.Fprintf(w, "Total Chunks: %d\n", mem.TotalChunks)
	if len(mem.TopFiles) > 0 {
		fmt.Fprintln(w, "Top Files:")
		for i, f := range mem.TopFiles {
			fmt.Fprintf(w, "  %d. %s (%d)\n", i+1, f.Name, f.Count)
		}
	}
	if len(mem.Agents) > 0 {
		fmt.Fprintln(w, "Agents:")
		for _, a := range mem.Agents {
			fmt.Fprintf(w, "  %s: %d\n", a.Name, a.Count)
		}
	}
	return nil
}
