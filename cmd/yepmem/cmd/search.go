package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yepmem/core/internal/config"
	"github.com/yepmem/core/internal/engine"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit      int
	language   string
	symbolType string
	path       string
	format     string // "text", "json"
	rerank     bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed codebase",
		Long: `Search the indexed codebase using hybrid retrieval (vector + full-text
+ exact match, fused by Reciprocal Rank Fusion).

Examples:
  yepmem search "authentication middleware"
  yepmem search "handleRequest" --type function --limit 5
  yepmem search "error handling" --format json --rerank`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Filter by language (e.g., go, python)")
	cmd.Flags().StringVarP(&opts.symbolType, "type", "t", "", "Filter by symbol type (e.g., function, struct)")
	cmd.Flags().StringVarP(&opts.path, "path", "p", "", "Filter by path substring")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.rerank, "rerank", false, "Re-score fused results with the multi-signal ranker")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	e, err := engine.Open(root, nil)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer func() { _ = e.Close() }()

	results, err := e.SearchCode(ctx, query, nil, opts.limit, engine.SearchOptions{
		Language:     opts.language,
		SymbolType:   opts.symbolType,
		PathContains: opts.path,
		Rerank:       opts.rerank,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no results found for %q\n", query)
		return nil
	}

	switch opts.format {
	case "json":
		return formatSearchJSON(cmd, results)
	default:
		return formatSearchText(cmd, query, results)
	}
}

func formatSearchText(cmd *cobra.Command, query string, results []*engine.CodeResult) error {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "found %d results for %q:\n\n", len(results), query)
	for i, r := range results {
		row := r.Hit.Row
		_, _ = fmt.Fprintf(out, "%d. %s:%s (%s, score: %.3f)\n", i+1, row.Path, row.Symbol, row.SymbolType, r.Score)
		if row.Summary != "" {
			_, _ = fmt.Fprintf(out, "   %s\n", row.Summary)
		}
	}
	return nil
}

func formatSearchJSON(cmd *cobra.Command, results []*engine.CodeResult) error {
	type jsonResult struct {
		Path       string  `json:"path"`
		Symbol     string  `json:"symbol"`
		SymbolType string  `json:"symbol_type"`
		Language   string  `json:"language"`
		Score      float64 `json:"score"`
		Summary    string  `json:"summary,omitempty"`
	}

	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		row := r.Hit.Row
		out = append(out, jsonResult{
			Path:       row.Path,
			Symbol:     row.Symbol,
			SymbolType: row.SymbolType,
			Language:   row.Language,
			Score:      r.Score,
			Summary:    row.Summary,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
