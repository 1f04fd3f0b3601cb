package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yepmem/core/internal/config"
	"github.com/yepmem/core/internal/engine"
	"github.com/yepmem/core/internal/store"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index health and status",
		Long: `Display the state of the local store: indexed symbol and solution
counts, the embedder in use, on-disk store size, and the most recent
structural-metrics snapshot.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// statusInfo is the status command's reporting shape.
type statusInfo struct {
	ProjectName     string  `json:"project_name"`
	StoreDir        string  `json:"store_dir"`
	StoreSizeBytes  int64   `json:"store_size_bytes"`
	EmbedderProvider string `json:"embedder_provider"`
	EmbedderModel   string  `json:"embedder_model"`
	TotalSymbols    int     `json:"total_symbols"`
	TotalChunks     int     `json:"total_chunks"`
	HasSnapshot     bool    `json:"has_snapshot"`
	SnapshotHealth  float64 `json:"snapshot_health_score,omitempty"`
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	storeDir := filepath.Join(root, store.DataDirName)
	if !dirExists(storeDir) {
		return fmt.Errorf("no index found in %s\nrun 'yepmem index' to create one", root)
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	e, err := engine.Open(root, cfg)
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
	snap, err := e.GetLatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("get latest snapshot: %w", err)
	}

	info := statusInfo{
		ProjectName:      filepath.Base(root),
		StoreDir:         storeDir,
		StoreSizeBytes:   getDirSize(storeDir),
		EmbedderProvider: cfg.Embeddings.Provider,
		EmbedderModel:    cfg.Embeddings.Model,
		TotalSymbols:     codeStats.TotalSymbols,
		TotalChunks:      memStats.TotalChunks,
	}
	if snap != nil {
		info.HasSnapshot = true
		info.SnapshotHealth = snap.HealthScore
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	return printStatus(cmd, info)
}

func printStatus(cmd *cobra.Command, info statusInfo) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Project: %s\n", info.ProjectName)
	fmt.Fprintf(w, "Store: %s (%s)\n", info.StoreDir, formatBytes(info.StoreSizeBytes))
	fmt.Fprintf(w, "Embedder: %s/%s\n", info.EmbedderProvider, info.EmbedderModel)
	fmt.Fprintf(w, "Symbols indexed: %d\n", info.TotalSymbols)
	fmt.Fprintf(w, "Solution chunks: %d\n", info.TotalChunks)
	if info.HasSnapshot {
		fmt.Fprintf(w, "Latest snapshot health score: %.2f\n", info.SnapshotHealth)
	} else {
		fmt.Fprintln(w, "Latest snapshot: none captured yet")
	}
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// getDirSize returns the total size of all files under path.
func getDirSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}
