package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yepmem/core/internal/config"
	"github.com/yepmem/core/internal/engine"
)

// checkStatus is the outcome of a single doctor check.
type checkStatus string

const (
	statusPass checkStatus = "pass"
	statusFail checkStatus = "fail"
)

// checkResult is one diagnostic check's outcome.
type checkResult struct {
	Name    string      `json:"name"`
	Status  checkStatus `json:"status"`
	Message string      `json:"message"`
}

func newDoctorCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that yepmem can operate in this directory",
		Long: `Run diagnostics against the current project: write permissions for
the store directory, and whether the engine (store, embedder, and
every wired collaborator) opens successfully.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runDoctor(cmd *cobra.Command, jsonOutput bool) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	results := []checkResult{
		checkWritable(root),
		checkEngineOpens(root),
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encode doctor results: %w", err)
		}
	} else {
		printDoctorResults(cmd, results)
	}

	for _, r := range results {
		if r.Status == statusFail {
			return fmt.Errorf("doctor: system check failed")
		}
	}
	return nil
}

func printDoctorResults(cmd *cobra.Command, results []checkResult) {
	w := cmd.OutOrStdout()
	for _, r := range results {
		mark := "ok"
		if r.Status == statusFail {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", mark, r.Name, r.Message)
	}
}

func checkWritable(root string) checkResult {
	probe := filepath.Join(root, ".yepmem-doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return checkResult{Name: "write permissions", Status: statusFail, Message: err.Error()}
	}
	_ = os.Remove(probe)
	return checkResult{Name: "write permissions", Status: statusPass, Message: root + " is writable"}
}

func checkEngineOpens(root string) checkResult {
	e, err := engine.Open(root, nil)
	if err != nil {
		return checkResult{Name: "engine", Status: statusFail, Message: err.Error()}
	}
	defer func() { _ = e.Close() }()
	return checkResult{Name: "engine", Status: statusPass, Message: "store and embedder opened successfully"}
}
