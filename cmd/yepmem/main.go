// Package main provides the entry point for the yepmem CLI.
package main

import (
	"os"

	"github.com/yepmem/core/cmd/yepmem/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
