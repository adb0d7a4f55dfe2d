// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/ui"
	"github.com/codescope/codescope/pkg/graph"
)

// openGraph opens the store at dbPath. Used by the worker command, which
// bypasses the fatal-on-error helper.
func openGraph(dbPath string, logger *slog.Logger) (*graph.Store, error) {
	return graph.Open(dbPath, logger)
}

// runReset deletes the project's local graph data. Destructive; requires
// --yes.
func runReset(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.BoolP("yes", "y", false, "Confirm deletion")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codescope reset --yes

Description:
  Delete the project's graph database under ~/.codescope/data/. The next
  'codescope index' rebuilds it from scratch.

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if !*yes {
		fmt.Fprintln(os.Stderr, "Refusing to delete data without --yes")
		os.Exit(1)
	}

	dataDir, err := DataDir(cfg.ProjectID)
	if err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot resolve data directory", err.Error(), "", err,
		), globals.JSON)
	}

	if err := os.RemoveAll(dataDir); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot delete data directory",
			fmt.Sprintf("Failed to remove %s", dataDir),
			"Close other CodeScope instances and retry",
			err,
		), globals.JSON)
	}

	ui.Header("Reset Complete")
	fmt.Printf("%s %s\n", ui.Label("Removed:"), dataDir)
	_, _ = ui.Green.Println("Run 'codescope index' to rebuild the graph.")
}
