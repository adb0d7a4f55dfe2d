// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/ui"
)

// runStatus prints graph statistics for the current project.
func runStatus(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger := newLogger(globals)
	cfg, store := openStore(configPath, globals, logger)
	defer func() { _ = store.Close() }()

	symbolCount, err := store.CountSymbols()
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Query failed", err.Error(), "", err), globals.JSON)
	}
	edgeCount, err := store.CountEdges()
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Query failed", err.Error(), "", err), globals.JSON)
	}
	fileCount, err := store.CountFiles()
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Query failed", err.Error(), "", err), globals.JSON)
	}
	lastIndexTime, _ := store.GetMeta("last_index_time")
	workspaceRoot, _ := store.WorkspaceRoot()

	if globals.JSON {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
			"projectId":     cfg.ProjectID,
			"symbolCount":   symbolCount,
			"edgeCount":     edgeCount,
			"fileCount":     fileCount,
			"lastIndexTime": lastIndexTime,
			"workspaceRoot": workspaceRoot,
		})
		return
	}

	ui.Header("CodeScope Status")
	fmt.Printf("%s %s\n", ui.Label("Project ID:"), cfg.ProjectID)
	fmt.Printf("Symbols: %s\n", ui.CountText(symbolCount))
	fmt.Printf("Edges: %s\n", ui.CountText(edgeCount))
	fmt.Printf("Files: %s\n", ui.CountText(fileCount))
	if lastIndexTime != "" {
		fmt.Printf("Last Indexed: %s\n", ui.DimText(lastIndexTime))
	} else {
		_, _ = ui.Yellow.Println("Not indexed yet. Run 'codescope index'.")
	}
	if workspaceRoot != "" {
		fmt.Printf("Workspace Root: %s\n", ui.DimText(workspaceRoot))
	}
}
