// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/ui"
)

// runInit creates .codescope/project.yaml in the current directory.
func runInit(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	projectID := fs.String("project-id", "", "Project identifier (default: directory name)")
	force := fs.BoolP("force", "f", false, "Overwrite an existing configuration")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codescope init [options]

Description:
  Create the .codescope/project.yaml configuration for this workspace.
  The project id names the local database under ~/.codescope/data/.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot access current directory",
			"Failed to determine working directory",
			"",
			err,
		), globals.JSON)
	}

	id := *projectID
	if id == "" {
		id = filepath.Base(cwd)
	}

	cfgPath := filepath.Join(ConfigDir(cwd), defaultConfigFile)
	if _, err := os.Stat(cfgPath); err == nil && !*force {
		errors.FatalError(errors.NewConfigError(
			"Configuration already exists",
			fmt.Sprintf("%s is present", cfgPath),
			"Use --force to overwrite",
			nil,
		), globals.JSON)
	}

	cfg := DefaultConfig(id)
	if err := SaveConfig(cwd, cfg); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot write configuration",
			err.Error(),
			"Check permissions on the workspace directory",
			err,
		), globals.JSON)
	}

	ui.Header("CodeScope Initialized")
	fmt.Printf("%s %s\n", ui.Label("Project ID:"), id)
	fmt.Printf("%s %s\n", ui.Label("Config:"), cfgPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  codescope index     Index this workspace")
	fmt.Println("  codescope status    Check the graph")
}
