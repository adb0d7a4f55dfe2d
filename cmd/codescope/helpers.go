// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"log/slog"
	"os"

	"github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/pkg/graph"
)

// newLogger builds the structured logger for a command run. Verbosity maps
// to levels: default warn, -v info, -vv debug.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case globals.Verbose >= 2:
		level = slog.LevelDebug
	case globals.Verbose == 1:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// openStore loads the config and opens the project's graph database.
// Fatal on failure: every command needs both.
func openStore(configPath string, globals GlobalFlags, logger *slog.Logger) (*Config, *graph.Store) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	dbPath, err := DatabasePath(cfg.ProjectID)
	if err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot resolve data directory",
			err.Error(),
			"Check permissions on ~/.codescope or set CODESCOPE_DATA_DIR",
			err,
		), globals.JSON)
	}

	store, err := graph.Open(dbPath, logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open graph database",
			err.Error(),
			"Try 'codescope reset --yes' to rebuild the database",
			err,
		), globals.JSON)
	}
	return cfg, store
}
