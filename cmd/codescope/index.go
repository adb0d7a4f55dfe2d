// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/ui"
	"github.com/codescope/codescope/pkg/index"
)

// runIndex executes the 'index' command: walk the workspace, parse every
// supported source file, and rebuild symbols and edges in the graph store.
//
// Incremental by default: unchanged files (by content hash) are skipped.
// --full reindexes everything.
func runIndex(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	full := fs.Bool("full", false, "Reindex all files, ignoring stored content hashes")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codescope index [options]

Description:
  Index the current workspace into the code graph. Sources are parsed
  with Tree-sitter; declared symbols and their call/import edges are
  stored in SQLite. Files whose content hash is unchanged since the last
  run are skipped unless --full is given.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  codescope index
  codescope index --full
  codescope index --metrics-addr :9090

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger := newLogger(globals)
	cfg, store := openStore(configPath, globals, logger)
	defer func() { _ = store.Close() }()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot access current directory", "Failed to determine working directory", "", err,
		), globals.JSON)
	}

	start := time.Now()

	files, err := index.DiscoverFiles(cwd, index.DiscoverOptions{
		ExcludeGlobs:     cfg.Indexing.Exclude,
		MaxFileSizeBytes: cfg.Indexing.MaxFileSize,
	}, logger)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Workspace walk failed", err.Error(), "", err,
		), globals.JSON)
	}

	ix, err := index.NewIndexer(store, logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot initialize indexer", err.Error(),
			"Try 'codescope reset --yes' to rebuild the database", err,
		), globals.JSON)
	}

	// Incremental: drop files whose stored hash matches.
	dirty := files
	if !*full {
		dirty = dirty[:0]
		for _, f := range files {
			needs, _, _, herr := ix.NeedsReindex(f.Path, f.Content)
			if herr != nil || needs {
				dirty = append(dirty, f)
			}
		}
	}

	if len(dirty) == 0 {
		ui.Header("Index Up to Date")
		fmt.Printf("%s %s\n", ui.Label("Project ID:"), cfg.ProjectID)
		_, _ = ui.Green.Println("Everything is already indexed. No changes detected.")
		fmt.Println()
		fmt.Println("To force a full re-index:")
		fmt.Println("  codescope index --full")
		return
	}

	progressCfg := NewProgressConfig(globals)
	bar := NewProgressBar(progressCfg, int64(len(dirty)), "Indexing files")
	if bar != nil {
		// The batch reports no per-file progress, so the bar starts at zero
		// and is finished once the batch returns.
		_ = bar.Set64(0)
	}

	stats, err := ix.IndexBatch(ctx, dirty)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Indexing failed", err.Error(),
			"Check the error details above; 'codescope reset --yes' rebuilds from scratch", err,
		), globals.JSON)
	}

	printIndexResult(cfg.ProjectID, len(files), stats, time.Since(start))
}

// printIndexResult prints the indexing summary.
func printIndexResult(projectID string, discovered int, stats *index.BatchStats, elapsed time.Duration) {
	ui.Header("Indexing Complete")
	fmt.Printf("%s %s\n", ui.Label("Project ID:"), projectID)

	fmt.Printf("Files Discovered: %s\n", ui.CountText(discovered))
	fmt.Printf("Files Processed: %s ", ui.CountText(stats.FilesProcessed))
	if stats.FilesFailed > 0 {
		_, _ = ui.Yellow.Printf("(%d failed)\n", stats.FilesFailed)
	} else {
		_, _ = ui.Green.Println("✓")
	}
	fmt.Printf("Symbols: %s\n", ui.CountText(stats.TotalSymbols))
	fmt.Printf("Edges: %s\n", ui.CountText(stats.TotalEdges))
	fmt.Println()
	fmt.Printf("Total: %s\n", ui.DimText(elapsed.String()))
}
