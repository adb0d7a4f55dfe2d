// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codescope/codescope/pkg/worker"
)

// runWorker starts the request/response loop on stdin/stdout. The host
// (editor, UI) owns the process lifetime; a shutdown request or EOF ends
// the loop with exit code 0, a memory-ceiling breach with 137, and a
// failed initialization with 1.
func runWorker(args []string, configPath string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("worker", flag.ExitOnError)
	memoryLimitMB := fs.Int("memory-limit-mb", 0, "Heap ceiling in MB (0 = default 512)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codescope worker [options]

Description:
  Run the indexing engine behind a newline-delimited JSON message loop.
  Each request is {"type": ..., "id": ..., ...}; the matching response
  echoes the id. Requests are handled serially to completion.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	logger := newLogger(globals)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	dbPath, err := DatabasePath(cfg.ProjectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	store, err := openGraph(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	w, err := worker.New(store, os.Stdin, os.Stdout, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limit := uint64(0)
	if cfgLimit := cfg.Worker.MemoryLimitMB; cfgLimit > 0 {
		limit = uint64(cfgLimit) * 1024 * 1024
	}
	if *memoryLimitMB > 0 {
		limit = uint64(*memoryLimitMB) * 1024 * 1024
	}
	worker.NewWatchdog(w, limit, os.Exit).Start(ctx)

	logger.Info("worker.start", "project_id", cfg.ProjectID, "db", dbPath)
	if err := w.Run(ctx); err != nil {
		logger.Error("worker.loop.error", "err", err)
		return 1
	}
	return 0
}
