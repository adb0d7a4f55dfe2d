// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"context"
	"runtime"
	"time"
)

// Memory-ceiling defaults: resident heap is sampled every interval and the
// process is terminated with code 137 on breach.
const (
	DefaultMemoryLimitBytes = 512 * 1024 * 1024
	memoryCheckInterval     = 5 * time.Second
	ExitCodeMemoryBreach    = 137
)

// Watchdog periodically checks heap usage against a hard ceiling. On
// breach it emits a terminal system error and calls exit — resource errors
// are the only class that escalates to process death.
type Watchdog struct {
	worker     *Worker
	limitBytes uint64
	exit       func(code int)
}

// NewWatchdog creates a watchdog for worker. limitBytes 0 selects the
// default ceiling; exit is injectable for tests.
func NewWatchdog(worker *Worker, limitBytes uint64, exit func(code int)) *Watchdog {
	if limitBytes == 0 {
		limitBytes = DefaultMemoryLimitBytes
	}
	return &Watchdog{worker: worker, limitBytes: limitBytes, exit: exit}
}

// Start launches the sampling loop. It stops when ctx is canceled.
func (wd *Watchdog) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(memoryCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				wd.check()
			}
		}
	}()
}

func (wd *Watchdog) check() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	if stats.HeapAlloc <= wd.limitBytes {
		wd.worker.metrics.SetHeapBytes(stats.HeapAlloc)
		return
	}

	wd.worker.logger.Error("worker.memory.ceiling",
		"heap_bytes", stats.HeapAlloc,
		"limit_bytes", wd.limitBytes,
	)
	wd.worker.send(ErrorResponse{
		header: header{Type: "error", ID: "system"},
		Error:  "memory ceiling exceeded",
	})
	wd.exit(ExitCodeMemoryBreach)
}
