// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the worker's Prometheus collectors. Registered on the
// default registry; cmd exposes them via promhttp when --metrics-addr is
// set.
type Metrics struct {
	requestsTotal  *prometheus.CounterVec
	requestErrors  *prometheus.CounterVec
	symbolsIndexed prometheus.Counter
	heapBytes      prometheus.Gauge
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics returns the process-wide worker collectors, registering them
// on first use. The default registry rejects duplicates, so registration
// happens once even when several workers are created in one process.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = newMetrics()
	})
	return sharedMetrics
}

func newMetrics() *Metrics {
	return &Metrics{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "codescope_worker_requests_total",
			Help: "Requests handled by the worker loop, by request type.",
		}, []string{"type"}),
		requestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "codescope_worker_request_errors_total",
			Help: "Requests answered with an error response, by request type.",
		}, []string{"type"}),
		symbolsIndexed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "codescope_symbols_indexed_total",
			Help: "Symbols written to the graph store.",
		}),
		heapBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "codescope_worker_heap_bytes",
			Help: "Last sampled heap allocation of the worker process.",
		}),
	}
}

// RequestStarted counts an inbound request.
func (m *Metrics) RequestStarted(reqType string) {
	m.requestsTotal.WithLabelValues(reqType).Inc()
}

// RequestFailed counts an error response.
func (m *Metrics) RequestFailed(reqType string) {
	m.requestErrors.WithLabelValues(reqType).Inc()
}

// SymbolsIndexed adds to the indexed-symbol counter.
func (m *Metrics) SymbolsIndexed(n int) {
	m.symbolsIndexed.Add(float64(n))
}

// SetHeapBytes records the watchdog's latest heap sample.
func (m *Metrics) SetHeapBytes(n uint64) {
	m.heapBytes.Set(float64(n))
}
