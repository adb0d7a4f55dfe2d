// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/codescope/codescope/pkg/analytics"
	"github.com/codescope/codescope/pkg/graph"
	"github.com/codescope/codescope/pkg/index"
	"github.com/codescope/codescope/pkg/lang"
)

// maxRequestBytes bounds a single request line; batch payloads carry whole
// file contents.
const maxRequestBytes = 64 * 1024 * 1024

// Worker is the single-threaded command loop. Requests are handled one at
// a time to completion; responses are FIFO with the sends that produced
// them. The store and the indexer's global key map are owned exclusively
// by this loop.
type Worker struct {
	indexer *index.Indexer
	store   *graph.Store
	logger  *slog.Logger
	metrics *Metrics

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // guards out: the watchdog also writes

	// shutdown is closed when a shutdown request is seen.
	shutdown chan struct{}
}

// New creates a worker over store, reading requests from in and writing
// responses to out.
func New(store *graph.Store, in io.Reader, out io.Writer, logger *slog.Logger) (*Worker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ix, err := index.NewIndexer(store, logger)
	if err != nil {
		return nil, fmt.Errorf("create indexer: %w", err)
	}
	return &Worker{
		indexer:  ix,
		store:    store,
		logger:   logger,
		metrics:  NewMetrics(),
		in:       in,
		out:      out,
		shutdown: make(chan struct{}),
	}, nil
}

// Run reads requests until EOF or shutdown. Malformed requests produce an
// error response and the loop stays up; only resource-class failures
// terminate the process (see Watchdog).
func (w *Worker) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(w.in)
	scanner.Buffer(make([]byte, 64*1024), maxRequestBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shutdown:
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			w.send(ErrorResponse{header: header{Type: "error", ID: "system"}, Error: "malformed request: " + err.Error()})
			continue
		}
		if req.ID == "" {
			w.send(ErrorResponse{header: header{Type: "error", ID: "system"}, Error: "missing request id"})
			continue
		}

		w.metrics.RequestStarted(req.Type)
		resp := w.handle(ctx, &req)
		if resp != nil {
			w.send(resp)
		}
		if req.Type == "shutdown" {
			close(w.shutdown)
			return nil
		}
	}
	return scanner.Err()
}

// handle dispatches one request. Data errors come back as error responses;
// the worker stays up.
func (w *Worker) handle(ctx context.Context, req *Request) any {
	switch req.Type {
	case "parse":
		return w.handleParse(ctx, req)
	case "parse-batch":
		return w.handleParseBatch(ctx, req)
	case "check-file-hash":
		return w.handleCheckFileHash(req)
	case "query-symbols":
		return w.handleQuerySymbols(req)
	case "query-file":
		return w.handleQueryFile(req)
	case "get-context":
		return w.handleGetContext(req)
	case "export-graph":
		return w.handleExportGraph(req)
	case "stats":
		return w.handleStats(req)
	case "clear":
		return w.handleClear(req)
	case "get-architecture-skeleton":
		return w.handleSkeleton(req)
	case "trace-function":
		return w.handleTrace(req)
	case "analyze-impact":
		return w.handleImpact(req)
	case "shutdown":
		w.logger.Info("worker.shutdown")
		return nil
	default:
		return w.fail(req, fmt.Errorf("unknown request type: %s", req.Type))
	}
}

func (w *Worker) handleParse(ctx context.Context, req *Request) any {
	if req.FilePath == "" {
		return w.fail(req, fmt.Errorf("parse requires filePath"))
	}
	stats, err := w.indexer.IndexFile(ctx, index.FileInput{
		Path:     req.FilePath,
		Content:  []byte(req.Content),
		Language: lang.Language(req.Language),
	})
	if err != nil {
		return w.fail(req, err)
	}
	w.metrics.SymbolsIndexed(stats.SymbolCount)
	return ParseCompleteResponse{
		header:      header{Type: "parse-complete", ID: req.ID},
		SymbolCount: stats.SymbolCount,
		EdgeCount:   stats.EdgeCount,
	}
}

func (w *Worker) handleParseBatch(ctx context.Context, req *Request) any {
	files := make([]index.FileInput, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, index.FileInput{
			Path:     f.FilePath,
			Content:  []byte(f.Content),
			Language: lang.Language(f.Language),
		})
	}
	stats, err := w.indexer.IndexBatch(ctx, files)
	if err != nil {
		return w.fail(req, err)
	}
	w.metrics.SymbolsIndexed(stats.TotalSymbols)
	return ParseBatchCompleteResponse{
		header:         header{Type: "parse-batch-complete", ID: req.ID},
		TotalSymbols:   stats.TotalSymbols,
		TotalEdges:     stats.TotalEdges,
		FilesProcessed: stats.FilesProcessed,
	}
}

func (w *Worker) handleCheckFileHash(req *Request) any {
	if req.FilePath == "" {
		return w.fail(req, fmt.Errorf("check-file-hash requires filePath"))
	}
	needs, stored, current, err := w.indexer.NeedsReindex(req.FilePath, []byte(req.Content))
	if err != nil {
		return w.fail(req, err)
	}
	return FileHashResponse{
		header:       header{Type: "file-hash-result", ID: req.ID},
		NeedsReindex: needs,
		StoredHash:   stored,
		CurrentHash:  current,
	}
}

func (w *Worker) handleQuerySymbols(req *Request) any {
	records, err := w.store.SymbolsByName(req.Query, true)
	if err != nil {
		return w.fail(req, err)
	}
	return w.queryResult(req, records)
}

func (w *Worker) handleQueryFile(req *Request) any {
	records, err := w.store.SymbolsByFile(req.FilePath)
	if err != nil {
		return w.fail(req, err)
	}
	return w.queryResult(req, records)
}

func (w *Worker) queryResult(req *Request, records []graph.SymbolRecord) any {
	payloads := make([]SymbolPayload, 0, len(records))
	for i := range records {
		payloads = append(payloads, symbolPayload(&records[i]))
	}
	return QueryResultResponse{
		header:  header{Type: "query-result", ID: req.ID},
		Symbols: payloads,
	}
}

func (w *Worker) handleGetContext(req *Request) any {
	res, err := analytics.GetContext(w.store, req.SymbolID)
	if err != nil {
		return w.fail(req, err)
	}
	payload := symbolPayload(res.Symbol)
	return ContextResultResponse{
		header:            header{Type: "context-result", ID: req.ID},
		Symbol:            &payload,
		Neighbors:         res.Neighbors,
		IncomingEdgeCount: res.IncomingEdgeCount,
		OutgoingEdgeCount: res.OutgoingEdgeCount,
	}
}

func (w *Worker) handleExportGraph(req *Request) any {
	export, err := w.store.ExportGraph()
	if err != nil {
		return w.fail(req, err)
	}
	return GraphExportResponse{header: header{Type: "graph-export", ID: req.ID}, Graph: export}
}

func (w *Worker) handleStats(req *Request) any {
	symbolCount, err := w.store.CountSymbols()
	if err != nil {
		return w.fail(req, err)
	}
	edgeCount, err := w.store.CountEdges()
	if err != nil {
		return w.fail(req, err)
	}
	fileCount, err := w.store.CountFiles()
	if err != nil {
		return w.fail(req, err)
	}
	lastIndexTime, err := w.store.GetMeta("last_index_time")
	if err != nil {
		return w.fail(req, err)
	}
	return StatsResponse{
		header:        header{Type: "stats-result", ID: req.ID},
		SymbolCount:   symbolCount,
		EdgeCount:     edgeCount,
		FileCount:     fileCount,
		LastIndexTime: lastIndexTime,
	}
}

func (w *Worker) handleClear(req *Request) any {
	if err := w.indexer.Clear(); err != nil {
		return w.fail(req, err)
	}
	return ClearCompleteResponse{header: header{Type: "clear-complete", ID: req.ID}}
}

func (w *Worker) handleSkeleton(req *Request) any {
	sk, err := analytics.BuildSkeleton(w.store, req.Refine)
	if err != nil {
		return w.fail(req, err)
	}
	return SkeletonResponse{header: header{Type: "architecture-skeleton", ID: req.ID}, Skeleton: sk}
}

func (w *Worker) handleTrace(req *Request) any {
	id, err := w.resolveSymbolRef(req)
	if err != nil {
		return w.fail(req, err)
	}
	trace, err := analytics.TraceFunction(w.store, id)
	if err != nil {
		return w.fail(req, err)
	}
	return TraceResponse{header: header{Type: "function-trace", ID: req.ID}, Trace: trace}
}

func (w *Worker) handleImpact(req *Request) any {
	id, err := w.resolveSymbolRef(req)
	if err != nil {
		return w.fail(req, err)
	}
	res, err := analytics.AnalyzeImpact(w.store, id)
	if err != nil {
		return w.fail(req, err)
	}
	return ImpactResponse{
		header:        header{Type: "impact-result", ID: req.ID},
		Affected:      res.Affected,
		TotalAffected: res.TotalAffected,
		RiskLevel:     res.RiskLevel,
	}
}

// resolveSymbolRef accepts either a numeric symbolId or a node key of the
// form "<filePath>:<name>:<line>" with a 1-based line.
func (w *Worker) resolveSymbolRef(req *Request) (int64, error) {
	if req.SymbolID != 0 {
		return req.SymbolID, nil
	}
	if req.NodeID == "" {
		return 0, fmt.Errorf("symbolId or nodeId is required")
	}
	filePath, name, line, err := ParseNodeKey(req.NodeID)
	if err != nil {
		return 0, err
	}
	rec, err := w.store.SymbolAtLocation(filePath, name, line)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, fmt.Errorf("symbol not found for nodeId %s", req.NodeID)
	}
	return rec.ID, nil
}

// NodeKey renders the user-facing node key with a 1-based line. This is
// the analytics convention, not the extractor's 0-based symbol-key.
func NodeKey(filePath, name string, startLine int) string {
	return fmt.Sprintf("%s:%s:%d", filePath, name, startLine)
}

// ParseNodeKey splits a node key from the right; the path may itself
// contain colons.
func ParseNodeKey(key string) (filePath, name string, line int, err error) {
	lineSep := strings.LastIndex(key, ":")
	if lineSep < 0 {
		return "", "", 0, fmt.Errorf("invalid nodeId: %s", key)
	}
	line, err = strconv.Atoi(key[lineSep+1:])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid nodeId line: %s", key)
	}
	nameSep := strings.LastIndex(key[:lineSep], ":")
	if nameSep < 0 {
		return "", "", 0, fmt.Errorf("invalid nodeId: %s", key)
	}
	return key[:nameSep], key[nameSep+1 : lineSep], line, nil
}

func (w *Worker) fail(req *Request, err error) any {
	w.metrics.RequestFailed(req.Type)
	w.logger.Warn("worker.request.error", "type", req.Type, "id", req.ID, "err", err)
	return ErrorResponse{header: header{Type: "error", ID: req.ID}, Error: err.Error()}
}

// send writes one response line. The watchdog shares the writer, hence the
// lock.
func (w *Worker) send(resp any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	enc := json.NewEncoder(w.out)
	if err := enc.Encode(resp); err != nil {
		w.logger.Error("worker.send.error", "err", err)
	}
}
