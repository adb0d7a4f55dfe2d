// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index orchestrates parsing, extraction, and edge resolution into
// the graph store: content-hash dirty detection, per-file replace, and the
// two-pass batch pipeline.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/codescope/codescope/pkg/extract"
	"github.com/codescope/codescope/pkg/graph"
	"github.com/codescope/codescope/pkg/lang"
	"github.com/codescope/codescope/pkg/resolve"
)

// FileInput is one file handed to the indexer.
type FileInput struct {
	Path     string
	Content  []byte
	Language lang.Language
}

// FileStats summarizes a single-file index.
type FileStats struct {
	SymbolCount int
	EdgeCount   int
}

// BatchStats summarizes a batch index.
type BatchStats struct {
	TotalSymbols   int
	TotalEdges     int
	FilesProcessed int
	FilesFailed    int
}

// Indexer owns the global symbol-key → id map and drives the store. It is
// not safe for concurrent use; the worker's single-threaded loop is the
// guard.
type Indexer struct {
	parser    *lang.Parser
	extractor *extract.Extractor
	resolver  *resolve.Resolver
	store     *graph.Store
	keys      *resolve.KeyMap
	logger    *slog.Logger
}

// NewIndexer creates an indexer over store and primes the key map from the
// persisted symbols.
func NewIndexer(store *graph.Store, logger *slog.Logger) (*Indexer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ix := &Indexer{
		parser:    lang.NewParser(),
		extractor: extract.NewExtractor(logger),
		resolver:  resolve.NewResolver(logger),
		store:     store,
		keys:      resolve.NewKeyMap(),
		logger:    logger,
	}
	if err := ix.reloadKeys(); err != nil {
		return nil, err
	}
	return ix, nil
}

// reloadKeys rebuilds the key map from the store. Keys use the extractor
// convention (0-based line), so stored 1-based start lines shift by one.
func (ix *Indexer) reloadKeys() error {
	symbols, err := ix.store.AllSymbols()
	if err != nil {
		return fmt.Errorf("load symbol keys: %w", err)
	}
	ix.keys = resolve.NewKeyMap()
	for _, sym := range symbols {
		ix.keys.Put(sym.Key(), sym.ID)
	}
	return nil
}

// ContentHash is the lowercase hex SHA-256 used for dirty detection.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// NeedsReindex compares the stored hash for path against a fresh hash of
// content. Missing or different means dirty.
func (ix *Indexer) NeedsReindex(path string, content []byte) (needs bool, stored, current string, err error) {
	current = ContentHash(content)
	stored, err = ix.store.GetFileHash(path)
	if err != nil {
		return false, "", current, err
	}
	return stored != current, stored, current, nil
}

// IndexFile replaces one file's symbols and re-resolves its edges against
// the current global key map, which still holds every other file's entries.
func (ix *Indexer) IndexFile(ctx context.Context, input FileInput) (*FileStats, error) {
	res, err := ix.extractFile(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := ix.replaceFileSymbols(input.Path, res); err != nil {
		return nil, err
	}

	edges := ix.resolver.ResolveCalls(res.Calls, ix.keys)
	edges = append(edges, ix.resolver.ResolveImports(res.Imports, ix.keys)...)
	inserted, err := ix.insertEdges(edges)
	if err != nil {
		return nil, err
	}

	if err := ix.finishIndex(input.Path, input.Content); err != nil {
		return nil, err
	}

	ix.logger.Info("index.file.complete",
		"path", input.Path,
		"symbols", len(res.Symbols),
		"edges", inserted,
	)
	return &FileStats{SymbolCount: len(res.Symbols), EdgeCount: inserted}, nil
}

// IndexBatch runs the two-pass pipeline under bulk-ingest mode. Pass one
// replaces each file's symbols and accumulates the transient import/call
// records; pass two resolves edges once every symbol is known. A failing
// file is skipped, not fatal; FilesProcessed counts attempts.
func (ix *Indexer) IndexBatch(ctx context.Context, files []FileInput) (stats *BatchStats, err error) {
	stats = &BatchStats{}

	if err := ix.store.PreIndexCleanup(); err != nil {
		return nil, fmt.Errorf("enter bulk mode: %w", err)
	}
	defer func() {
		// Pairing is mandatory even on failure.
		if postErr := ix.store.PostIndexOptimization(); postErr != nil && err == nil {
			err = fmt.Errorf("exit bulk mode: %w", postErr)
		}
	}()

	var allCalls []extract.CallInfo
	var allImports []extract.ImportInfo

	for _, input := range files {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		stats.FilesProcessed++
		res, ferr := ix.extractFile(ctx, input)
		if ferr != nil {
			stats.FilesFailed++
			ix.logger.Warn("index.batch.file_error", "path", input.Path, "err", ferr)
			continue
		}
		if ferr := ix.replaceFileSymbols(input.Path, res); ferr != nil {
			stats.FilesFailed++
			ix.logger.Warn("index.batch.file_error", "path", input.Path, "err", ferr)
			continue
		}
		if ferr := ix.store.SetFileHash(input.Path, ContentHash(input.Content)); ferr != nil {
			ix.logger.Warn("index.batch.hash_error", "path", input.Path, "err", ferr)
		}

		stats.TotalSymbols += len(res.Symbols)
		allCalls = append(allCalls, res.Calls...)
		allImports = append(allImports, res.Imports...)
	}

	edges := ix.resolver.ResolveCalls(allCalls, ix.keys)
	edges = append(edges, ix.resolver.ResolveImports(allImports, ix.keys)...)
	inserted, ierr := ix.insertEdges(edges)
	if ierr != nil {
		return stats, ierr
	}
	stats.TotalEdges = inserted

	if merr := ix.finishIndex("", nil); merr != nil {
		return stats, merr
	}

	ix.logger.Info("index.batch.complete",
		"files", stats.FilesProcessed,
		"failed", stats.FilesFailed,
		"symbols", stats.TotalSymbols,
		"edges", stats.TotalEdges,
	)
	return stats, nil
}

// extractFile parses and extracts one file. The syntax tree is transient:
// it is closed before returning.
func (ix *Indexer) extractFile(ctx context.Context, input FileInput) (*extract.FileResult, error) {
	language := input.Language
	if language == "" {
		language = lang.DetectLanguage(input.Path)
	}
	if language == "" {
		return nil, fmt.Errorf("unsupported file type: %s", input.Path)
	}

	tree, err := ix.parser.Parse(ctx, input.Content, language)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", input.Path, err)
	}
	defer tree.Close()

	return ix.extractor.Extract(tree.RootNode(), input.Content, input.Path, language), nil
}

// replaceFileSymbols deletes the file's old rows (edges on either side
// included) and inserts the fresh extraction, threading the new ids into
// the global key map.
func (ix *Indexer) replaceFileSymbols(path string, res *extract.FileResult) error {
	if err := ix.deleteFileEdges(path); err != nil {
		return err
	}
	if err := ix.store.DeleteSymbolsByFile(path); err != nil {
		return err
	}
	ix.keys.RemoveFile(path)

	ids, err := ix.store.InsertSymbols(res.Symbols)
	if err != nil {
		return err
	}
	for key, idx := range res.LocalKeyToIndex {
		if idx >= 0 && idx < len(ids) {
			ix.keys.Put(key, ids[idx])
		}
	}
	return nil
}

// deleteFileEdges removes edges incident to the file's symbols explicitly.
// ON DELETE CASCADE covers this in normal mode, but bulk-ingest runs with
// foreign keys off, and the invariant must hold there too.
func (ix *Indexer) deleteFileEdges(path string) error {
	symbols, err := ix.store.SymbolsByFile(path)
	if err != nil {
		return err
	}
	for _, sym := range symbols {
		if err := ix.store.DeleteEdgesTouching(sym.ID); err != nil {
			return err
		}
	}
	return nil
}

func (ix *Indexer) insertEdges(edges []resolve.Edge) (int, error) {
	records := make([]graph.EdgeRecord, 0, len(edges))
	for _, e := range edges {
		records = append(records, graph.EdgeRecord{
			SourceID: e.SourceID,
			TargetID: e.TargetID,
			Type:     string(e.Type),
			Reason:   e.Reason,
		})
	}
	n, err := ix.store.InsertEdges(records)
	if err != nil {
		return n, fmt.Errorf("insert edges: %w", err)
	}
	return n, nil
}

// finishIndex stamps bookkeeping after a successful index: the file hash
// for single-file updates, the last index time, and a fresh skeleton cache
// slot (the old skeleton no longer reflects the graph).
func (ix *Indexer) finishIndex(path string, content []byte) error {
	if path != "" {
		if err := ix.store.SetFileHash(path, ContentHash(content)); err != nil {
			return err
		}
	}
	if err := ix.store.SetMeta("last_index_time", NowISO()); err != nil {
		return err
	}
	return ix.store.SetMeta("architecture_skeleton", "")
}

// Store exposes the underlying store for the query surfaces.
func (ix *Indexer) Store() *graph.Store {
	return ix.store
}

// KeyCount returns the number of live keys in the global map.
func (ix *Indexer) KeyCount() int {
	return ix.keys.Len()
}

// Clear wipes the graph and the key map.
func (ix *Indexer) Clear() error {
	if err := ix.store.Clear(); err != nil {
		return err
	}
	ix.keys = resolve.NewKeyMap()
	return nil
}
