// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolve

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/codescope/codescope/pkg/extract"
)

// EdgeType classifies a resolved edge.
type EdgeType string

const (
	EdgeCall     EdgeType = "call"
	EdgeImport   EdgeType = "import"
	EdgeImplicit EdgeType = "implicit"
)

// Edge is a resolved directed relationship between two persisted symbols.
type Edge struct {
	SourceID int64
	TargetID int64
	Type     EdgeType
	Reason   string
}

// Resolver resolves a batch's transient call and import records against the
// global key map. Unresolved names are dropped silently: they are the
// common case (stdlib calls, externals), not an error.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// ResolveCalls resolves each call through a three-strategy ladder:
//
//  1. Import bridge: the callee is an imported binding; match the target by
//     the import's source module and original name.
//  2. Same file: a symbol with the callee's name in the caller's file.
//  3. Global name fallback: the first symbol anywhere with that name.
//
// Self-edges are skipped and (source, target) pairs are deduplicated.
func (r *Resolver) ResolveCalls(calls []extract.CallInfo, keys *KeyMap) []Edge {
	var edges []Edge
	seen := make(map[string]bool)

	resolved, bridged := 0, 0
	for _, call := range calls {
		callerID := keys.Get(call.CallerSymbolKey)
		if callerID == 0 {
			continue
		}

		targetID := int64(0)
		if call.IsImported && call.ImportSourceModule != "" {
			targetID = r.resolveImportBridge(call, keys)
			if targetID != 0 {
				bridged++
			}
		}
		if targetID == 0 {
			targetID = r.resolveSameFile(call, keys)
		}
		if targetID == 0 {
			targetID = r.resolveGlobalName(call.CalleeName, keys)
		}
		if targetID == 0 || targetID == callerID {
			continue
		}

		edgeKey := fmt.Sprintf("%d->%d", callerID, targetID)
		if seen[edgeKey] {
			continue
		}
		seen[edgeKey] = true
		resolved++
		edges = append(edges, Edge{SourceID: callerID, TargetID: targetID, Type: EdgeCall})
	}

	r.logger.Debug("resolve.calls",
		"total", len(calls),
		"resolved", resolved,
		"via_import_bridge", bridged,
	)
	return edges
}

// resolveImportBridge matches the symbol imported under the call's name:
// the target path, stripped of extensions, must end with the import's
// source module, and the name must equal the imported original name.
func (r *Resolver) resolveImportBridge(call extract.CallInfo, keys *KeyMap) int64 {
	module := normalizeModule(call.ImportSourceModule)
	if module == "" {
		return 0
	}
	wantName := call.ImportedOriginalName
	if wantName == "" || wantName == "default" || wantName == "*" {
		wantName = call.CalleeName
	}

	for _, e := range keys.entries {
		if e.id == 0 || e.name != wantName {
			continue
		}
		if pathMatchesModule(e.path, module) {
			return e.id
		}
	}
	return 0
}

// resolveSameFile finds a symbol with the callee's name in the caller's file.
func (r *Resolver) resolveSameFile(call extract.CallInfo, keys *KeyMap) int64 {
	for _, e := range keys.entries {
		if e.id != 0 && e.path == call.FilePath && e.name == call.CalleeName {
			return e.id
		}
	}
	return 0
}

// resolveGlobalName falls back to the first symbol anywhere with the name.
func (r *Resolver) resolveGlobalName(name string, keys *KeyMap) int64 {
	for _, e := range keys.entries {
		if e.id != 0 && e.name == name {
			return e.id
		}
	}
	return 0
}

// ResolveImports emits import edges. The edge's source is the "importer"
// symbol keyed "<filePath>:<localName>:<line0>" — a symbol declared at the
// import's own line, which only exists for declared re-exports. When no
// importer symbol exists the edge is dropped; file-level import counts are
// derived at query time from cross-file symbol edges instead, so this table
// is effectively a re-export index.
func (r *Resolver) ResolveImports(imports []extract.ImportInfo, keys *KeyMap) []Edge {
	var edges []Edge
	seen := make(map[string]bool)

	for _, imp := range imports {
		module := normalizeModule(imp.SourceModule)
		if module == "" || imp.ImportedName == "" {
			continue
		}

		targetID := int64(0)
		for _, e := range keys.entries {
			if e.id == 0 || e.name != imp.ImportedName {
				continue
			}
			if pathMatchesModule(e.path, module) {
				targetID = e.id
				break
			}
		}
		if targetID == 0 {
			continue
		}

		importerKey := extract.SymbolKey(imp.FilePath, imp.LocalName, imp.Line-1)
		sourceID := keys.Get(importerKey)
		if sourceID == 0 || sourceID == targetID {
			continue
		}

		edgeKey := fmt.Sprintf("%d->%d", sourceID, targetID)
		if seen[edgeKey] {
			continue
		}
		seen[edgeKey] = true
		edges = append(edges, Edge{SourceID: sourceID, TargetID: targetID, Type: EdgeImport})
	}
	return edges
}

// sourceExtensions are stripped from both module specifiers and file paths
// before suffix matching.
var sourceExtensions = []string{".tsx", ".ts", ".jsx", ".js"}

func stripExtensions(p string) string {
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}

// normalizeModule strips the leading "./" and any source extension from a
// module specifier. A bare "./" and an empty specifier normalize to "".
func normalizeModule(module string) string {
	module = strings.TrimPrefix(module, "./")
	return stripExtensions(module)
}

// pathMatchesModule reports whether a symbol's file path, stripped of
// extensions, ends with the normalized module specifier.
func pathMatchesModule(path, module string) bool {
	return strings.HasSuffix(stripExtensions(path), module)
}
