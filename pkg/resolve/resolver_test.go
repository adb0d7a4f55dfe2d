// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/pkg/extract"
)

func TestKeyMapInsertionOrderAndRemove(t *testing.T) {
	m := NewKeyMap()
	m.Put("a.ts:f:0", 1)
	m.Put("b.ts:f:0", 2)
	m.Put("a.ts:g:3", 3)

	assert.Equal(t, int64(1), m.Get("a.ts:f:0"))
	assert.Equal(t, 3, m.Len())

	m.RemoveFile("a.ts")
	assert.Equal(t, int64(0), m.Get("a.ts:f:0"))
	assert.Equal(t, int64(2), m.Get("b.ts:f:0"))
	assert.Equal(t, 1, m.Len())

	// Re-put after removal works and keeps the map consistent.
	m.Put("a.ts:f:0", 9)
	assert.Equal(t, int64(9), m.Get("a.ts:f:0"))
}

func TestKeyMapSplitKeyWithColonsInPath(t *testing.T) {
	path, name := splitKey("c:/src/a.ts:fn:12")
	assert.Equal(t, "c:/src/a.ts", path)
	assert.Equal(t, "fn", name)
}

// Scenario: lib.ts declares hash; main.ts imports { hash } from './lib'
// and go() calls hash(). The call resolves via the import bridge, not the
// global fallback.
func TestResolveCallsImportBridge(t *testing.T) {
	keys := NewKeyMap()
	keys.Put("other.ts:hash:0", 1) // same-named decoy, inserted first
	keys.Put("lib.ts:hash:0", 2)
	keys.Put("main.ts:go:1", 3)

	calls := []extract.CallInfo{{
		CallerSymbolKey:      "main.ts:go:1",
		CalleeName:           "hash",
		FilePath:             "main.ts",
		Line:                 2,
		IsImported:           true,
		ImportSourceModule:   "./lib",
		ImportedOriginalName: "hash",
	}}

	edges := NewResolver(nil).ResolveCalls(calls, keys)
	require.Len(t, edges, 1)
	assert.Equal(t, int64(3), edges[0].SourceID)
	assert.Equal(t, int64(2), edges[0].TargetID, "import bridge must beat the decoy")
	assert.Equal(t, EdgeCall, edges[0].Type)
}

func TestResolveCallsSameFileBeforeGlobal(t *testing.T) {
	keys := NewKeyMap()
	keys.Put("x.ts:util:0", 1)
	keys.Put("y.ts:util:0", 2)
	keys.Put("y.ts:caller:5", 3)

	calls := []extract.CallInfo{{
		CallerSymbolKey: "y.ts:caller:5",
		CalleeName:      "util",
		FilePath:        "y.ts",
	}}

	edges := NewResolver(nil).ResolveCalls(calls, keys)
	require.Len(t, edges, 1)
	assert.Equal(t, int64(2), edges[0].TargetID, "same-file symbol wins over earlier global")
}

// Scenario: two files declare util(); a third imports from './a'. The call
// goes to a.ts. Without the import, the global fallback picks the first
// inserted.
func TestResolveCallsAmbiguousName(t *testing.T) {
	keys := NewKeyMap()
	keys.Put("a.ts:util:0", 1)
	keys.Put("b.ts:util:0", 2)
	keys.Put("c.ts:run:2", 3)

	withImport := []extract.CallInfo{{
		CallerSymbolKey:      "c.ts:run:2",
		CalleeName:           "util",
		FilePath:             "c.ts",
		IsImported:           true,
		ImportSourceModule:   "./a",
		ImportedOriginalName: "util",
	}}
	edges := NewResolver(nil).ResolveCalls(withImport, keys)
	require.Len(t, edges, 1)
	assert.Equal(t, int64(1), edges[0].TargetID)

	withoutImport := []extract.CallInfo{{
		CallerSymbolKey: "c.ts:run:2",
		CalleeName:      "util",
		FilePath:        "c.ts",
	}}
	edges = NewResolver(nil).ResolveCalls(withoutImport, keys)
	require.Len(t, edges, 1)
	assert.Equal(t, int64(1), edges[0].TargetID, "insertion order pins the fallback")
}

func TestResolveCallsDropsSelfAndUnresolved(t *testing.T) {
	keys := NewKeyMap()
	keys.Put("a.ts:rec:0", 1)

	calls := []extract.CallInfo{
		{CallerSymbolKey: "a.ts:rec:0", CalleeName: "rec", FilePath: "a.ts"},     // self-call
		{CallerSymbolKey: "a.ts:rec:0", CalleeName: "missing", FilePath: "a.ts"}, // unresolved
		{CallerSymbolKey: "gone.ts:x:0", CalleeName: "rec", FilePath: "gone.ts"}, // unknown caller
	}
	edges := NewResolver(nil).ResolveCalls(calls, keys)
	assert.Empty(t, edges)
}

func TestResolveCallsDeduplicates(t *testing.T) {
	keys := NewKeyMap()
	keys.Put("a.ts:f:0", 1)
	keys.Put("a.ts:g:5", 2)

	call := extract.CallInfo{CallerSymbolKey: "a.ts:g:5", CalleeName: "f", FilePath: "a.ts"}
	edges := NewResolver(nil).ResolveCalls([]extract.CallInfo{call, call, call}, keys)
	assert.Len(t, edges, 1)
}

func TestResolveImportsRequiresImporterSymbol(t *testing.T) {
	keys := NewKeyMap()
	keys.Put("lib.ts:hash:0", 1)

	imports := []extract.ImportInfo{{
		ImportedName: "hash",
		LocalName:    "hash",
		SourceModule: "./lib",
		FilePath:     "main.ts",
		Line:         1,
	}}

	// No symbol declared at main.ts line 1 under the local name: dropped.
	edges := NewResolver(nil).ResolveImports(imports, keys)
	assert.Empty(t, edges)

	// A declared re-export at the import's line produces the edge.
	keys.Put("main.ts:hash:0", 2)
	edges = NewResolver(nil).ResolveImports(imports, keys)
	require.Len(t, edges, 1)
	assert.Equal(t, int64(2), edges[0].SourceID)
	assert.Equal(t, int64(1), edges[0].TargetID)
	assert.Equal(t, EdgeImport, edges[0].Type)
}

func TestNormalizeModule(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"./lib", "lib"},
		{"./lib.ts", "lib"},
		{"./components/Button.tsx", "components/Button"},
		{"react", "react"},
		{"./", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, normalizeModule(tt.in), "normalizeModule(%q)", tt.in)
	}
}

func TestPathMatchesModule(t *testing.T) {
	assert.True(t, pathMatchesModule("src/lib.ts", "lib"))
	assert.True(t, pathMatchesModule("src/components/Button.tsx", "components/Button"))
	assert.False(t, pathMatchesModule("src/lib.ts", "other"))
}
