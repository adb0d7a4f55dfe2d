// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/pkg/graph"
	"github.com/codescope/codescope/pkg/lang"
)

func newTestIndexer(t *testing.T) (*Indexer, *graph.Store) {
	t.Helper()
	store, err := graph.Open(filepath.Join(t.TempDir(), "graph.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ix, err := NewIndexer(store, nil)
	require.NoError(t, err)
	return ix, store
}

const mathTS = `export function add(a:number,b:number){ return a+b; }
export function sum(xs:number[]){ return xs.reduce((s,x)=>add(s,x),0); }
`

func TestIndexFileScenarioA(t *testing.T) {
	ix, store := newTestIndexer(t)

	stats, err := ix.IndexFile(context.Background(), FileInput{
		Path:    "math.ts",
		Content: []byte(mathTS),
	})
	require.NoError(t, err)

	// add, sum, and the anonymous arrow.
	assert.Equal(t, 3, stats.SymbolCount)
	// One call edge: sum -> add.
	assert.Equal(t, 1, stats.EdgeCount)

	symbols, err := store.SymbolsByFile("math.ts")
	require.NoError(t, err)
	require.Len(t, symbols, 3)

	edges, err := store.AllEdges()
	require.NoError(t, err)
	require.Len(t, edges, 1)

	src, err := store.SymbolByID(edges[0].SourceID)
	require.NoError(t, err)
	tgt, err := store.SymbolByID(edges[0].TargetID)
	require.NoError(t, err)
	assert.Equal(t, "sum", src.Name)
	assert.Equal(t, "add", tgt.Name)
	assert.Equal(t, "call", edges[0].Type)
}

// Round-trip law: extract → insert → query-file returns the same set.
func TestIndexFileRoundTrip(t *testing.T) {
	ix, store := newTestIndexer(t)

	_, err := ix.IndexFile(context.Background(), FileInput{Path: "math.ts", Content: []byte(mathTS)})
	require.NoError(t, err)

	symbols, err := store.SymbolsByFile("math.ts")
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, s := range symbols {
		names[s.Name] = true
		assert.GreaterOrEqual(t, s.Complexity, 1)
		assert.GreaterOrEqual(t, s.EndLine, s.StartLine)
	}
	assert.True(t, names["add"])
	assert.True(t, names["sum"])
	assert.True(t, names["<anonymous:2>"])
}

// Scenario B: the call edge resolves through the import bridge.
func TestIndexBatchImportBridge(t *testing.T) {
	ix, store := newTestIndexer(t)

	files := []FileInput{
		{Path: "lib.ts", Content: []byte("export function hash(s:string){ return s; }\n")},
		{Path: "main.ts", Content: []byte("import { hash } from './lib';\nexport function go(){ return hash('x'); }\n")},
	}
	stats, err := ix.IndexBatch(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed)
	assert.Equal(t, 2, stats.TotalSymbols)
	require.Equal(t, 1, stats.TotalEdges)

	edges, err := store.AllEdges()
	require.NoError(t, err)
	require.Len(t, edges, 1)
	src, _ := store.SymbolByID(edges[0].SourceID)
	tgt, _ := store.SymbolByID(edges[0].TargetID)
	assert.Equal(t, "go", src.Name)
	assert.Equal(t, "hash", tgt.Name)
	assert.Equal(t, "lib.ts", tgt.FilePath)
}

// Scenario C: with two same-named declarations, the import picks the right
// one.
func TestIndexBatchDisambiguatesByImport(t *testing.T) {
	ix, store := newTestIndexer(t)

	files := []FileInput{
		{Path: "a.ts", Content: []byte("export function util(){ return 1; }\n")},
		{Path: "b.ts", Content: []byte("export function util(){ return 2; }\n")},
		{Path: "c.ts", Content: []byte("import { util } from './a';\nexport function run(){ return util(); }\n")},
	}
	_, err := ix.IndexBatch(context.Background(), files)
	require.NoError(t, err)

	edges, err := store.AllEdges()
	require.NoError(t, err)
	require.Len(t, edges, 1)
	tgt, _ := store.SymbolByID(edges[0].TargetID)
	assert.Equal(t, "a.ts", tgt.FilePath)
}

func TestNeedsReindex(t *testing.T) {
	ix, _ := newTestIndexer(t)

	content := []byte(mathTS)
	needs, stored, current, err := ix.NeedsReindex("math.ts", content)
	require.NoError(t, err)
	assert.True(t, needs, "never-indexed file is dirty")
	assert.Empty(t, stored)
	assert.Len(t, current, 64)

	_, err = ix.IndexFile(context.Background(), FileInput{Path: "math.ts", Content: content})
	require.NoError(t, err)

	needs, stored, current, err = ix.NeedsReindex("math.ts", content)
	require.NoError(t, err)
	assert.False(t, needs, "unchanged content is clean")
	assert.Equal(t, current, stored)

	// One-byte change flips it.
	changed := append(append([]byte{}, content...), ' ')
	needs, _, _, err = ix.NeedsReindex("math.ts", changed)
	require.NoError(t, err)
	assert.True(t, needs)
}

// Scenario E: re-indexing modified content replaces the file's symbols and
// drops edges touching the removed ones.
func TestIncrementalReplace(t *testing.T) {
	ix, store := newTestIndexer(t)
	ctx := context.Background()

	_, err := ix.IndexFile(ctx, FileInput{Path: "math.ts", Content: []byte(mathTS)})
	require.NoError(t, err)

	before, err := store.CountSymbols()
	require.NoError(t, err)
	assert.Equal(t, 3, before)

	// v2 drops sum (and with it the call edge and the arrow).
	v2 := "export function add(a:number,b:number){ return a+b; }\n"
	stats, err := ix.IndexFile(ctx, FileInput{Path: "math.ts", Content: []byte(v2)})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SymbolCount)

	after, err := store.CountSymbols()
	require.NoError(t, err)
	assert.Equal(t, 1, after)

	edgeCount, err := store.CountEdges()
	require.NoError(t, err)
	assert.Zero(t, edgeCount, "edges to removed symbols must be gone")
}

// Export → clear → re-ingest yields an isomorphic graph.
func TestReingestIsomorphic(t *testing.T) {
	ix, store := newTestIndexer(t)
	ctx := context.Background()

	files := []FileInput{
		{Path: "lib.ts", Content: []byte("export function hash(s:string){ return s; }\n")},
		{Path: "main.ts", Content: []byte("import { hash } from './lib';\nexport function go(){ return hash('x'); }\n")},
	}
	_, err := ix.IndexBatch(ctx, files)
	require.NoError(t, err)

	first, err := store.ExportGraph()
	require.NoError(t, err)

	require.NoError(t, ix.Clear())
	_, err = ix.IndexBatch(ctx, files)
	require.NoError(t, err)

	second, err := store.ExportGraph()
	require.NoError(t, err)

	assert.Equal(t, nodeKeys(first), nodeKeys(second))
	assert.Len(t, second.Edges, len(first.Edges))
}

func nodeKeys(g *graph.GraphExport) []string {
	keys := make([]string, 0, len(g.Symbols))
	for _, s := range g.Symbols {
		keys = append(keys, s.NodeKey)
	}
	return keys
}

func TestIndexBatchSkipsFailingFile(t *testing.T) {
	ix, store := newTestIndexer(t)

	files := []FileInput{
		{Path: "good.ts", Content: []byte("export function ok(){}\n")},
		{Path: "weird.xyz", Content: []byte("not a supported language")},
	}
	stats, err := ix.IndexBatch(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesProcessed, "attempts are counted")
	assert.Equal(t, 1, stats.FilesFailed)

	n, err := store.CountSymbols()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIndexFilePython(t *testing.T) {
	ix, store := newTestIndexer(t)

	source := `def helper():
    return 1

def top():
    return helper()
`
	stats, err := ix.IndexFile(context.Background(), FileInput{
		Path:     "mod.py",
		Content:  []byte(source),
		Language: lang.LangPython,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SymbolCount)
	assert.Equal(t, 1, stats.EdgeCount)

	edges, err := store.AllEdges()
	require.NoError(t, err)
	src, _ := store.SymbolByID(edges[0].SourceID)
	assert.Equal(t, "top", src.Name)
}

func TestDiscoverFilesSkipsVendoredDirs(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, root, "src/a.ts", "export function a(){}\n")
	mustWrite(t, root, "node_modules/pkg/index.ts", "export function x(){}\n")
	mustWrite(t, root, "dist/out.ts", "export function y(){}\n")
	mustWrite(t, root, "README.md", "docs\n")

	files, err := DiscoverFiles(root, DiscoverOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "src/a.ts", files[0].Path)
	assert.Equal(t, lang.LangTypeScript, files[0].Language)
}

func TestDiscoverFilesExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, root, "src/a.ts", "export function a(){}\n")
	mustWrite(t, root, "src/a.min.js", "function m(){}\n")
	mustWrite(t, root, "gen/b.ts", "export function b(){}\n")

	files, err := DiscoverFiles(root, DiscoverOptions{
		ExcludeGlobs: []string{"*.min.js", "gen/**"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "src/a.ts", files[0].Path)
}

func mustWrite(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}
