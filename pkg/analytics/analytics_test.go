// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package analytics

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/pkg/extract"
	"github.com/codescope/codescope/pkg/graph"
)

func openTestStore(t *testing.T) *graph.Store {
	t.Helper()
	store, err := graph.Open(filepath.Join(t.TempDir(), "graph.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// chainStore builds a call chain a -> b -> c -> d (edges point caller to
// callee) and returns the ids in that order.
func chainStore(t *testing.T, store *graph.Store) []int64 {
	t.Helper()
	ids, err := store.InsertSymbols([]extract.Symbol{
		{Name: "a", Type: extract.SymFunction, FilePath: "src/app/a.ts", StartLine: 1, EndLine: 2, Complexity: 1},
		{Name: "b", Type: extract.SymFunction, FilePath: "src/app/b.ts", StartLine: 1, EndLine: 2, Complexity: 2},
		{Name: "c", Type: extract.SymFunction, FilePath: "src/lib/c.ts", StartLine: 1, EndLine: 2, Complexity: 3},
		{Name: "d", Type: extract.SymFunction, FilePath: "src/lib/d.ts", StartLine: 1, EndLine: 2, Complexity: 4},
	})
	require.NoError(t, err)
	_, err = store.InsertEdgeBatch([][2]int64{
		{ids[0], ids[1]},
		{ids[1], ids[2]},
		{ids[2], ids[3]},
	}, "call")
	require.NoError(t, err)
	return ids
}

func TestBlastRadiusCountsReverseCallers(t *testing.T) {
	store := openTestStore(t)
	ids := chainStore(t, store)

	// d is called by c, which is called by b, which is called by a.
	br, err := BlastRadius(store, ids[3], 5)
	require.NoError(t, err)
	assert.Equal(t, 3, br)

	// a has no callers.
	br, err = BlastRadius(store, ids[0], 5)
	require.NoError(t, err)
	assert.Zero(t, br)
}

func TestBlastRadiusDepthBound(t *testing.T) {
	store := openTestStore(t)
	ids := chainStore(t, store)

	br, err := BlastRadius(store, ids[3], 1)
	require.NoError(t, err)
	assert.Equal(t, 1, br, "depth 1 sees only the direct caller")

	br, err = BlastRadius(store, ids[3], 2)
	require.NoError(t, err)
	assert.Equal(t, 2, br)
}

func TestFragility(t *testing.T) {
	store := openTestStore(t)
	ids := chainStore(t, store)

	// b: complexity 2, one outgoing edge -> 2 * (1+1) = 4.
	f, err := Fragility(store, ids[1])
	require.NoError(t, err)
	assert.Equal(t, 4, f)

	// d: complexity 4, no outgoing edges -> 4 * 1 = 4; never zero.
	f, err = Fragility(store, ids[3])
	require.NoError(t, err)
	assert.Equal(t, 4, f)
}

func TestAnalyzeImpact(t *testing.T) {
	store := openTestStore(t)
	ids := chainStore(t, store)

	res, err := AnalyzeImpact(store, ids[3])
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalAffected)
	assert.Equal(t, "low", res.RiskLevel)
	require.Len(t, res.Affected, 3)
	assert.Equal(t, 1, res.Affected[0].Depth)

	_, err = AnalyzeImpact(store, 9999)
	assert.Error(t, err)
}

func TestRiskLevels(t *testing.T) {
	assert.Equal(t, "low", riskLevel(0))
	assert.Equal(t, "low", riskLevel(5))
	assert.Equal(t, "medium", riskLevel(6))
	assert.Equal(t, "medium", riskLevel(20))
	assert.Equal(t, "high", riskLevel(21))
}

func TestGetContext(t *testing.T) {
	store := openTestStore(t)
	ids := chainStore(t, store)

	res, err := GetContext(store, ids[1])
	require.NoError(t, err)
	assert.Equal(t, "b", res.Symbol.Name)
	assert.Equal(t, 1, res.IncomingEdgeCount)
	assert.Equal(t, 1, res.OutgoingEdgeCount)
	require.Len(t, res.Neighbors, 2)
}

func TestTraceFunctionBounds(t *testing.T) {
	store := openTestStore(t)
	// Long chain: t0 -> t1 -> t2 -> t3 -> t4, plus caller up0 -> up1 -> t0.
	syms := make([]extract.Symbol, 0, 7)
	for _, name := range []string{"t0", "t1", "t2", "t3", "t4", "up0", "up1"} {
		syms = append(syms, extract.Symbol{
			Name: name, Type: extract.SymFunction, FilePath: "x/" + name + ".ts",
			StartLine: 1, EndLine: 2, Complexity: 1,
		})
	}
	ids, err := store.InsertSymbols(syms)
	require.NoError(t, err)
	_, err = store.InsertEdgeBatch([][2]int64{
		{ids[0], ids[1]}, {ids[1], ids[2]}, {ids[2], ids[3]}, {ids[3], ids[4]},
		{ids[5], ids[6]}, {ids[6], ids[0]},
	}, "call")
	require.NoError(t, err)

	trace, err := TraceFunction(store, ids[0])
	require.NoError(t, err)

	byKey := make(map[string]TraceNode)
	for _, n := range trace.Nodes {
		byKey[n.Label] = n
	}

	// Downstream stops at depth 3: t4 is out of range.
	assert.Contains(t, byKey, "t1")
	assert.Contains(t, byKey, "t2")
	assert.Contains(t, byKey, "t3")
	assert.NotContains(t, byKey, "t4")
	assert.Equal(t, 3, byKey["t3"].Depth)

	// Upstream is one hop: up1 appears at depth -1, up0 does not.
	assert.Contains(t, byKey, "up1")
	assert.Equal(t, -1, byKey["up1"].Depth)
	assert.NotContains(t, byKey, "up0")

	// Node keys are 1-based.
	assert.Equal(t, "x/t0.ts:t0:1", trace.Origin)
}

func TestTraceEdgeDedup(t *testing.T) {
	store := openTestStore(t)
	ids := chainStore(t, store)

	trace, err := TraceFunction(store, ids[0])
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, e := range trace.Edges {
		key := e.Source + "→" + e.Target
		assert.False(t, seen[key], "duplicate edge %s", key)
		seen[key] = true
	}
}

func TestIsSink(t *testing.T) {
	tests := []struct {
		name     string
		sym      graph.SymbolRecord
		expected bool
	}{
		{"fetch name", symRec("fetchUser", "function", "src/a.ts"), true},
		{"db path", symRec("load", "function", "src/db/client.ts"), true},
		{"service class", symRec("UserService", "class", "src/s.ts"), true},
		{"db class", symRec("GraphDB", "class", "src/s.ts"), true},
		{"plain class", symRec("Widget", "class", "src/s.ts"), false},
		{"plain function", symRec("compute", "function", "src/calc.ts"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isSink(&tt.sym))
		})
	}
}

func symRec(name, typ, file string) graph.SymbolRecord {
	rec := graph.SymbolRecord{}
	rec.Name = name
	rec.Type = extract.SymbolType(typ)
	rec.FilePath = file
	return rec
}

// Scenario F: four files in src/db with ten symbols of known complexities
// roll up to symbolCount=10, avgComplexity=1.8, domain "Data Layer".
func TestSkeletonScenarioF(t *testing.T) {
	store := openTestStore(t)

	complexities := [][]int{{1, 2, 3}, {1, 1, 2}, {4, 1}, {1, 2}}
	var symbols []extract.Symbol
	for i, fileCx := range complexities {
		file := []string{"src/db/a.ts", "src/db/b.ts", "src/db/c.ts", "src/db/d.ts"}[i]
		for j, cx := range fileCx {
			symbols = append(symbols, extract.Symbol{
				Name: "f" + string(rune('a'+i)) + string(rune('0'+j)), Type: extract.SymFunction,
				FilePath: file, StartLine: j + 1, EndLine: j + 1, Complexity: cx,
			})
		}
	}
	// An extra file outside src/db keeps the workspace root at "src".
	symbols = append(symbols, extract.Symbol{
		Name: "page", Type: extract.SymFunction, FilePath: "src/app/page.tsx",
		StartLine: 1, EndLine: 1, Complexity: 1,
	})
	_, err := store.InsertSymbols(symbols)
	require.NoError(t, err)

	sk, err := BuildSkeleton(store, true)
	require.NoError(t, err)
	assert.Equal(t, "src", sk.Root)

	db := findNode(t, sk.Nodes, "db")
	assert.Equal(t, "folder", db.Kind)
	assert.Equal(t, 10, db.Metrics.SymbolCount)
	assert.InDelta(t, 1.8, db.Metrics.AvgComplexity, 0.001)
	assert.Equal(t, "Data Layer", db.DomainName)

	app := findNode(t, sk.Nodes, "app")
	assert.Equal(t, "User Interface", app.DomainName)
	// Files inherit the folder's domain.
	require.Len(t, app.Children, 1)
	assert.Equal(t, "User Interface", app.Children[0].DomainName)
}

func findNode(t *testing.T, nodes []*SkeletonNode, name string) *SkeletonNode {
	t.Helper()
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
		if found := findNodeIn(n.Children, name); found != nil {
			return found
		}
	}
	t.Fatalf("skeleton node %q not found", name)
	return nil
}

func findNodeIn(nodes []*SkeletonNode, name string) *SkeletonNode {
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
		if found := findNodeIn(n.Children, name); found != nil {
			return found
		}
	}
	return nil
}

func TestSkeletonCaching(t *testing.T) {
	store := openTestStore(t)
	_, err := store.InsertSymbols([]extract.Symbol{
		{Name: "f", Type: extract.SymFunction, FilePath: "src/app/f.ts", StartLine: 1, EndLine: 1, Complexity: 1},
		{Name: "g", Type: extract.SymFunction, FilePath: "src/lib/g.ts", StartLine: 1, EndLine: 1, Complexity: 1},
	})
	require.NoError(t, err)

	first, err := BuildSkeleton(store, false)
	require.NoError(t, err)

	cached, err := store.GetMeta("architecture_skeleton")
	require.NoError(t, err)
	assert.NotEmpty(t, cached)

	// A second non-refine build serves the cache.
	second, err := BuildSkeleton(store, false)
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
}

func TestSkeletonSkipsVendoredSegments(t *testing.T) {
	store := openTestStore(t)
	_, err := store.InsertSymbols([]extract.Symbol{
		{Name: "f", Type: extract.SymFunction, FilePath: "proj/src/f.ts", StartLine: 1, EndLine: 1, Complexity: 1},
		{Name: "x", Type: extract.SymFunction, FilePath: "proj/node_modules/x.ts", StartLine: 1, EndLine: 1, Complexity: 1},
	})
	require.NoError(t, err)

	sk, err := BuildSkeleton(store, true)
	require.NoError(t, err)
	assert.Nil(t, findNodeIn(sk.Nodes, "node_modules"))
	assert.NotNil(t, findNodeIn(sk.Nodes, "f.ts"))
}

func TestSkeletonEdgesAreFileGranular(t *testing.T) {
	store := openTestStore(t)
	chainStore(t, store)

	sk, err := BuildSkeleton(store, true)
	require.NoError(t, err)
	require.NotEmpty(t, sk.Edges)
	for _, e := range sk.Edges {
		assert.NotEqual(t, e.Source, e.Target)
		assert.Greater(t, e.Weight, 0)
	}
}
