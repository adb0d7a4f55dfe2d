// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analytics derives the query surfaces from the persisted graph:
// blast radius, fragility, impact, the architecture skeleton, the function
// trace, and neighbor context.
package analytics

import (
	"fmt"

	"github.com/codescope/codescope/pkg/graph"
)

// View is an in-memory snapshot of the graph used by the traversal-heavy
// analytics. Loading once beats issuing one store query per BFS hop.
type View struct {
	Symbols  map[int64]*graph.SymbolRecord
	Outgoing map[int64][]graph.EdgeRecord
	Incoming map[int64][]graph.EdgeRecord
}

// LoadView snapshots every symbol and edge.
func LoadView(store *graph.Store) (*View, error) {
	symbols, err := store.AllSymbols()
	if err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	edges, err := store.AllEdges()
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}

	v := &View{
		Symbols:  make(map[int64]*graph.SymbolRecord, len(symbols)),
		Outgoing: make(map[int64][]graph.EdgeRecord),
		Incoming: make(map[int64][]graph.EdgeRecord),
	}
	for i := range symbols {
		v.Symbols[symbols[i].ID] = &symbols[i]
	}
	for _, e := range edges {
		v.Outgoing[e.SourceID] = append(v.Outgoing[e.SourceID], e)
		v.Incoming[e.TargetID] = append(v.Incoming[e.TargetID], e)
	}
	return v, nil
}

// BlastRadius counts the symbols reachable by reverse-caller BFS from id,
// up to maxDepth hops, excluding the origin.
func (v *View) BlastRadius(id int64, maxDepth int) int {
	if maxDepth <= 0 {
		maxDepth = DefaultBlastDepth
	}
	visited := map[int64]bool{id: true}
	frontier := []int64{id}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []int64
		for _, cur := range frontier {
			for _, e := range v.Incoming[cur] {
				if !visited[e.SourceID] {
					visited[e.SourceID] = true
					next = append(next, e.SourceID)
				}
			}
		}
		frontier = next
	}
	return len(visited) - 1
}

// Fragility scores a symbol as complexity × (outDegree + 1); the +1 keeps
// isolated complex nodes above zero.
func (v *View) Fragility(id int64) int {
	sym, ok := v.Symbols[id]
	if !ok {
		return 0
	}
	return sym.Complexity * (len(v.Outgoing[id]) + 1)
}

// DefaultBlastDepth bounds the reverse BFS.
const DefaultBlastDepth = 5
