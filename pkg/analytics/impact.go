// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package analytics

import (
	"fmt"

	"github.com/codescope/codescope/pkg/graph"
)

// AffectedSymbol is one symbol reached by the impact BFS.
type AffectedSymbol struct {
	ID       int64  `json:"id"`
	NodeKey  string `json:"nodeKey"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	FilePath string `json:"filePath"`
	Depth    int    `json:"depth"`
}

// ImpactResult is the blast-radius report for one symbol.
type ImpactResult struct {
	Affected      []AffectedSymbol `json:"affected"`
	TotalAffected int              `json:"totalAffected"`
	RiskLevel     string           `json:"riskLevel"`
}

// BlastRadius runs the bounded reverse-caller BFS from a symbol and returns
// the count of reachable symbols, origin excluded.
func BlastRadius(store *graph.Store, id int64, maxDepth int) (int, error) {
	view, err := LoadView(store)
	if err != nil {
		return 0, err
	}
	if _, ok := view.Symbols[id]; !ok {
		return 0, fmt.Errorf("symbol %d not found", id)
	}
	return view.BlastRadius(id, maxDepth), nil
}

// Fragility computes complexity × (outDegree + 1) for a symbol.
func Fragility(store *graph.Store, id int64) (int, error) {
	sym, err := store.SymbolByID(id)
	if err != nil {
		return 0, err
	}
	if sym == nil {
		return 0, fmt.Errorf("symbol %d not found", id)
	}
	outDeg, err := store.OutDegree(id)
	if err != nil {
		return 0, err
	}
	return sym.Complexity * (outDeg + 1), nil
}

// AnalyzeImpact reports every symbol the reverse-caller BFS reaches from
// id, with a coarse risk level derived from the count.
func AnalyzeImpact(store *graph.Store, id int64) (*ImpactResult, error) {
	view, err := LoadView(store)
	if err != nil {
		return nil, err
	}
	if _, ok := view.Symbols[id]; !ok {
		return nil, fmt.Errorf("symbol %d not found", id)
	}

	type queued struct {
		id    int64
		depth int
	}
	visited := map[int64]bool{id: true}
	queue := []queued{{id: id, depth: 0}}
	var affected []AffectedSymbol

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= DefaultBlastDepth {
			continue
		}
		for _, e := range view.Incoming[cur.id] {
			if visited[e.SourceID] {
				continue
			}
			visited[e.SourceID] = true
			sym, ok := view.Symbols[e.SourceID]
			if !ok {
				continue
			}
			affected = append(affected, AffectedSymbol{
				ID:       sym.ID,
				NodeKey:  nodeKey(sym),
				Name:     sym.Name,
				Type:     string(sym.Type),
				FilePath: sym.FilePath,
				Depth:    cur.depth + 1,
			})
			queue = append(queue, queued{id: e.SourceID, depth: cur.depth + 1})
		}
	}

	return &ImpactResult{
		Affected:      affected,
		TotalAffected: len(affected),
		RiskLevel:     riskLevel(len(affected)),
	}, nil
}

// riskLevel buckets an affected count. Thresholds follow the blast-radius
// depth bound: a handful of callers is low, a subsystem is medium,
// anything wider is high.
func riskLevel(affected int) string {
	switch {
	case affected <= 5:
		return "low"
	case affected <= 20:
		return "medium"
	default:
		return "high"
	}
}

// nodeKey renders the user-facing node key "<file_path>:<name>:<line>"
// with a 1-based line, unlike the extractor's 0-based symbol-keys.
func nodeKey(sym *graph.SymbolRecord) string {
	return fmt.Sprintf("%s:%s:%d", sym.FilePath, sym.Name, sym.StartLine)
}
