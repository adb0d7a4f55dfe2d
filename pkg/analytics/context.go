// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package analytics

import (
	"fmt"

	"github.com/codescope/codescope/pkg/graph"
)

// NeighborSymbol is one symbol adjacent to the context target.
type NeighborSymbol struct {
	ID       int64  `json:"id"`
	NodeKey  string `json:"nodeKey"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	FilePath string `json:"filePath"`
	EdgeType string `json:"edgeType"`
	Relation string `json:"relation"` // "incoming" or "outgoing"
}

// ContextResult assembles a symbol with its immediate graph neighborhood.
type ContextResult struct {
	Symbol            *graph.SymbolRecord `json:"symbol"`
	Neighbors         []NeighborSymbol    `json:"neighbors"`
	IncomingEdgeCount int                 `json:"incomingEdgeCount"`
	OutgoingEdgeCount int                 `json:"outgoingEdgeCount"`
}

// GetContext fetches one symbol with its direct neighbors on both sides.
// Each distinct neighbor appears once per (edge type, direction).
func GetContext(store *graph.Store, id int64) (*ContextResult, error) {
	sym, err := store.SymbolByID(id)
	if err != nil {
		return nil, err
	}
	if sym == nil {
		return nil, fmt.Errorf("symbol %d not found", id)
	}

	outgoing, err := store.OutgoingEdges(id)
	if err != nil {
		return nil, err
	}
	incoming, err := store.IncomingEdges(id)
	if err != nil {
		return nil, err
	}

	res := &ContextResult{
		Symbol:            sym,
		IncomingEdgeCount: len(incoming),
		OutgoingEdgeCount: len(outgoing),
	}

	seen := make(map[string]bool)
	appendNeighbor := func(neighborID int64, edgeType, relation string) error {
		key := fmt.Sprintf("%d:%s:%s", neighborID, edgeType, relation)
		if seen[key] {
			return nil
		}
		seen[key] = true
		neighbor, err := store.SymbolByID(neighborID)
		if err != nil {
			return err
		}
		if neighbor == nil {
			return nil
		}
		res.Neighbors = append(res.Neighbors, NeighborSymbol{
			ID:       neighbor.ID,
			NodeKey:  nodeKey(neighbor),
			Name:     neighbor.Name,
			Type:     string(neighbor.Type),
			FilePath: neighbor.FilePath,
			EdgeType: edgeType,
			Relation: relation,
		})
		return nil
	}

	for _, e := range outgoing {
		if err := appendNeighbor(e.TargetID, e.Type, "outgoing"); err != nil {
			return nil, err
		}
	}
	for _, e := range incoming {
		if err := appendNeighbor(e.SourceID, e.Type, "incoming"); err != nil {
			return nil, err
		}
	}
	return res, nil
}
