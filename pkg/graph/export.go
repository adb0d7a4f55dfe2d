// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"fmt"
)

// ExportedSymbol is a symbol in the wire form of a graph export. NodeKey
// uses the 1-based user-facing convention "<file_path>:<name>:<line>".
type ExportedSymbol struct {
	ID         int64  `json:"id"`
	NodeKey    string `json:"nodeKey"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	FilePath   string `json:"filePath"`
	StartLine  int    `json:"startLine"`
	EndLine    int    `json:"endLine"`
	Complexity int    `json:"complexity"`
	Domain     string `json:"domain,omitempty"`
}

// ExportedEdge is an edge in the wire form of a graph export.
type ExportedEdge struct {
	SourceID int64  `json:"sourceId"`
	TargetID int64  `json:"targetId"`
	Type     string `json:"type"`
	Reason   string `json:"reason,omitempty"`
}

// GraphExport is the full serialized graph.
type GraphExport struct {
	Symbols []ExportedSymbol `json:"symbols"`
	Edges   []ExportedEdge   `json:"edges"`
}

// ExportGraph serializes every symbol and edge. Re-ingesting the same
// sources after a clear yields an isomorphic export: same node keys, same
// edge set, ids aside.
func (s *Store) ExportGraph() (*GraphExport, error) {
	symbols, err := s.AllSymbols()
	if err != nil {
		return nil, fmt.Errorf("export symbols: %w", err)
	}
	edges, err := s.AllEdges()
	if err != nil {
		return nil, fmt.Errorf("export edges: %w", err)
	}

	out := &GraphExport{
		Symbols: make([]ExportedSymbol, 0, len(symbols)),
		Edges:   make([]ExportedEdge, 0, len(edges)),
	}
	for _, sym := range symbols {
		out.Symbols = append(out.Symbols, ExportedSymbol{
			ID:         sym.ID,
			NodeKey:    fmt.Sprintf("%s:%s:%d", sym.FilePath, sym.Name, sym.StartLine),
			Name:       sym.Name,
			Type:       string(sym.Type),
			FilePath:   sym.FilePath,
			StartLine:  sym.StartLine,
			EndLine:    sym.EndLine,
			Complexity: sym.Complexity,
			Domain:     sym.Domain.String,
		})
	}
	for _, e := range edges {
		out.Edges = append(out.Edges, ExportedEdge{
			SourceID: e.SourceID,
			TargetID: e.TargetID,
			Type:     e.Type,
			Reason:   e.Reason,
		})
	}
	return out, nil
}
