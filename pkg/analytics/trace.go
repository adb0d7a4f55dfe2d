// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package analytics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codescope/codescope/pkg/graph"
)

// Trace depth bounds: three hops following callees, one hop back to
// callers.
const (
	TraceDownstreamDepth = 3
	TraceUpstreamDepth   = 1
)

// TraceNode is one symbol in a function trace. NodeKey is the 1-based
// user-facing "<filePath>:<name>:<line>" form.
type TraceNode struct {
	NodeKey     string `json:"nodeKey"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	FilePath    string `json:"filePath"`
	Line        int    `json:"line"`
	IsSink      bool   `json:"isSink"`
	Depth       int    `json:"depth"`
	BlastRadius int    `json:"blastRadius"`
	Complexity  int    `json:"complexity"`
}

// TraceEdge connects two trace nodes by their node keys.
type TraceEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// FunctionTrace is the bounded bidirectional subgraph around one symbol.
type FunctionTrace struct {
	Origin string      `json:"origin"`
	Nodes  []TraceNode `json:"nodes"`
	Edges  []TraceEdge `json:"edges"`
}

// sinkPattern marks likely I/O boundaries by name or path.
var sinkPattern = regexp.MustCompile(`(?i)fetch|query|execute|request|send|api|db`)

// isSink flags probable side-effect boundaries: I/O-sounding names or
// paths, and service/client classes.
func isSink(sym *graph.SymbolRecord) bool {
	if sinkPattern.MatchString(sym.Name) || sinkPattern.MatchString(sym.FilePath) {
		return true
	}
	if sym.Type == "class" {
		return strings.Contains(sym.Name, "DB") ||
			strings.Contains(sym.Name, "Service") ||
			strings.Contains(sym.Name, "Client")
	}
	return false
}

// TraceFunction builds the trace centered on id: downstream BFS to depth
// +3 over outgoing edges, then upstream one hop over incoming edges. One
// visited set spans both directions; edges dedupe on "source→target".
func TraceFunction(store *graph.Store, id int64) (*FunctionTrace, error) {
	view, err := LoadView(store)
	if err != nil {
		return nil, err
	}
	origin, ok := view.Symbols[id]
	if !ok {
		return nil, fmt.Errorf("symbol %d not found", id)
	}

	trace := &FunctionTrace{Origin: nodeKey(origin)}
	visited := make(map[int64]bool)
	edgeSeen := make(map[string]bool)

	addNode := func(sym *graph.SymbolRecord, depth int) {
		trace.Nodes = append(trace.Nodes, TraceNode{
			NodeKey:     nodeKey(sym),
			Label:       sym.Name,
			Type:        string(sym.Type),
			FilePath:    sym.FilePath,
			Line:        sym.StartLine,
			IsSink:      isSink(sym),
			Depth:       depth,
			BlastRadius: view.BlastRadius(sym.ID, DefaultBlastDepth),
			Complexity:  sym.Complexity,
		})
	}
	addEdge := func(source, target *graph.SymbolRecord, edgeType string) {
		key := nodeKey(source) + "→" + nodeKey(target)
		if edgeSeen[key] {
			return
		}
		edgeSeen[key] = true
		trace.Edges = append(trace.Edges, TraceEdge{
			Source: nodeKey(source),
			Target: nodeKey(target),
			Type:   edgeType,
		})
	}

	visited[id] = true
	addNode(origin, 0)

	// Downstream: follow callees.
	type queued struct {
		id    int64
		depth int
	}
	queue := []queued{{id: id, depth: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= TraceDownstreamDepth {
			continue
		}
		source := view.Symbols[cur.id]
		for _, e := range view.Outgoing[cur.id] {
			target, ok := view.Symbols[e.TargetID]
			if !ok {
				continue
			}
			addEdge(source, target, e.Type)
			if visited[e.TargetID] {
				continue
			}
			visited[e.TargetID] = true
			addNode(target, cur.depth+1)
			queue = append(queue, queued{id: e.TargetID, depth: cur.depth + 1})
		}
	}

	// Upstream: one hop back to direct callers.
	for _, e := range view.Incoming[id] {
		source, ok := view.Symbols[e.SourceID]
		if !ok {
			continue
		}
		addEdge(source, origin, e.Type)
		if visited[e.SourceID] {
			continue
		}
		visited[e.SourceID] = true
		addNode(source, -TraceUpstreamDepth)
	}

	return trace, nil
}
