// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/codescope/codescope/pkg/graph"
)

// skeletonMetaKey is the meta slot caching the serialized skeleton.
const skeletonMetaKey = "architecture_skeleton"

// skeletonSkipDirs mirrors the indexer's skip set; files under these
// segments are dropped from the rollup even if they were indexed.
var skeletonSkipDirs = map[string]bool{
	".next": true, "node_modules": true, ".git": true, "types": true,
	"dist": true, "build": true, ".venv": true, "__pycache__": true,
}

// domainHeuristics maps well-known folder paths to domain labels.
// Descendants inherit the label unless they match their own entry.
var domainHeuristics = map[string]string{
	"src/app":        "User Interface",
	"src/api":        "API Layer",
	"src/lib":        "Infrastructure/Utils",
	"src/components": "UI Components",
	"src/hooks":      "React Hooks",
	"src/services":   "Business Services",
	"src/worker":     "Background Workers",
	"src/db":         "Data Layer",
}

// SkeletonMetrics aggregates a node's symbols.
type SkeletonMetrics struct {
	SymbolCount      int      `json:"symbolCount"`
	AvgComplexity    float64  `json:"avgComplexity"`
	AvgFragility     float64  `json:"avgFragility"`
	TotalBlastRadius int      `json:"totalBlastRadius"`
	ImportPaths      []string `json:"importPaths"`
}

// SkeletonNode is one folder or file of the rollup. Path is relative to
// the skeleton root.
type SkeletonNode struct {
	Name       string          `json:"name"`
	Path       string          `json:"path"`
	Kind       string          `json:"kind"` // "folder" or "file"
	DomainName string          `json:"domainName,omitempty"`
	Metrics    SkeletonMetrics `json:"metrics"`
	Children   []*SkeletonNode `json:"children,omitempty"`
}

// SkeletonEdge is a file-granularity dependency with its edge count as
// weight.
type SkeletonEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Skeleton is the folder/file rollup with aggregated metrics, domain
// labels, and file-level edges.
type Skeleton struct {
	Root        string          `json:"root"`
	Nodes       []*SkeletonNode `json:"nodes"`
	Edges       []SkeletonEdge  `json:"edges"`
	GeneratedAt string          `json:"generatedAt"`
}

// BuildSkeleton returns the architecture skeleton, serving the cached copy
// unless refine is set or the cache slot is empty. The fresh result is
// written back to meta.
func BuildSkeleton(store *graph.Store, refine bool) (*Skeleton, error) {
	if !refine {
		if cached, err := store.GetMeta(skeletonMetaKey); err == nil && cached != "" {
			var sk Skeleton
			if jerr := json.Unmarshal([]byte(cached), &sk); jerr == nil {
				return &sk, nil
			}
			// A corrupt cache entry falls through to a rebuild.
		}
	}

	sk, err := computeSkeleton(store)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(sk); err == nil {
		_ = store.SetMeta(skeletonMetaKey, string(raw))
	}
	return sk, nil
}

func computeSkeleton(store *graph.Store) (*Skeleton, error) {
	view, err := LoadView(store)
	if err != nil {
		return nil, err
	}

	paths, err := store.DistinctFilePaths()
	if err != nil {
		return nil, err
	}
	root := graph.CommonPathPrefix(paths)

	sk := &Skeleton{
		Root:        root,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if len(paths) == 0 {
		return sk, nil
	}

	// Relativize and drop skipped subtrees.
	relByFile := make(map[string]string)
	for _, p := range paths {
		rel := relativize(p, root)
		if rel == "" || hasSkippedSegment(rel) {
			continue
		}
		relByFile[p] = rel
	}

	fileNodes := buildFileNodes(view, relByFile)
	materializeFolders(sk, fileNodes)
	aggregateFolders(sk.Nodes)
	applyDomains(sk.Nodes, root, "")

	sk.Edges = buildSkeletonEdges(store, relByFile)
	return sk, nil
}

// relativize strips the workspace root from a file path. A mixed corpus
// with root "/" keeps paths as-is, so every file lands top-level.
func relativize(p, root string) string {
	if root == "" || root == "/" {
		return strings.TrimPrefix(p, "/")
	}
	if p == root {
		return path.Base(p)
	}
	return strings.TrimPrefix(p, root+"/")
}

func hasSkippedSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if skeletonSkipDirs[seg] {
			return true
		}
	}
	return false
}

// buildFileNodes computes per-file metrics: symbol count, mean complexity,
// mean fragility, max blast radius, and outgoing import targets.
func buildFileNodes(view *View, relByFile map[string]string) map[string]*SkeletonNode {
	symbolsByFile := make(map[string][]*graph.SymbolRecord)
	for _, sym := range view.Symbols {
		if _, ok := relByFile[sym.FilePath]; ok {
			symbolsByFile[sym.FilePath] = append(symbolsByFile[sym.FilePath], sym)
		}
	}

	nodes := make(map[string]*SkeletonNode, len(relByFile))
	for file, rel := range relByFile {
		syms := symbolsByFile[file]
		node := &SkeletonNode{
			Name: path.Base(rel),
			Path: rel,
			Kind: "file",
		}

		var complexitySum, fragilitySum float64
		maxBlast := 0
		importSet := make(map[string]bool)
		for _, sym := range syms {
			complexitySum += float64(sym.Complexity)
			fragilitySum += float64(view.Fragility(sym.ID))
			if br := view.BlastRadius(sym.ID, DefaultBlastDepth); br > maxBlast {
				maxBlast = br
			}
			for _, e := range view.Outgoing[sym.ID] {
				if e.Type != "import" {
					continue
				}
				target, ok := view.Symbols[e.TargetID]
				if !ok || target.FilePath == file {
					continue
				}
				if targetRel, ok := relByFile[target.FilePath]; ok {
					importSet[targetRel] = true
				}
			}
		}

		node.Metrics.SymbolCount = len(syms)
		if len(syms) > 0 {
			node.Metrics.AvgComplexity = round1(complexitySum / float64(len(syms)))
			node.Metrics.AvgFragility = round1(fragilitySum / float64(len(syms)))
		}
		node.Metrics.TotalBlastRadius = maxBlast
		node.Metrics.ImportPaths = sortedKeys(importSet)
		nodes[rel] = node
	}
	return nodes
}

// materializeFolders creates every intermediate folder node and links the
// tree; top-level nodes go on the skeleton's root list.
func materializeFolders(sk *Skeleton, fileNodes map[string]*SkeletonNode) {
	folders := make(map[string]*SkeletonNode)

	folderFor := func(dir string) *SkeletonNode {
		if dir == "." || dir == "" {
			return nil
		}
		if node, ok := folders[dir]; ok {
			return node
		}
		// Create the chain bottom-up.
		var created *SkeletonNode
		for cur := dir; cur != "." && cur != ""; cur = path.Dir(cur) {
			if _, ok := folders[cur]; ok {
				break
			}
			node := &SkeletonNode{Name: path.Base(cur), Path: cur, Kind: "folder"}
			folders[cur] = node
			if created != nil {
				node.Children = append(node.Children, created)
			}
			created = node
			if parent := path.Dir(cur); parent == "." || parent == "" {
				sk.Nodes = append(sk.Nodes, node)
			} else if parentNode, ok := folders[parent]; ok {
				parentNode.Children = append(parentNode.Children, node)
				created = nil
				break
			}
		}
		return folders[dir]
	}

	// Deterministic order: files sorted by path.
	rels := make([]string, 0, len(fileNodes))
	for rel := range fileNodes {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	for _, rel := range rels {
		node := fileNodes[rel]
		dir := path.Dir(rel)
		if parent := folderFor(dir); parent != nil {
			parent.Children = append(parent.Children, node)
		} else {
			sk.Nodes = append(sk.Nodes, node)
		}
	}
}

// aggregateFolders rolls metrics up post-order: counts sum, complexity is
// a symbol-weighted mean, fragility is a plain sum rounded to one decimal,
// blast radius takes the max, import paths union up truncated to 20.
func aggregateFolders(nodes []*SkeletonNode) {
	for _, node := range nodes {
		aggregateNode(node)
	}
}

func aggregateNode(node *SkeletonNode) {
	if node.Kind != "folder" {
		return
	}
	for _, child := range node.Children {
		aggregateNode(child)
	}

	var symbolCount int
	var weightedComplexity, fragilitySum float64
	maxBlast := 0
	importSet := make(map[string]bool)

	for _, child := range node.Children {
		symbolCount += child.Metrics.SymbolCount
		weightedComplexity += child.Metrics.AvgComplexity * float64(child.Metrics.SymbolCount)
		fragilitySum += child.Metrics.AvgFragility
		if child.Metrics.TotalBlastRadius > maxBlast {
			maxBlast = child.Metrics.TotalBlastRadius
		}
		for _, p := range child.Metrics.ImportPaths {
			importSet[p] = true
		}
	}

	node.Metrics.SymbolCount = symbolCount
	if symbolCount > 0 {
		node.Metrics.AvgComplexity = round1(weightedComplexity / float64(symbolCount))
	}
	node.Metrics.AvgFragility = round1(fragilitySum)
	node.Metrics.TotalBlastRadius = maxBlast
	imports := sortedKeys(importSet)
	if len(imports) > 20 {
		imports = imports[:20]
	}
	node.Metrics.ImportPaths = imports
}

// applyDomains labels nodes from the folder heuristics. Lookups try the
// workspace-rooted path first, then the bare relative path; children
// inherit the parent's domain unless they match their own entry.
func applyDomains(nodes []*SkeletonNode, root, inherited string) {
	for _, node := range nodes {
		domain := inherited
		if d, ok := lookupDomain(node.Path, root); ok {
			domain = d
		}
		node.DomainName = domain
		applyDomains(node.Children, root, domain)
	}
}

func lookupDomain(rel, root string) (string, bool) {
	if root != "" && root != "/" {
		if d, ok := domainHeuristics[root+"/"+rel]; ok {
			return d, true
		}
	}
	d, ok := domainHeuristics[rel]
	return d, ok
}

// buildSkeletonEdges groups symbol-level edges by (source file, target
// file), cross-file only, count as weight.
func buildSkeletonEdges(store *graph.Store, relByFile map[string]string) []SkeletonEdge {
	counts, err := store.CrossFileEdgeCounts()
	if err != nil {
		return nil
	}
	var edges []SkeletonEdge
	for _, fc := range counts {
		src, okSrc := relByFile[fc.SourceFile]
		tgt, okTgt := relByFile[fc.TargetFile]
		if !okSrc || !okTgt {
			continue
		}
		edges = append(edges, SkeletonEdge{Source: src, Target: tgt, Weight: fc.Count})
	}
	return edges
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// InvalidateSkeleton clears the cached skeleton; the indexer calls this
// implicitly by blanking the meta slot after each index.
func InvalidateSkeleton(store *graph.Store) error {
	if err := store.SetMeta(skeletonMetaKey, ""); err != nil {
		return fmt.Errorf("invalidate skeleton: %w", err)
	}
	return nil
}
