// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/ui"
	"github.com/codescope/codescope/pkg/analytics"
)

// runSkeleton prints the architecture skeleton: the folder/file rollup
// with aggregated metrics and domain labels.
func runSkeleton(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("skeleton", flag.ExitOnError)
	refine := fs.Bool("refine", false, "Recompute instead of serving the cached skeleton")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger := newLogger(globals)
	_, store := openStore(configPath, globals, logger)
	defer func() { _ = store.Close() }()

	sk, err := analytics.BuildSkeleton(store, *refine)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Skeleton build failed", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = json.NewEncoder(os.Stdout).Encode(sk)
		return
	}

	ui.Header("Architecture Skeleton")
	fmt.Printf("%s %s\n", ui.Label("Root:"), sk.Root)
	for _, node := range sk.Nodes {
		printSkeletonNode(node, 0)
	}
	if len(sk.Edges) > 0 {
		fmt.Println()
		ui.SubHeader("File Dependencies:")
		for _, e := range sk.Edges {
			fmt.Printf("  %s %s %s %s\n", e.Source, ui.DimText("→"), e.Target, ui.DimText(fmt.Sprintf("(%d)", e.Weight)))
		}
	}
}

func printSkeletonNode(node *analytics.SkeletonNode, depth int) {
	indent := strings.Repeat("  ", depth)
	label := node.Name
	if node.Kind == "folder" {
		label += "/"
	}
	line := fmt.Sprintf("%s%s  %s", indent, label,
		ui.DimText(fmt.Sprintf("symbols=%d avgCx=%.1f fragility=%.1f blast=%d",
			node.Metrics.SymbolCount, node.Metrics.AvgComplexity,
			node.Metrics.AvgFragility, node.Metrics.TotalBlastRadius)))
	if node.DomainName != "" {
		line += "  " + ui.Label("["+node.DomainName+"]")
	}
	fmt.Println(line)
	for _, child := range node.Children {
		printSkeletonNode(child, depth+1)
	}
}
