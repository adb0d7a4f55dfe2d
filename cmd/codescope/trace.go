// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/ui"
	"github.com/codescope/codescope/pkg/analytics"
	"github.com/codescope/codescope/pkg/graph"
	"github.com/codescope/codescope/pkg/worker"
)

// resolveSymbolArg accepts a numeric symbol id or a node key
// "<filePath>:<name>:<line>" with a 1-based line.
func resolveSymbolArg(store *graph.Store, arg string) (int64, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return id, nil
	}
	filePath, name, line, err := worker.ParseNodeKey(arg)
	if err != nil {
		return 0, err
	}
	rec, err := store.SymbolAtLocation(filePath, name, line)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, fmt.Errorf("symbol not found: %s", arg)
	}
	return rec.ID, nil
}

// runTrace prints the bounded bidirectional trace around one function.
func runTrace(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codescope trace <nodeKey|symbolId>

The node key form is "<filePath>:<name>:<line>" with a 1-based line, as
printed by 'codescope query'.

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	logger := newLogger(globals)
	_, store := openStore(configPath, globals, logger)
	defer func() { _ = store.Close() }()

	id, err := resolveSymbolArg(store, fs.Arg(0))
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot resolve symbol", err.Error(), "", err), globals.JSON)
	}

	trace, err := analytics.TraceFunction(store, id)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Trace failed", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = json.NewEncoder(os.Stdout).Encode(trace)
		return
	}

	ui.Header("Function Trace")
	fmt.Printf("%s %s\n\n", ui.Label("Origin:"), trace.Origin)
	for _, node := range trace.Nodes {
		marker := " "
		if node.IsSink {
			marker = ui.Yellow.Sprint("◆")
		}
		fmt.Printf("%s depth=%-2d %-40s %s\n", marker, node.Depth, node.Label,
			ui.DimText(fmt.Sprintf("%s:%d cx=%d blast=%d", node.FilePath, node.Line, node.Complexity, node.BlastRadius)))
	}
	if len(trace.Edges) > 0 {
		fmt.Println()
		ui.SubHeader("Edges:")
		for _, e := range trace.Edges {
			fmt.Printf("  %s %s %s %s\n", e.Source, ui.DimText("→"), e.Target, ui.DimText("("+e.Type+")"))
		}
	}
}

// runImpact prints the blast-radius report for one symbol.
func runImpact(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("impact", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codescope impact <nodeKey|symbolId>\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	logger := newLogger(globals)
	_, store := openStore(configPath, globals, logger)
	defer func() { _ = store.Close() }()

	id, err := resolveSymbolArg(store, fs.Arg(0))
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot resolve symbol", err.Error(), "", err), globals.JSON)
	}

	res, err := analytics.AnalyzeImpact(store, id)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Impact analysis failed", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = json.NewEncoder(os.Stdout).Encode(res)
		return
	}

	ui.Header("Impact Analysis")
	fmt.Printf("%s %s\n", ui.Label("Affected Symbols:"), ui.CountText(res.TotalAffected))
	riskColor := ui.Green
	switch res.RiskLevel {
	case "medium":
		riskColor = ui.Yellow
	case "high":
		riskColor = ui.Red
	}
	fmt.Printf("%s ", ui.Label("Risk Level:"))
	_, _ = riskColor.Println(res.RiskLevel)
	fmt.Println()
	for _, a := range res.Affected {
		fmt.Printf("  depth=%-2d %-40s %s\n", a.Depth, a.Name, ui.DimText(a.FilePath))
	}
}
