// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/ui"
	"github.com/codescope/codescope/pkg/graph"
)

// runQuery finds symbols by name (default) or lists a file's symbols.
func runQuery(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	filePath := fs.String("file", "", "List symbols of this file instead of searching by name")
	exact := fs.Bool("exact", false, "Match the name exactly instead of as a substring")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codescope query [options] [<name>]

Examples:
  codescope query parseConfig
  codescope query --exact hash
  codescope query --file src/db/client.ts

`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	name := ""
	if fs.NArg() > 0 {
		name = fs.Arg(0)
	}
	if name == "" && *filePath == "" {
		fs.Usage()
		os.Exit(1)
	}

	logger := newLogger(globals)
	_, store := openStore(configPath, globals, logger)
	defer func() { _ = store.Close() }()

	var records []graph.SymbolRecord
	var err error
	if *filePath != "" {
		records, err = store.SymbolsByFile(*filePath)
	} else {
		records, err = store.SymbolsByName(name, !*exact)
	}
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Query failed", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]any{"symbols": records})
		return
	}

	if len(records) == 0 {
		_, _ = ui.Yellow.Println("No symbols found.")
		return
	}
	for _, rec := range records {
		fmt.Printf("%s  %s  %s\n",
			ui.Label(fmt.Sprintf("%-10s", rec.Type)),
			rec.Name,
			ui.DimText(fmt.Sprintf("%s:%d (complexity %d)", rec.FilePath, rec.StartLine, rec.Complexity)),
		)
	}
}
