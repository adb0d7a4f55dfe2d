// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the CodeScope CLI for indexing source trees into
// a persistent code graph and querying it.
//
// Usage:
//
//	codescope init                  Create .codescope/project.yaml
//	codescope index                 Index the current workspace
//	codescope status [--json]       Show graph statistics
//	codescope query <name>          Find symbols by name
//	codescope skeleton [--json]     Print the architecture skeleton
//	codescope trace <nodeKey|id>    Trace callers/callees of a function
//	codescope impact <nodeKey|id>   Blast-radius report for a symbol
//	codescope worker                Start the message-loop worker on stdio
//	codescope reset --yes           Delete the project's graph data
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/codescope/codescope/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the global CLI flags that apply to all commands.
type GlobalFlags struct {
	JSON    bool // Output in JSON format (for applicable commands)
	NoColor bool // Disable color output
	Verbose int  // Verbosity level: 0=normal, 1=-v (info), 2=-vv (debug)
	Quiet   bool // Suppress non-essential output
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .codescope/project.yaml (default: ./.codescope/project.yaml)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output")
	)

	// Stop parsing at the first non-flag argument so subcommand flags like
	// "reset --yes" reach their handlers.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `CodeScope - persistent code graph indexer

CodeScope parses TypeScript, Python, and C sources with Tree-sitter,
stores symbols and their call/import relationships in SQLite, and answers
navigation, blast-radius, and architecture queries over the graph.

Usage:
  codescope <command> [options]

Commands:
  init       Create .codescope/project.yaml configuration
  index      Index the current workspace
  status     Show graph statistics
  query      Find symbols by name or file
  skeleton   Print the architecture skeleton (folder/file rollup)
  trace      Trace callers and callees of a function
  impact     Blast-radius report for a symbol
  worker     Start the request/response worker on stdin/stdout
  reset      Delete the project's graph data (destructive!)

Global Options:
  --json            Output in JSON format (for applicable commands)
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output
  -c, --config      Path to .codescope/project.yaml
  -V, --version     Show version and exit

Examples:
  codescope init
  codescope index
  codescope index --full --metrics-addr :9090
  codescope query parseConfig
  codescope trace "src/db/client.ts:connect:42"
  codescope status --json

Data Storage:
  Graph data is stored in ~/.codescope/data/<project_id>/graph.db
  (override with CODESCOPE_DATA_DIR).

For detailed command help: codescope <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("codescope version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}
	// JSON mode auto-enables quiet to keep progress bars out of the stream.
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "index":
		runIndex(cmdArgs, *configPath, globals)
	case "status":
		runStatus(cmdArgs, *configPath, globals)
	case "query":
		runQuery(cmdArgs, *configPath, globals)
	case "skeleton":
		runSkeleton(cmdArgs, *configPath, globals)
	case "trace":
		runTrace(cmdArgs, *configPath, globals)
	case "impact":
		runImpact(cmdArgs, *configPath, globals)
	case "worker":
		os.Exit(runWorker(cmdArgs, *configPath, globals))
	case "reset":
		runReset(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
