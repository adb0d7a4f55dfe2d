// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract walks Tree-sitter syntax trees and emits the symbols,
// imports, and calls that feed the graph store and the edge resolver.
package extract

import "fmt"

// SymbolType classifies a declared symbol.
type SymbolType string

const (
	SymFunction  SymbolType = "function"
	SymMethod    SymbolType = "method"
	SymClass     SymbolType = "class"
	SymInterface SymbolType = "interface"
	SymType      SymbolType = "type"
	SymEnum      SymbolType = "enum"
	SymVariable  SymbolType = "variable"
	SymStruct    SymbolType = "struct"
	SymUnion     SymbolType = "union"
	SymDecorator SymbolType = "decorator"
)

// Symbol is a declared code entity. The store assigns ID on insert; before
// that the symbol is addressed by its key (see Key).
//
// Lines are 1-based, columns 0-based.
type Symbol struct {
	ID          int64
	Name        string
	Type        SymbolType
	FilePath    string
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	Complexity  int
}

// Key returns the symbol-key used to join symbols across the extraction and
// resolution passes: "<file_path>:<name>:<line0>". The line component is the
// 0-based start line; analytics node-keys use 1-based lines instead.
func (s *Symbol) Key() string {
	return SymbolKey(s.FilePath, s.Name, s.StartLine-1)
}

// SymbolKey builds an extractor symbol-key from its parts. line0 is 0-based.
func SymbolKey(filePath, name string, line0 int) string {
	return fmt.Sprintf("%s:%s:%d", filePath, name, line0)
}

// Enrichment carries the optional analysis fields layered onto a symbol,
// joined by symbol id at read time. All fields are nullable in the store.
type Enrichment struct {
	SymbolID    int64
	Domain      string
	Purpose     string
	ImpactDepth int
	SearchTags  string
	Fragility   float64
	RiskScore   float64
	RiskReason  string
}

// ImportInfo records one imported binding of a file. Transient: it exists
// only for the duration of a batch and is never persisted.
type ImportInfo struct {
	ImportedName string // original exported name, "*" for namespace, "default"
	LocalName    string // binding name in the importing file
	SourceModule string // module specifier as written in the source
	FilePath     string
	Line         int // 1-based
}

// CallInfo records one call expression attributed to its nearest enclosing
// declared symbol. Transient, like ImportInfo.
type CallInfo struct {
	CallerSymbolKey      string
	CalleeName           string
	FilePath             string
	Line                 int // 1-based
	ScopeContext         string
	IsImported           bool
	ImportSourceModule   string
	ImportedOriginalName string
}

// ScopeType classifies a scope-stack entry.
type ScopeType string

const (
	ScopeModule   ScopeType = "module"
	ScopeClass    ScopeType = "class"
	ScopeFunction ScopeType = "function"
	ScopeBlock    ScopeType = "block"
)

// ScopeEntry is one frame of the lexical scope stack maintained during
// traversal. Never persisted.
type ScopeEntry struct {
	Name string
	Type ScopeType
	Line int
}

// FileResult is the output of extracting a single file.
// LocalKeyToIndex maps each symbol-key to the 0-based position of the symbol
// in Symbols, letting the store correlate inserted row ids back to keys.
type FileResult struct {
	Symbols         []Symbol
	Imports         []ImportInfo
	Calls           []CallInfo
	LocalKeyToIndex map[string]int
}
