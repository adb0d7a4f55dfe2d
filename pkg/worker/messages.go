// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worker runs the indexing engine behind a strict request/response
// message loop: newline-delimited JSON, one request handled at a time.
package worker

import (
	"github.com/codescope/codescope/pkg/analytics"
	"github.com/codescope/codescope/pkg/graph"
)

// Request is the inbound message envelope. Type selects the operation; ID
// is echoed on the response. Unused fields stay empty.
type Request struct {
	Type     string      `json:"type"`
	ID       string      `json:"id"`
	FilePath string      `json:"filePath,omitempty"`
	Content  string      `json:"content,omitempty"`
	Language string      `json:"language,omitempty"`
	Files    []BatchFile `json:"files,omitempty"`
	Query    string      `json:"query,omitempty"`
	SymbolID int64       `json:"symbolId,omitempty"`
	NodeID   string      `json:"nodeId,omitempty"`
	Refine   bool        `json:"refine,omitempty"`
}

// BatchFile is one file of a parse-batch request.
type BatchFile struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

// response header shared by every outbound message.
type header struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ErrorResponse reports a failed request. System-originated errors use the
// id "system".
type ErrorResponse struct {
	header
	Error string `json:"error"`
	Stack string `json:"stack,omitempty"`
}

// ParseCompleteResponse answers a parse request.
type ParseCompleteResponse struct {
	header
	SymbolCount int `json:"symbolCount"`
	EdgeCount   int `json:"edgeCount"`
}

// ParseBatchCompleteResponse answers a parse-batch request.
// FilesProcessed counts attempts; failed files are skipped, not fatal.
type ParseBatchCompleteResponse struct {
	header
	TotalSymbols   int `json:"totalSymbols"`
	TotalEdges     int `json:"totalEdges"`
	FilesProcessed int `json:"filesProcessed"`
}

// FileHashResponse answers a check-file-hash request.
type FileHashResponse struct {
	header
	NeedsReindex bool   `json:"needsReindex"`
	StoredHash   string `json:"storedHash"`
	CurrentHash  string `json:"currentHash"`
}

// QueryResultResponse answers query-symbols and query-file.
type QueryResultResponse struct {
	header
	Symbols []SymbolPayload `json:"symbols"`
}

// SymbolPayload is the wire form of a symbol. NodeKey lines are 1-based.
type SymbolPayload struct {
	ID          int64  `json:"id"`
	NodeKey     string `json:"nodeKey"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	FilePath    string `json:"filePath"`
	StartLine   int    `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndLine     int    `json:"endLine"`
	EndColumn   int    `json:"endColumn"`
	Complexity  int    `json:"complexity"`
	Domain      string `json:"domain,omitempty"`
}

// ContextResultResponse answers get-context.
type ContextResultResponse struct {
	header
	Symbol            *SymbolPayload              `json:"symbol"`
	Neighbors         []analytics.NeighborSymbol  `json:"neighbors"`
	IncomingEdgeCount int                         `json:"incomingEdgeCount"`
	OutgoingEdgeCount int                         `json:"outgoingEdgeCount"`
}

// GraphExportResponse answers export-graph.
type GraphExportResponse struct {
	header
	Graph *graph.GraphExport `json:"graph"`
}

// StatsResponse answers stats.
type StatsResponse struct {
	header
	SymbolCount   int    `json:"symbolCount"`
	EdgeCount     int    `json:"edgeCount"`
	FileCount     int    `json:"fileCount"`
	LastIndexTime string `json:"lastIndexTime"`
}

// ClearCompleteResponse answers clear.
type ClearCompleteResponse struct {
	header
}

// SkeletonResponse answers get-architecture-skeleton.
type SkeletonResponse struct {
	header
	Skeleton *analytics.Skeleton `json:"skeleton"`
}

// TraceResponse answers trace-function.
type TraceResponse struct {
	header
	Trace *analytics.FunctionTrace `json:"trace"`
}

// ImpactResponse answers analyze-impact.
type ImpactResponse struct {
	header
	Affected      []analytics.AffectedSymbol `json:"affected"`
	TotalAffected int                        `json:"totalAffected"`
	RiskLevel     string                     `json:"riskLevel"`
}

func symbolPayload(rec *graph.SymbolRecord) SymbolPayload {
	return SymbolPayload{
		ID:          rec.ID,
		NodeKey:     NodeKey(rec.FilePath, rec.Name, rec.StartLine),
		Name:        rec.Name,
		Type:        string(rec.Type),
		FilePath:    rec.FilePath,
		StartLine:   rec.StartLine,
		StartColumn: rec.StartColumn,
		EndLine:     rec.EndLine,
		EndColumn:   rec.EndColumn,
		Complexity:  rec.Complexity,
		Domain:      rec.Domain.String,
	}
}
