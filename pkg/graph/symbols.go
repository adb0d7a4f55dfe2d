// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"database/sql"
	"fmt"

	"github.com/codescope/codescope/pkg/extract"
)

// SymbolRecord is a persisted symbol joined with its optional enrichment
// fields at read time.
type SymbolRecord struct {
	extract.Symbol
	Domain      sql.NullString
	Purpose     sql.NullString
	ImpactDepth sql.NullInt64
	SearchTags  sql.NullString
	Fragility   sql.NullFloat64
	RiskScore   sql.NullFloat64
	RiskReason  sql.NullString
}

const symbolColumns = `id, name, type, file_path, start_line, start_column, end_line, end_column,
	complexity, domain, purpose, impact_depth, search_tags, fragility, risk_score, risk_reason`

func scanSymbol(row interface{ Scan(...any) error }) (*SymbolRecord, error) {
	var rec SymbolRecord
	var symType string
	err := row.Scan(
		&rec.ID, &rec.Name, &symType, &rec.FilePath,
		&rec.StartLine, &rec.StartColumn, &rec.EndLine, &rec.EndColumn,
		&rec.Complexity,
		&rec.Domain, &rec.Purpose, &rec.ImpactDepth, &rec.SearchTags,
		&rec.Fragility, &rec.RiskScore, &rec.RiskReason,
	)
	if err != nil {
		return nil, err
	}
	rec.Type = extract.SymbolType(symType)
	return &rec, nil
}

// InsertSymbols inserts symbols in one transaction and returns the new row
// ids in input order.
func (s *Store) InsertSymbols(symbols []extract.Symbol) ([]int64, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin insert symbols: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO symbols
		(name, type, file_path, start_line, start_column, end_line, end_column, complexity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert symbols: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(symbols))
	for _, sym := range symbols {
		complexity := sym.Complexity
		if complexity < 1 {
			complexity = 1
		}
		res, err := stmt.Exec(
			sym.Name, string(sym.Type), sym.FilePath,
			sym.StartLine, sym.StartColumn, sym.EndLine, sym.EndColumn,
			complexity,
		)
		if err != nil {
			return nil, fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert symbols: %w", err)
	}
	return ids, nil
}

// DeleteSymbolsByFile removes every symbol of a file. Dependent edges on
// either side go with them via ON DELETE CASCADE; callers re-insert before
// the batch commits.
func (s *Store) DeleteSymbolsByFile(filePath string) error {
	_, err := s.db.Exec("DELETE FROM symbols WHERE file_path = ?", filePath)
	if err != nil {
		return fmt.Errorf("delete symbols for %s: %w", filePath, err)
	}
	return nil
}

// SymbolByID fetches one symbol, or nil when absent.
func (s *Store) SymbolByID(id int64) (*SymbolRecord, error) {
	rec, err := scanSymbol(s.db.QueryRow(
		"SELECT "+symbolColumns+" FROM symbols WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by id %d: %w", id, err)
	}
	return rec, nil
}

// SymbolsByName fetches symbols matching name, optionally as a substring.
func (s *Store) SymbolsByName(name string, fuzzy bool) ([]SymbolRecord, error) {
	query := "SELECT " + symbolColumns + " FROM symbols WHERE name = ? ORDER BY file_path, start_line"
	arg := any(name)
	if fuzzy {
		query = "SELECT " + symbolColumns + " FROM symbols WHERE name LIKE ? ORDER BY file_path, start_line"
		arg = "%" + name + "%"
	}
	return s.querySymbols(query, arg)
}

// SymbolsByFile fetches a file's symbols in line order.
func (s *Store) SymbolsByFile(filePath string) ([]SymbolRecord, error) {
	return s.querySymbols(
		"SELECT "+symbolColumns+" FROM symbols WHERE file_path = ? ORDER BY start_line, start_column", filePath)
}

// SymbolsByDomain fetches every symbol labeled with domain.
func (s *Store) SymbolsByDomain(domain string) ([]SymbolRecord, error) {
	return s.querySymbols(
		"SELECT "+symbolColumns+" FROM symbols WHERE domain = ? ORDER BY file_path, start_line", domain)
}

// SymbolAtLocation fetches a symbol by its (file, name, 1-based line) triple.
func (s *Store) SymbolAtLocation(filePath, name string, startLine int) (*SymbolRecord, error) {
	rec, err := scanSymbol(s.db.QueryRow(
		"SELECT "+symbolColumns+" FROM symbols WHERE file_path = ? AND name = ? AND start_line = ?",
		filePath, name, startLine))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol at %s:%s:%d: %w", filePath, name, startLine, err)
	}
	return rec, nil
}

// AllSymbols streams every symbol, ordered by file then line.
func (s *Store) AllSymbols() ([]SymbolRecord, error) {
	return s.querySymbols(
		"SELECT " + symbolColumns + " FROM symbols ORDER BY file_path, start_line, start_column")
}

// CountSymbols returns the total symbol count.
func (s *Store) CountSymbols() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&n); err != nil {
		return 0, fmt.Errorf("count symbols: %w", err)
	}
	return n, nil
}

// DistinctFilePaths lists every file path that owns at least one symbol.
func (s *Store) DistinctFilePaths() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT file_path FROM symbols ORDER BY file_path")
	if err != nil {
		return nil, fmt.Errorf("distinct file paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// UpdateEnrichment writes the nullable analysis fields for one symbol.
func (s *Store) UpdateEnrichment(id int64, e extract.Enrichment) error {
	_, err := s.db.Exec(`UPDATE symbols SET
		domain = NULLIF(?, ''), purpose = NULLIF(?, ''), impact_depth = ?,
		search_tags = NULLIF(?, ''), fragility = ?, risk_score = ?, risk_reason = NULLIF(?, '')
		WHERE id = ?`,
		e.Domain, e.Purpose, e.ImpactDepth, e.SearchTags, e.Fragility, e.RiskScore, e.RiskReason, id)
	if err != nil {
		return fmt.Errorf("update enrichment for %d: %w", id, err)
	}
	return nil
}

func (s *Store) querySymbols(query string, args ...any) ([]SymbolRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []SymbolRecord
	for rows.Next() {
		rec, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
