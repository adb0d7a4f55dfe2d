// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"fmt"
)

// EdgeRecord is a persisted directed relationship between two symbols.
type EdgeRecord struct {
	ID       int64
	SourceID int64
	TargetID int64
	Type     string
	Reason   string
}

// InsertEdges inserts edges in one transaction. Rows with a zero endpoint
// are skipped (an unresolved side is not an error); duplicates on
// (source, target, type) are ignored.
func (s *Store) InsertEdges(edges []EdgeRecord) (int, error) {
	if len(edges) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin insert edges: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(
		"INSERT OR IGNORE INTO edges (source_id, target_id, type, reason) VALUES (?, ?, ?, NULLIF(?, ''))")
	if err != nil {
		return 0, fmt.Errorf("prepare insert edges: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range edges {
		if e.SourceID == 0 || e.TargetID == 0 {
			continue
		}
		res, err := stmt.Exec(e.SourceID, e.TargetID, e.Type, e.Reason)
		if err != nil {
			return inserted, fmt.Errorf("insert edge %d->%d: %w", e.SourceID, e.TargetID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit insert edges: %w", err)
	}
	return inserted, nil
}

// InsertEdgeBatch inserts (source, target) pairs of one edge type,
// additionally skipping self-edges. Deduplication rides on the table's
// unique constraint via INSERT OR IGNORE.
func (s *Store) InsertEdgeBatch(pairs [][2]int64, edgeType string) (int, error) {
	edges := make([]EdgeRecord, 0, len(pairs))
	for _, p := range pairs {
		if p[0] == p[1] {
			continue
		}
		edges = append(edges, EdgeRecord{SourceID: p[0], TargetID: p[1], Type: edgeType})
	}
	return s.InsertEdges(edges)
}

// DeleteEdgesTouching removes every edge incident to a symbol on either
// side. Equivalent to the cascade, but usable while foreign keys are off.
func (s *Store) DeleteEdgesTouching(id int64) error {
	_, err := s.db.Exec("DELETE FROM edges WHERE source_id = ? OR target_id = ?", id, id)
	if err != nil {
		return fmt.Errorf("delete edges touching %d: %w", id, err)
	}
	return nil
}

// OutgoingEdges lists edges whose source is id.
func (s *Store) OutgoingEdges(id int64) ([]EdgeRecord, error) {
	return s.queryEdges("SELECT id, source_id, target_id, type, COALESCE(reason, '') FROM edges WHERE source_id = ?", id)
}

// IncomingEdges lists edges whose target is id.
func (s *Store) IncomingEdges(id int64) ([]EdgeRecord, error) {
	return s.queryEdges("SELECT id, source_id, target_id, type, COALESCE(reason, '') FROM edges WHERE target_id = ?", id)
}

// AllEdges streams every edge.
func (s *Store) AllEdges() ([]EdgeRecord, error) {
	return s.queryEdges("SELECT id, source_id, target_id, type, COALESCE(reason, '') FROM edges ORDER BY id")
}

// CountEdges returns the total edge count.
func (s *Store) CountEdges() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&n); err != nil {
		return 0, fmt.Errorf("count edges: %w", err)
	}
	return n, nil
}

// OutDegree returns the number of outgoing edges of a symbol.
func (s *Store) OutDegree(id int64) (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM edges WHERE source_id = ?", id).Scan(&n); err != nil {
		return 0, fmt.Errorf("out degree of %d: %w", id, err)
	}
	return n, nil
}

// FileEdgeCount is a directed file-to-file edge aggregated from
// symbol-level edges.
type FileEdgeCount struct {
	SourceFile string
	TargetFile string
	Count      int
}

// FileImportCounts aggregates import edges at file granularity, cross-file
// only. Because import edges require a declared re-export at the import
// site, this usually undercounts; see CrossFileEdgeCounts for the
// skeleton's view.
func (s *Store) FileImportCounts() ([]FileEdgeCount, error) {
	return s.queryFileEdgeCounts(`
		SELECT src.file_path, tgt.file_path, COUNT(*)
		FROM edges e
		JOIN symbols src ON src.id = e.source_id
		JOIN symbols tgt ON tgt.id = e.target_id
		WHERE e.type = 'import' AND src.file_path <> tgt.file_path
		GROUP BY src.file_path, tgt.file_path
		ORDER BY src.file_path, tgt.file_path`)
}

// CrossFileEdgeCounts aggregates all symbol-level edges whose endpoints lie
// in different files, grouped by (source file, target file). The count is
// the skeleton edge weight.
func (s *Store) CrossFileEdgeCounts() ([]FileEdgeCount, error) {
	return s.queryFileEdgeCounts(`
		SELECT src.file_path, tgt.file_path, COUNT(*)
		FROM edges e
		JOIN symbols src ON src.id = e.source_id
		JOIN symbols tgt ON tgt.id = e.target_id
		WHERE src.file_path <> tgt.file_path
		GROUP BY src.file_path, tgt.file_path
		ORDER BY src.file_path, tgt.file_path`)
}

func (s *Store) queryFileEdgeCounts(query string) ([]FileEdgeCount, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("file edge counts: %w", err)
	}
	defer rows.Close()

	var out []FileEdgeCount
	for rows.Next() {
		var fc FileEdgeCount
		if err := rows.Scan(&fc.SourceFile, &fc.TargetFile, &fc.Count); err != nil {
			return nil, err
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}

// DomainEdgeCounts reports, per source domain, the number of edges leaving
// the domain versus the domain's total edges. Symbols without a domain
// label are excluded.
func (s *Store) DomainEdgeCounts() (map[string]struct{ Cross, Total int }, error) {
	rows, err := s.db.Query(`
		SELECT src.domain,
		       SUM(CASE WHEN src.domain <> COALESCE(tgt.domain, '') THEN 1 ELSE 0 END),
		       COUNT(*)
		FROM edges e
		JOIN symbols src ON src.id = e.source_id
		JOIN symbols tgt ON tgt.id = e.target_id
		WHERE src.domain IS NOT NULL
		GROUP BY src.domain`)
	if err != nil {
		return nil, fmt.Errorf("domain edge counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{ Cross, Total int })
	for rows.Next() {
		var domain string
		var cross, total int
		if err := rows.Scan(&domain, &cross, &total); err != nil {
			return nil, err
		}
		out[domain] = struct{ Cross, Total int }{cross, total}
	}
	return out, rows.Err()
}

func (s *Store) queryEdges(query string, args ...any) ([]EdgeRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var out []EdgeRecord
	for rows.Next() {
		var e EdgeRecord
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Type, &e.Reason); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
