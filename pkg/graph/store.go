// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package graph is the persistent relational store for the code graph:
// symbols, edges, indexed files, meta, and the auxiliary cache tables.
// SQLite via modernc.org/sqlite (pure Go, database/sql).
package graph

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// schemaVersion is written to meta on open. Bumped when the base schema
// changes shape; column additions go through migrate instead.
const schemaVersion = "3"

// secondaryIndexes are the indexes dropped during bulk ingest and recreated
// afterwards. Order matters only for readability.
var secondaryIndexes = []struct {
	name string
	ddl  string
}{
	{"idx_symbols_name", "CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)"},
	{"idx_symbols_file", "CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path)"},
	{"idx_symbols_type", "CREATE INDEX IF NOT EXISTS idx_symbols_type ON symbols(type)"},
	{"idx_symbols_domain", "CREATE INDEX IF NOT EXISTS idx_symbols_domain ON symbols(domain)"},
	{"idx_edges_source", "CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id)"},
	{"idx_edges_target", "CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id)"},
	{"idx_edges_type", "CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(type)"},
	{"idx_files_path", "CREATE INDEX IF NOT EXISTS idx_files_path ON files(file_path)"},
}

// enrichmentColumns are added by migrate when missing, with NULL defaults.
var enrichmentColumns = []struct {
	name string
	ddl  string
}{
	{"domain", "ALTER TABLE symbols ADD COLUMN domain TEXT"},
	{"purpose", "ALTER TABLE symbols ADD COLUMN purpose TEXT"},
	{"impact_depth", "ALTER TABLE symbols ADD COLUMN impact_depth INTEGER"},
	{"search_tags", "ALTER TABLE symbols ADD COLUMN search_tags TEXT"},
	{"fragility", "ALTER TABLE symbols ADD COLUMN fragility REAL"},
	{"risk_score", "ALTER TABLE symbols ADD COLUMN risk_score REAL"},
	{"risk_reason", "ALTER TABLE symbols ADD COLUMN risk_reason TEXT"},
}

// Store owns every persisted row of the code graph. It is written from the
// worker's single thread; the only internal locking is SQLite's own.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	path   string
}

// Open opens (or creates) the database at path, applies the base schema and
// idempotent migrations, and enables WAL + foreign keys.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The store is single-writer by design; one connection keeps pragma
	// state consistent across the session.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger, path: path}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("apply pragma: %w", err)
		}
	}
	if err := s.createSchema(); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := s.SetMeta("schema_version", schemaVersion); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

func (s *Store) createSchema() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS symbols (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			file_path TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			start_column INTEGER NOT NULL DEFAULT 0,
			end_line INTEGER NOT NULL,
			end_column INTEGER NOT NULL DEFAULT 0,
			complexity INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
			target_id INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			reason TEXT,
			UNIQUE(source_id, target_id, type)
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			file_path TEXT PRIMARY KEY,
			content_hash TEXT NOT NULL,
			last_indexed_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS ai_cache (
			hash TEXT PRIMARY KEY,
			response TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS domain_metadata (
			domain TEXT PRIMARY KEY,
			description TEXT,
			symbol_count INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS domain_cache (
			hash TEXT PRIMARY KEY,
			domains TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	for _, idx := range secondaryIndexes {
		// The domain column is added by migrate, which creates this index
		// once the column exists.
		if idx.name == "idx_symbols_domain" {
			continue
		}
		if _, err := s.db.Exec(idx.ddl); err != nil {
			return err
		}
	}
	return nil
}

// migrate inspects the live column lists and adds anything missing. Safe to
// run on every open.
func (s *Store) migrate() error {
	cols, err := s.tableColumns("symbols")
	if err != nil {
		return err
	}
	for _, col := range enrichmentColumns {
		if cols[col.name] {
			continue
		}
		if _, err := s.db.Exec(col.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", col.name, err)
		}
		s.logger.Info("store.migrate.column_added", "table", "symbols", "column", col.name)
	}

	edgeCols, err := s.tableColumns("edges")
	if err != nil {
		return err
	}
	if !edgeCols["reason"] {
		if _, err := s.db.Exec("ALTER TABLE edges ADD COLUMN reason TEXT"); err != nil {
			return fmt.Errorf("add column reason: %w", err)
		}
		s.logger.Info("store.migrate.column_added", "table", "edges", "column", "reason")
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_symbols_domain ON symbols(domain)"); err != nil {
		return err
	}

	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS technical_debt (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol_id INTEGER REFERENCES symbols(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT,
		detected_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create technical_debt: %w", err)
	}
	return nil
}

func (s *Store) tableColumns(table string) (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// GetMeta returns the value for key, or "" when absent.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta upserts a meta key.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// WorkspaceRoot derives the workspace root as the longest common path
// prefix of all indexed file paths, split on "/". Returns "/" when the set
// is mixed with no common prefix and "" when the store is empty.
func (s *Store) WorkspaceRoot() (string, error) {
	rows, err := s.db.Query("SELECT DISTINCT file_path FROM symbols")
	if err != nil {
		return "", fmt.Errorf("list file paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return "", err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return CommonPathPrefix(paths), nil
}

// CommonPathPrefix computes the longest common prefix of paths in whole
// path segments.
func CommonPathPrefix(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	sort.Strings(paths)
	first := strings.Split(paths[0], "/")
	last := strings.Split(paths[len(paths)-1], "/")

	var common []string
	for i := 0; i < len(first) && i < len(last); i++ {
		if first[i] != last[i] {
			break
		}
		common = append(common, first[i])
	}
	if len(common) == 0 {
		return "/"
	}
	prefix := strings.Join(common, "/")
	if prefix == "" {
		return "/"
	}
	return prefix
}

// nowUTC formats the current time the way every timestamp column stores it.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
