// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"database/sql"
	"fmt"
)

// FileRecord tracks one indexed source file. Presence of a row means the
// stored symbols for the path reflect content_hash.
type FileRecord struct {
	FilePath      string
	ContentHash   string
	LastIndexedAt string
}

// GetFileHash returns the stored content hash for a path, or "" when the
// file has never been indexed.
func (s *Store) GetFileHash(filePath string) (string, error) {
	var hash string
	err := s.db.QueryRow("SELECT content_hash FROM files WHERE file_path = ?", filePath).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get file hash %s: %w", filePath, err)
	}
	return hash, nil
}

// SetFileHash upserts the content hash for a path, stamping the index time.
func (s *Store) SetFileHash(filePath, contentHash string) error {
	_, err := s.db.Exec(`INSERT INTO files(file_path, content_hash, last_indexed_at)
		VALUES(?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			last_indexed_at = excluded.last_indexed_at`,
		filePath, contentHash, nowUTC())
	if err != nil {
		return fmt.Errorf("set file hash %s: %w", filePath, err)
	}
	return nil
}

// DeleteFile removes a file's tracking row. Its symbols are removed
// separately via DeleteSymbolsByFile.
func (s *Store) DeleteFile(filePath string) error {
	_, err := s.db.Exec("DELETE FROM files WHERE file_path = ?", filePath)
	if err != nil {
		return fmt.Errorf("delete file %s: %w", filePath, err)
	}
	return nil
}

// ListFiles returns every tracked file.
func (s *Store) ListFiles() ([]FileRecord, error) {
	rows, err := s.db.Query("SELECT file_path, content_hash, last_indexed_at FROM files ORDER BY file_path")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.FilePath, &f.ContentHash, &f.LastIndexedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountFiles returns the number of tracked files.
func (s *Store) CountFiles() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

// Clear wipes all graph data: symbols (and cascaded edges), files, and the
// cached skeleton. Meta bookkeeping other than the skeleton survives.
func (s *Store) Clear() error {
	for _, stmt := range []string{
		"DELETE FROM edges",
		"DELETE FROM symbols",
		"DELETE FROM files",
		"DELETE FROM technical_debt",
		"DELETE FROM meta WHERE key = 'architecture_skeleton'",
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return nil
}
