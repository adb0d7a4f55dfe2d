// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// CacheKey hashes a canonical JSON rendering of the input into the key used
// by the ai_cache and domain_cache tables: lowercase hex SHA-256 with map
// keys sorted so equal inputs always collide.
func CacheKey(input any) (string, error) {
	canonical, err := canonicalJSON(input)
	if err != nil {
		return "", fmt.Errorf("canonicalize cache input: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalJSON(input any) ([]byte, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return marshalCanonical(decoded)
}

// marshalCanonical renders maps with sorted keys; encoding/json already
// does this for map[string]any, so one re-marshal after decode suffices.
func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]json.RawMessage, 0, len(keys))
		for _, k := range keys {
			kb, _ := json.Marshal(k)
			vb, err := marshalCanonical(val[k])
			if err != nil {
				return nil, err
			}
			parts = append(parts, json.RawMessage(append(append(kb, ':'), vb...)))
		}
		out := []byte{'{'}
		for i, p := range parts {
			if i > 0 {
				out = append(out, ',')
			}
			out = append(out, p...)
		}
		return append(out, '}'), nil
	case []any:
		out := []byte{'['}
		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}
			ib, err := marshalCanonical(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ib...)
		}
		return append(out, ']'), nil
	default:
		return json.Marshal(v)
	}
}

// AICacheGet returns the cached response for hash, or "" on miss.
func (s *Store) AICacheGet(hash string) (string, error) {
	var response string
	err := s.db.QueryRow("SELECT response FROM ai_cache WHERE hash = ?", hash).Scan(&response)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ai cache get: %w", err)
	}
	return response, nil
}

// AICacheSet stores a response under hash, replacing any prior entry.
func (s *Store) AICacheSet(hash, response string) error {
	_, err := s.db.Exec(`INSERT INTO ai_cache(hash, response, created_at) VALUES(?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET response = excluded.response, created_at = excluded.created_at`,
		hash, response, nowUTC())
	if err != nil {
		return fmt.Errorf("ai cache set: %w", err)
	}
	return nil
}

// DomainCacheGet returns the cached domain labeling for hash, or "" on miss.
func (s *Store) DomainCacheGet(hash string) (string, error) {
	var domains string
	err := s.db.QueryRow("SELECT domains FROM domain_cache WHERE hash = ?", hash).Scan(&domains)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("domain cache get: %w", err)
	}
	return domains, nil
}

// DomainCacheSet stores a domain labeling under hash.
func (s *Store) DomainCacheSet(hash, domains string) error {
	_, err := s.db.Exec(`INSERT INTO domain_cache(hash, domains, created_at) VALUES(?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET domains = excluded.domains, created_at = excluded.created_at`,
		hash, domains, nowUTC())
	if err != nil {
		return fmt.Errorf("domain cache set: %w", err)
	}
	return nil
}

// UpsertDomainMetadata records a domain's description and symbol count.
func (s *Store) UpsertDomainMetadata(domain, description string, symbolCount int) error {
	_, err := s.db.Exec(`INSERT INTO domain_metadata(domain, description, symbol_count, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			description = excluded.description,
			symbol_count = excluded.symbol_count,
			updated_at = excluded.updated_at`,
		domain, description, symbolCount, nowUTC())
	if err != nil {
		return fmt.Errorf("upsert domain metadata %s: %w", domain, err)
	}
	return nil
}

// DebtRecord is one technical-debt finding attached to a symbol.
type DebtRecord struct {
	ID          int64
	SymbolID    int64
	Category    string
	Severity    string
	Description string
	DetectedAt  string
}

// AddDebt records a technical-debt finding.
func (s *Store) AddDebt(symbolID int64, category, severity, description string) error {
	_, err := s.db.Exec(
		"INSERT INTO technical_debt(symbol_id, category, severity, description, detected_at) VALUES(?, ?, ?, ?, ?)",
		symbolID, category, severity, description, nowUTC())
	if err != nil {
		return fmt.Errorf("add debt for %d: %w", symbolID, err)
	}
	return nil
}

// DebtBySymbol lists a symbol's technical-debt findings.
func (s *Store) DebtBySymbol(symbolID int64) ([]DebtRecord, error) {
	rows, err := s.db.Query(
		"SELECT id, symbol_id, category, severity, COALESCE(description, ''), detected_at FROM technical_debt WHERE symbol_id = ? ORDER BY id",
		symbolID)
	if err != nil {
		return nil, fmt.Errorf("debt by symbol %d: %w", symbolID, err)
	}
	defer rows.Close()

	var out []DebtRecord
	for rows.Next() {
		var d DebtRecord
		if err := rows.Scan(&d.ID, &d.SymbolID, &d.Category, &d.Severity, &d.Description, &d.DetectedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
