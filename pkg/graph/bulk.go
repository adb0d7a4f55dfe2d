// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"fmt"
)

// PreIndexCleanup switches the store into bulk-ingest mode: secondary
// indexes are dropped and durability is traded for write throughput.
// Callers MUST pair it with PostIndexOptimization, also on failure —
// queries issued in between observe a partially populated graph.
func (s *Store) PreIndexCleanup() error {
	for _, idx := range secondaryIndexes {
		if _, err := s.db.Exec("DROP INDEX IF EXISTS " + idx.name); err != nil {
			return fmt.Errorf("drop index %s: %w", idx.name, err)
		}
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys=OFF",
		"PRAGMA synchronous=OFF",
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA cache_size=-65536", // 64 MB page cache
		"PRAGMA temp_store=MEMORY",
	} {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("bulk pragma: %w", err)
		}
	}
	s.logger.Info("store.bulk.enter")
	return nil
}

// PostIndexOptimization restores normal operation: durability pragmas come
// back, every secondary index is recreated, and the planner statistics are
// refreshed.
func (s *Store) PostIndexOptimization() error {
	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("restore pragma: %w", err)
		}
	}
	for _, idx := range secondaryIndexes {
		if _, err := s.db.Exec(idx.ddl); err != nil {
			return fmt.Errorf("recreate index %s: %w", idx.name, err)
		}
	}
	if _, err := s.db.Exec("ANALYZE"); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	s.logger.Info("store.bulk.exit")
	return nil
}
