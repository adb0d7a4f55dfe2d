// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resolve turns the transient import/call records of a batch into
// persisted call and import edges.
package resolve

import "strings"

// keyEntry is one symbol-key with its parsed parts and persisted row id.
type keyEntry struct {
	key  string
	path string
	name string
	id   int64
}

// KeyMap is the global symbol-key → id map built up across a batch.
// Iteration order is insertion order, which makes resolution tie-breaks
// deterministic (first match wins).
//
// Keys follow the extractor convention: "<file_path>:<name>:<line0>" with
// a 0-based line.
type KeyMap struct {
	entries []keyEntry
	byKey   map[string]int
}

// NewKeyMap creates an empty key map.
func NewKeyMap() *KeyMap {
	return &KeyMap{byKey: make(map[string]int)}
}

// Put records a key with its persisted id. Re-putting an existing key
// updates the id in place without disturbing insertion order.
func (m *KeyMap) Put(key string, id int64) {
	path, name := splitKey(key)
	if idx, ok := m.byKey[key]; ok {
		m.entries[idx].id = id
		return
	}
	m.byKey[key] = len(m.entries)
	m.entries = append(m.entries, keyEntry{key: key, path: path, name: name, id: id})
}

// Get returns the id for key, or 0 when absent.
func (m *KeyMap) Get(key string) int64 {
	if idx, ok := m.byKey[key]; ok {
		return m.entries[idx].id
	}
	return 0
}

// Len returns the number of live keys.
func (m *KeyMap) Len() int {
	n := 0
	for _, e := range m.entries {
		if e.id != 0 {
			n++
		}
	}
	return n
}

// RemoveFile drops every key belonging to path. Called before a file's
// symbols are replaced so stale ids cannot win a resolution.
func (m *KeyMap) RemoveFile(path string) {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.path == path {
			delete(m.byKey, e.key)
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	for i := range m.entries {
		m.byKey[m.entries[i].key] = i
	}
}

// splitKey parses "<path>:<name>:<line0>" from the right: the path may
// contain colons, the trailing two components may not.
func splitKey(key string) (path, name string) {
	lineSep := strings.LastIndex(key, ":")
	if lineSep < 0 {
		return key, ""
	}
	nameSep := strings.LastIndex(key[:lineSep], ":")
	if nameSep < 0 {
		return key[:lineSep], ""
	}
	return key[:nameSep], key[nameSep+1 : lineSep]
}
