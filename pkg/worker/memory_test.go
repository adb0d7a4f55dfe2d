// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package worker

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/pkg/graph"
)

func TestWatchdogBreachEmitsSystemErrorAndExits(t *testing.T) {
	store, err := graph.Open(filepath.Join(t.TempDir(), "graph.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var out bytes.Buffer
	w, err := New(store, strings.NewReader(""), &out, nil)
	require.NoError(t, err)

	exitCode := -1
	wd := NewWatchdog(w, 1, func(code int) { exitCode = code }) // 1 byte: any heap breaches
	wd.check()

	assert.Equal(t, ExitCodeMemoryBreach, exitCode)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "error", resp["type"])
	assert.Equal(t, "system", resp["id"])
	assert.Contains(t, resp["error"], "memory ceiling")
}

func TestWatchdogUnderLimitDoesNothing(t *testing.T) {
	store, err := graph.Open(filepath.Join(t.TempDir(), "graph.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var out bytes.Buffer
	w, err := New(store, strings.NewReader(""), &out, nil)
	require.NoError(t, err)

	called := false
	wd := NewWatchdog(w, 1<<40, func(int) { called = true }) // 1 TB: never breaches
	wd.check()

	assert.False(t, called)
	assert.Empty(t, out.String())
}

func TestDefaultMemoryLimit(t *testing.T) {
	wd := NewWatchdog(nil, 0, nil)
	assert.Equal(t, uint64(DefaultMemoryLimitBytes), wd.limitBytes)
}
