// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig("demo")
	require.NoError(t, SaveConfig(dir, cfg))

	loaded, err := LoadConfig(filepath.Join(dir, defaultConfigDir, defaultConfigFile))
	require.NoError(t, err)
	assert.Equal(t, "demo", loaded.ProjectID)
	assert.Equal(t, configVersion, loaded.Version)
	assert.Equal(t, int64(1048576), loaded.Indexing.MaxFileSize)
	assert.NotEmpty(t, loaded.Indexing.Exclude)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfigRejectsMissingProjectID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\n"), 0600))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_id")
}

func TestDataDirHonorsEnvOverride(t *testing.T) {
	t.Setenv("CODESCOPE_DATA_DIR", filepath.Join(t.TempDir(), "custom"))
	dir, err := DataDir("proj")
	require.NoError(t, err)
	assert.Contains(t, dir, "custom")
	assert.Equal(t, "proj", filepath.Base(dir))
}
