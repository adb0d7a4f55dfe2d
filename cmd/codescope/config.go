// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/codescope/codescope/internal/errors"
)

const (
	defaultConfigDir  = ".codescope"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Config represents the .codescope/project.yaml configuration file.
type Config struct {
	Version   string         `yaml:"version"`
	ProjectID string         `yaml:"project_id"`
	Indexing  IndexingConfig `yaml:"indexing"`
	Worker    WorkerConfig   `yaml:"worker,omitempty"`
}

// IndexingConfig contains indexing settings.
type IndexingConfig struct {
	MaxFileSize int64    `yaml:"max_file_size"` // bytes; larger files are skipped
	Exclude     []string `yaml:"exclude"`       // glob patterns, added to the built-in skip set
}

// WorkerConfig contains worker-loop settings.
type WorkerConfig struct {
	MemoryLimitMB int `yaml:"memory_limit_mb,omitempty"` // heap ceiling; 0 = default 512
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig(projectID string) *Config {
	return &Config{
		Version:   configVersion,
		ProjectID: projectID,
		Indexing: IndexingConfig{
			MaxFileSize: 1048576, // 1MB
			Exclude: []string{
				"*.min.js",
				"*.d.ts",
				"vendor/**",
				"coverage/**",
			},
		},
	}
}

// ConfigDir returns the per-repo configuration directory.
func ConfigDir(repoPath string) string {
	return filepath.Join(repoPath, defaultConfigDir)
}

// configFilePath resolves the config path: the explicit flag when set,
// otherwise ./.codescope/project.yaml.
func configFilePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(defaultConfigDir, defaultConfigFile)
}

// LoadConfig reads and validates the project configuration.
func LoadConfig(explicit string) (*Config, error) {
	path := configFilePath(explicit)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewConfigError(
				"Configuration not found",
				fmt.Sprintf("No config file at %s", path),
				"Run 'codescope init' to create one",
				err,
			)
		}
		return nil, errors.NewConfigError(
			"Cannot read configuration",
			fmt.Sprintf("Failed to read %s", path),
			"Check file permissions",
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration",
			fmt.Sprintf("Failed to parse %s", path),
			"Fix the YAML syntax or re-run 'codescope init'",
			err,
		)
	}
	if cfg.ProjectID == "" {
		return nil, errors.NewConfigError(
			"Missing project_id",
			fmt.Sprintf("%s has no project_id", path),
			"Add a project_id or re-run 'codescope init'",
			nil,
		)
	}
	if cfg.Indexing.MaxFileSize <= 0 {
		cfg.Indexing.MaxFileSize = 1048576
	}
	return &cfg, nil
}

// SaveConfig writes cfg to its default location under repoPath.
func SaveConfig(repoPath string, cfg *Config) error {
	dir := ConfigDir(repoPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(dir, defaultConfigFile)
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DataDir returns the database directory for a project, honoring
// CODESCOPE_DATA_DIR.
func DataDir(projectID string) (string, error) {
	if dir := os.Getenv("CODESCOPE_DATA_DIR"); dir != "" {
		return filepath.Join(dir, projectID), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".codescope", "data", projectID), nil
}

// DatabasePath returns the SQLite file path for a project, creating the
// directory.
func DatabasePath(projectID string) (string, error) {
	dir, err := DataDir(projectID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(dir, "graph.db"), nil
}
