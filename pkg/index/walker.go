// Copyright 2025 CodeScope Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codescope/codescope/pkg/lang"
)

// NowISO formats the current time as RFC 3339 UTC, the convention for every
// persisted timestamp.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// skipDirs are directory names never descended into. The architecture
// skeleton applies the same set when rolling up files.
var skipDirs = map[string]bool{
	".next":        true,
	"node_modules": true,
	".git":         true,
	"types":        true,
	"dist":         true,
	"build":        true,
	".venv":        true,
	"__pycache__":  true,
}

// SkipDir reports whether a directory name is excluded from indexing.
func SkipDir(name string) bool {
	return skipDirs[name]
}

// DiscoverOptions controls workspace discovery.
type DiscoverOptions struct {
	// ExcludeGlobs are extra patterns matched against the relative path and
	// the base name.
	ExcludeGlobs []string
	// MaxFileSizeBytes skips larger files; 0 means no limit.
	MaxFileSizeBytes int64
}

// DiscoverFiles walks root and returns the indexable source files with
// their content loaded, paths relative to root with forward slashes.
// Unreadable files are skipped with a warning.
func DiscoverFiles(root string, opts DiscoverOptions, logger *slog.Logger) ([]FileInput, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var files []FileInput
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("walk.entry_error", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		language := lang.DetectLanguage(rel)
		if language == "" {
			return nil
		}
		if matchesAny(opts.ExcludeGlobs, rel) {
			return nil
		}
		if opts.MaxFileSizeBytes > 0 {
			if info, ierr := d.Info(); ierr == nil && info.Size() > opts.MaxFileSizeBytes {
				logger.Debug("walk.skip_too_large", "path", rel, "size", info.Size())
				return nil
			}
		}

		content, rerr := os.ReadFile(path)
		if rerr != nil {
			logger.Warn("walk.read_error", "path", rel, "err", rerr)
			return nil
		}
		files = append(files, FileInput{Path: rel, Content: content, Language: language})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// matchesAny matches rel against each glob, on the full relative path, the
// base name, and any "dir/**" prefix form.
func matchesAny(globs []string, rel string) bool {
	base := filepath.Base(rel)
	for _, g := range globs {
		if ok, _ := filepath.Match(g, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(g, base); ok {
			return true
		}
		if prefix, found := strings.CutSuffix(g, "/**"); found {
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return true
			}
		}
	}
	return false
}
