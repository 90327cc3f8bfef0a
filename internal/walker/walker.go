// Package walker enumerates the readable text files of a working copy.
package walker

import (
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/huangsam/repoaudit/schema"
)

// skipDirs are pruned at any depth.
var skipDirs = map[string]struct{}{
	".git":          {},
	".hg":           {},
	".svn":          {},
	"node_modules":  {},
	"__pycache__":   {},
	"venv":          {},
	".venv":         {},
	".tox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
	".ruff_cache":   {},
}

// Options tunes a walk.
type Options struct {
	// Excludes are gitignore-style patterns matched against root-relative paths.
	Excludes []string
}

// Walk lazily yields every regular, non-empty, UTF-8 file below root in lexical order.
// Files that cannot be read or decoded are skipped with a debug log.
func Walk(root string, opts Options) iter.Seq[schema.FileRecord] {
	var excludes *ignore.GitIgnore
	if len(opts.Excludes) > 0 {
		excludes = ignore.CompileIgnoreLines(opts.Excludes...)
	}

	return func(yield func(schema.FileRecord) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Debug("skipping unreadable entry", "path", path, "error", err)
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if path == root {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if _, skip := skipDirs[d.Name()]; skip {
					return filepath.SkipDir
				}
				if excludes != nil && excludes.MatchesPath(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}
			if excludes != nil && excludes.MatchesPath(rel) {
				return nil
			}

			content, ok := readText(path)
			if !ok {
				return nil
			}
			if !yield(schema.FileRecord{Path: rel, Content: content}) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// Collect drains a walk into a slice.
func Collect(root string, opts Options) []schema.FileRecord {
	var records []schema.FileRecord
	for rec := range Walk(root, opts) {
		records = append(records, rec)
	}
	return records
}

func readText(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("skipping unreadable file", "path", path, "error", err)
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	if !utf8.Valid(data) {
		slog.Debug("skipping non-text file", "path", path)
		return "", false
	}
	return string(data), true
}
