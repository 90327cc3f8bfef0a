package retriever

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// resetDir leaves target as an existing, empty directory.
func (r *Retriever) resetDir(target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	if err := r.removeDir(target); err != nil {
		return err
	}
	if err := os.Mkdir(target, 0o755); err != nil {
		return fmt.Errorf("failed to recreate %s: %w", target, err)
	}
	return nil
}

// removeDir deletes target and everything below it under the retry policy.
// A missing target counts as removed.
func (r *Retriever) removeDir(target string) error {
	return r.policy.Do(func(attempt int) error {
		if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		makeWritable(target)
		if err := r.remove(target); err != nil {
			slog.Debug("remove attempt failed", "path", target, "attempt", attempt, "error", err)
			return err
		}
		if _, err := os.Lstat(target); err == nil {
			return fmt.Errorf("%s still exists after removal", target)
		}
		return nil
	})
}

// discard removes target and only logs a failure.
func (r *Retriever) discard(target string) {
	if err := r.removeDir(target); err != nil {
		slog.Warn("failed to clean up working copy", "path", target, "error", err)
	}
}

// makeWritable grants write permission on every entry below root so that
// read-only objects (git packs, checked-in read-only files) can be deleted.
// Symlinks are skipped; chmod would follow them out of the tree.
func makeWritable(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		mode := fs.FileMode(0o666)
		if d.IsDir() {
			mode = 0o777
		}
		if err := os.Chmod(path, mode); err != nil {
			slog.Warn("failed to make entry writable", "path", path, "error", err)
		}
		return nil
	})
}
