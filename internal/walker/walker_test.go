package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for rel, data := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	return root
}

func paths(t *testing.T, root string, opts Options) []string {
	t.Helper()
	var out []string
	for rec := range Walk(root, opts) {
		out = append(out, rec.Path)
	}
	return out
}

func TestWalk_PrunesAndSkips(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"app.py":                        []byte("import os\n"),
		"src/main.go":                   []byte("package main\n"),
		"src/lib/util.js":               []byte("export {}\n"),
		".git/config":                   []byte("[core]\n"),
		"node_modules/x/index.js":       []byte("x\n"),
		"pkg/__pycache__/mod.pyc":       []byte("cached"),
		"deep/nested/.venv/bin/python":  []byte("#!"),
		".pytest_cache/v/cache":         []byte("{}"),
		"assets/logo.png":               {0x89, 'P', 'N', 'G', 0xff, 0xfe},
		"empty.txt":                     {},
		"docs/README.md":                []byte("# docs\n"),
		".github/workflows/ci.yml":      []byte("on: push\n"),
		".ruff_cache/0.1/content":       []byte("x"),
		"services/api/.mypy_cache/x.db": []byte("x"),
	})

	got := paths(t, root, Options{})
	assert.Equal(t, []string{
		".github/workflows/ci.yml",
		"app.py",
		"docs/README.md",
		"src/lib/util.js",
		"src/main.go",
	}, got)
}

func TestWalk_ContentAndStableOrder(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"b.txt":   []byte("second"),
		"a.txt":   []byte("first"),
		"c/d.txt": []byte("third"),
	})

	first := Collect(root, Options{})
	second := Collect(root, Options{})
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "a.txt", first[0].Path)
	assert.Equal(t, "first", first[0].Content)
	assert.Equal(t, "c/d.txt", first[2].Path)
}

func TestWalk_Excludes(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"app.js":          []byte("app"),
		"app.min.js":      []byte("min"),
		"docs/guide.md":   []byte("guide"),
		"vendor/lib/a.go": []byte("a"),
		"src/vendor.go":   []byte("keep"),
	})

	got := paths(t, root, Options{Excludes: []string{"*.min.js", "docs/", "/vendor"}})
	assert.Equal(t, []string{"app.js", "src/vendor.go"}, got)
}

func TestWalk_SkipsSymlinks(t *testing.T) {
	root := writeTree(t, map[string][]byte{"real.txt": []byte("real")})
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	assert.Equal(t, []string{"real.txt"}, paths(t, root, Options{}))
}

func TestWalk_SkipsUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission")
	}
	root := writeTree(t, map[string][]byte{
		"ok.txt":     []byte("ok"),
		"secret.txt": []byte("hidden"),
	})
	require.NoError(t, os.Chmod(filepath.Join(root, "secret.txt"), 0o000))

	assert.Equal(t, []string{"ok.txt"}, paths(t, root, Options{}))
}

func TestWalk_StopsEarly(t *testing.T) {
	root := writeTree(t, map[string][]byte{
		"a.txt": []byte("a"),
		"b.txt": []byte("b"),
		"c.txt": []byte("c"),
	})

	var seen []string
	for rec := range Walk(root, Options{}) {
		seen = append(seen, rec.Path)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a.txt", "b.txt"}, seen)
}

func TestWalk_EmptyOrMissingRoot(t *testing.T) {
	assert.Empty(t, paths(t, t.TempDir(), Options{}))
	assert.Empty(t, paths(t, filepath.Join(t.TempDir(), "missing"), Options{}))
}
