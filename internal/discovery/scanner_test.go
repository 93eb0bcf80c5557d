package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func relPaths(r *Result) []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.RelPath
	}
	return out
}

func TestScanRecursive(t *testing.T) {
	root := makeTree(t, map[string]string{
		"b.md":                  "b",
		"a.markdown":            "a",
		"notes.txt":             "x",
		"sub/c.MD":              "c",
		"sub/deeper/d.md":       "d",
		".hidden/e.md":          "e",
		"node_modules/pkg/f.md": "f",
		".draft.md":             "g",
	})

	res, err := Scan(root, Options{Recursive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.markdown", "b.md", "sub/c.MD", "sub/deeper/d.md"}, relPaths(res))
	for _, f := range res.Files {
		assert.True(t, filepath.IsAbs(f.Path))
	}
}

func TestScanNonRecursive(t *testing.T) {
	root := makeTree(t, map[string]string{
		"top.md":     "t",
		"sub/low.md": "l",
	})

	res, err := Scan(root, Options{Recursive: false})
	require.NoError(t, err)
	assert.Equal(t, []string{"top.md"}, relPaths(res))
}

func TestScanIncludeHidden(t *testing.T) {
	root := makeTree(t, map[string]string{
		".hidden/e.md": "e",
		"x.md":         "x",
	})

	res, err := Scan(root, Options{Recursive: true, IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".hidden/e.md", "x.md"}, relPaths(res))
}

func TestScanCustomExtensions(t *testing.T) {
	root := makeTree(t, map[string]string{
		"a.md":  "a",
		"b.mdx": "b",
	})

	res, err := Scan(root, Options{Recursive: true, Extensions: []string{"mdx"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.mdx"}, relPaths(res))
}

func TestScanMissingPath(t *testing.T) {
	res, err := Scan(filepath.Join(t.TempDir(), "nope"), Options{Recursive: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathNotFound))
	assert.Nil(t, res)
}

func TestScanSingleFile(t *testing.T) {
	root := makeTree(t, map[string]string{"only.md": "x"})

	res, err := Scan(filepath.Join(root, "only.md"), Options{})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "only.md", res.Files[0].RelPath)
}

func TestScanSingleNonMarkdownFile(t *testing.T) {
	root := makeTree(t, map[string]string{"x.txt": "x"})

	_, err := Scan(filepath.Join(root, "x.txt"), Options{})
	assert.True(t, errors.Is(err, ErrNotMarkdown))
}

func TestScanMaxFileSize(t *testing.T) {
	root := makeTree(t, map[string]string{
		"small.md": "s",
		"big.md":   "0123456789",
	})

	res, err := Scan(root, Options{Recursive: true, MaxFileSize: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"small.md"}, relPaths(res))
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0].Reason, "too large")
}

func TestScanFilter(t *testing.T) {
	root := makeTree(t, map[string]string{
		"keep.md": "k",
		"drop.md": "d",
	})

	res, err := Scan(root, Options{
		Recursive: true,
		Filter:    func(p string) bool { return filepath.Base(p) == "keep.md" },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.md"}, relPaths(res))
	assert.Equal(t, "keep.md", filepath.Base(res.Files[0].Path))
}

func TestScanEmptyDirectory(t *testing.T) {
	res, err := Scan(t.TempDir(), Options{Recursive: true})
	require.NoError(t, err)
	assert.Empty(t, res.Files)
}
