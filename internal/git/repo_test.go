package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	write(t, dir, "committed.md", "one")
	write(t, dir, "touched.md", "two")

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("committed.md")
	require.NoError(t, err)
	_, err = wt.Add("touched.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestChangedFiles(t *testing.T) {
	dir := initRepo(t)
	write(t, dir, "touched.md", "two, edited")
	write(t, dir, "docs/new.md", "new")

	repo, err := OpenRepo(filepath.Join(dir, "docs"))
	require.NoError(t, err)
	assert.Equal(t, dir, repo.Path())

	changed, err := repo.ChangedFiles()
	require.NoError(t, err)
	assert.True(t, changed[filepath.Join(dir, "touched.md")])
	assert.True(t, changed[filepath.Join(dir, "docs", "new.md")])
	assert.False(t, changed[filepath.Join(dir, "committed.md")])

	filter, err := repo.ChangedFilter()
	require.NoError(t, err)
	assert.True(t, filter(filepath.Join(dir, "touched.md")))
	assert.False(t, filter(filepath.Join(dir, "committed.md")))
}

func TestHeadHash(t *testing.T) {
	repo, err := OpenRepo(initRepo(t))
	require.NoError(t, err)
	hash, err := repo.HeadHash()
	require.NoError(t, err)
	assert.Len(t, hash, 40)
}

func TestOpenRepoOutsideRepository(t *testing.T) {
	_, err := OpenRepo(t.TempDir())
	assert.Error(t, err)
}
