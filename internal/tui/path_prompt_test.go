package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPath(t *testing.T) {
	assert.NoError(t, checkPath(t.TempDir()))
	assert.Error(t, checkPath("/definitely/not/here"))
}

func TestDescribePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.Equal(t, "folder", describePath(dir))
	assert.Equal(t, "single file", describePath(file))
	assert.Equal(t, "not found", describePath(filepath.Join(dir, "nope")))
	assert.Empty(t, describePath("  "))
}

func TestCompleteDir(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"notes", "notebook", "posts", ".hidden"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages.md"), nil, 0o644))
	sep := string(filepath.Separator)

	assert.Equal(t, filepath.Join(dir, "note"), completeDir(filepath.Join(dir, "no")))
	assert.Equal(t, filepath.Join(dir, "posts")+sep, completeDir(filepath.Join(dir, "p")))
	assert.Equal(t, filepath.Join(dir, "zzz"), completeDir(filepath.Join(dir, "zzz")))
	assert.Equal(t, filepath.Join(dir, ".h"), completeDir(filepath.Join(dir, ".h")))
}

func TestPathPromptRejectsMissingPath(t *testing.T) {
	p := newPathPrompt("t", "h", "/definitely/not/here")
	next, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p = next.(pathPrompt)
	assert.Nil(t, cmd)
	assert.Contains(t, p.problem, "does not exist")
	assert.Empty(t, p.chosen)
}

func TestPathPromptAcceptsExistingPath(t *testing.T) {
	dir := t.TempDir()
	p := newPathPrompt("t", "h", dir)
	assert.Equal(t, "folder", p.status)

	next, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p = next.(pathPrompt)
	require.NotNil(t, cmd)
	assert.Equal(t, dir, p.chosen)
	assert.Empty(t, p.View())
}

func TestPathPromptEscCancels(t *testing.T) {
	next, _ := newPathPrompt("t", "h", "").Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, next.(pathPrompt).quit)
}
