package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishaan812/mdsum/internal/batch"
)

func send(t *testing.T, m ProgressModel, msg tea.Msg) (ProgressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(ProgressModel)
	require.True(t, ok)
	return pm, cmd
}

func TestProgressModelTracksEvents(t *testing.T) {
	m := NewProgressModel("Summarizing", 2, nil, nil)

	m, _ = send(t, m, jobEventMsg{
		Type:     batch.EventJobStarted,
		Job:      batch.JobSnapshot{RelPath: "a.md", StartedAt: time.Now()},
		Progress: batch.Progress{Total: 2, InFlight: 1},
	})
	assert.Contains(t, m.inFlight, "a.md")
	assert.Contains(t, m.View(), "a.md")

	m, _ = send(t, m, jobEventMsg{
		Type:     batch.EventJobFinished,
		Job:      batch.JobSnapshot{RelPath: "a.md", Status: batch.StatusSucceeded, Summary: "Short."},
		Progress: batch.Progress{Total: 2, Completed: 1, Succeeded: 1},
	})
	assert.Empty(t, m.inFlight)
	assert.InDelta(t, 0.5, m.percent(), 0.001)

	m, _ = send(t, m, jobEventMsg{
		Type:     batch.EventJobFinished,
		Job:      batch.JobSnapshot{RelPath: "b.md", Status: batch.StatusFailed, Error: "rate limited"},
		Progress: batch.Progress{Total: 2, Completed: 2, Succeeded: 1, Failed: 1},
	})
	view := m.View()
	assert.Contains(t, view, "2/2")
	assert.Contains(t, view, "1 failed")
	assert.Contains(t, view, "rate limited")
}

func TestProgressModelKeepsRecentBounded(t *testing.T) {
	m := NewProgressModel("x", 20, nil, nil)
	for i := 0; i < 20; i++ {
		m, _ = send(t, m, jobEventMsg{
			Type: batch.EventJobFinished,
			Job:  batch.JobSnapshot{RelPath: "f.md", Status: batch.StatusSucceeded},
		})
	}
	assert.Len(t, m.recent, maxRecent)
}

func TestProgressModelStopThenQuit(t *testing.T) {
	stopped, aborted := false, false
	m := NewProgressModel("x", 1, func() { stopped = true }, func() { aborted = true })

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, stopped)
	assert.False(t, aborted)
	assert.True(t, m.stopping)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Stopping")

	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, aborted)
	assert.True(t, m.aborted)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestProgressModelDone(t *testing.T) {
	m := NewProgressModel("x", 0, nil, nil)
	assert.Equal(t, 1.0, m.percent())

	m, cmd := send(t, m, runDoneMsg{})
	assert.True(t, m.done)
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
}
