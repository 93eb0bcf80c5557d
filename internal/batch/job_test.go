package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	job := NewJob("/tmp/a.md", "a.md", 200)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, StatusPending, job.Status)

	job.start()
	assert.Equal(t, StatusInProgress, job.Status)
	assert.Equal(t, 1, job.Attempts)

	job.fail(errors.New("rate limited"), true)
	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "rate limited", snap.Error)
	assert.True(t, snap.Transient)
	assert.True(t, job.Failed())

	job.reset()
	assert.Equal(t, StatusPending, job.Status)
	assert.NoError(t, job.Err())

	job.start()
	job.succeed("done", false)
	snap = job.Snapshot()
	assert.Equal(t, StatusSucceeded, snap.Status)
	assert.Equal(t, 2, snap.Attempts)
	assert.Equal(t, "done", snap.Summary)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.FinishedAt.Before(snap.StartedAt))
}

func TestRestoreJob(t *testing.T) {
	orig := NewJob("/x/b.md", "b.md", 100)
	orig.start()
	orig.fail(errors.New("boom"), false)

	restored := RestoreJob(orig.Snapshot())
	assert.Equal(t, orig.ID, restored.ID)
	assert.Equal(t, 1, restored.Attempts)
	assert.True(t, restored.Failed())
	assert.EqualError(t, restored.Err(), "boom")
}
