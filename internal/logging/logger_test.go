package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONToFile(t *testing.T) {
	old := Log
	t.Cleanup(func() { Log = old })

	path := filepath.Join(t.TempDir(), "logs", "mdsum.log")
	closeFn, err := Init(Options{Level: "debug", File: path})
	require.NoError(t, err)

	InfoWithFields("job finished", Fields{"path": "a.md", "status": "succeeded"})
	DebugWithFields("request sent", Fields{"provider": "deepseek"})
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"message":"job finished"`)
	assert.Contains(t, out, "a.md")
	assert.Contains(t, out, "request sent")
}

func TestLevelFiltering(t *testing.T) {
	old := Log
	t.Cleanup(func() { Log = old })

	path := filepath.Join(t.TempDir(), "mdsum.log")
	closeFn, err := Init(Options{Level: "warn", File: path})
	require.NoError(t, err)

	Log.Info("hidden")
	WarnWithFields("shown", nil)
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestDefaultLoggerDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		InfoWithFields("nothing", Fields{"k": 1})
	})
}
