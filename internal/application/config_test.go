package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGraphOptionsValidates(t *testing.T) {
	opts := DefaultGraphOptions("diamond")
	assert.NoError(t, opts.Validate())
}

func TestGraphOptionsRejectsEmptyName(t *testing.T) {
	opts := GraphOptions{Name: ""}
	assert.Error(t, opts.Validate())
}

func TestGraphOptionsRejectsOutOfRangeWorkers(t *testing.T) {
	opts := GraphOptions{Name: "g", MaxWorkers: -1}
	assert.Error(t, opts.Validate())
}

func TestLoadGraphOptionsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	contents := "name: pipeline\nmax_workers: 8\nrate_limit_per_second: 50\nmetrics_enabled: true\ntracing_enabled: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	opts, err := LoadGraphOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "pipeline", opts.Name)
	assert.Equal(t, 8, opts.MaxWorkers)
	assert.Equal(t, 50.0, opts.RateLimitPerSecond)
	assert.True(t, opts.MetricsEnabled)
	assert.True(t, opts.TracingEnabled)
}

func TestLoadGraphOptionsRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: \"\"\n"), 0o644))

	_, err := LoadGraphOptions(path)
	assert.Error(t, err)
}

func TestLoadGraphOptionsMissingFile(t *testing.T) {
	_, err := LoadGraphOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
