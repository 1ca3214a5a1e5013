package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/config"
)

func TestDefault_Valid(t *testing.T) {
	s := config.Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, 0.25, s.Viewport.MinZoom)
	assert.Equal(t, 4.0, s.Viewport.MaxZoom)
	assert.Equal(t, "sequential", s.Scheduler.Mode)
	assert.Equal(t, "fallback", s.Scheduler.CyclePolicy)
	assert.Equal(t, config.BackendMemory, s.History.Backend)
}

func TestValidate_JoinsErrors(t *testing.T) {
	s := config.Default()
	s.Log.Level = "loud"
	s.Scheduler.Mode = "parallel"
	s.Viewport.MinZoom = 0
	s.History.Backend = config.BackendRedis

	err := s.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "log.level")
	assert.Contains(t, msg, "scheduler.mode")
	assert.Contains(t, msg, "viewport.min_zoom")
	assert.Contains(t, msg, "history.redis_url")
}

func TestValidate_Cases(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Settings)
		wantErr string
	}{
		{"waves mode", func(s *config.Settings) { s.Scheduler.Mode = "waves" }, ""},
		{"reject policy", func(s *config.Settings) { s.Scheduler.CyclePolicy = "reject" }, ""},
		{"bad policy", func(s *config.Settings) { s.Scheduler.CyclePolicy = "panic" }, "cycle_policy"},
		{"file persist needs path", func(s *config.Settings) { s.Persist.Backend = config.BackendFile }, "persist.path"},
		{"file persist with path", func(s *config.Settings) {
			s.Persist.Backend = config.BackendFile
			s.Persist.Path = "graphs"
		}, ""},
		{"sqlite history needs path", func(s *config.Settings) { s.History.Backend = config.BackendSQLite }, "history.path"},
		{"graph id with slash", func(s *config.Settings) { s.Editor.GraphID = "a/b" }, "editor.graph_id"},
		{"negative snap grid", func(s *config.Settings) { s.Editor.SnapGrid = -5 }, "editor.snap_grid"},
		{"max below min zoom", func(s *config.Settings) { s.Viewport.MaxZoom = 0.1 }, "max_zoom"},
		{"negative concurrency", func(s *config.Settings) { s.Scheduler.MaxConcurrency = -1 }, "max_concurrency"},
		{"prometheus metrics", func(s *config.Settings) { s.Metrics.Backend = config.BackendPrometheus }, ""},
		{"unknown metrics", func(s *config.Settings) { s.Metrics.Backend = "statsd" }, "metrics.backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Default()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CANVASFLOW_LOG_LEVEL":       "debug",
		"CANVASFLOW_GRAPH_ID":        "project-7",
		"CANVASFLOW_AUTOSAVE":        "true",
		"CANVASFLOW_SNAP":            "1",
		"CANVASFLOW_SCHEDULER_MODE":  "waves",
		"CANVASFLOW_MAX_CONCURRENCY": "4",
		"CANVASFLOW_HISTORY_BACKEND": "redis",
		"CANVASFLOW_REDIS_URL":       "redis://localhost:6379/0",
		"UNRELATED":                  "x",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	s := config.Default()
	require.NoError(t, s.ApplyEnv(lookup))
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "project-7", s.Editor.GraphID)
	assert.True(t, s.Editor.Autosave)
	assert.True(t, s.Editor.Snap)
	assert.Equal(t, 20.0, s.Editor.SnapGrid)
	assert.Equal(t, "waves", s.Scheduler.Mode)
	assert.Equal(t, 4, s.Scheduler.MaxConcurrency)
	assert.Equal(t, "redis", s.History.Backend)
	assert.Equal(t, "redis://localhost:6379/0", s.History.RedisURL)
	assert.Equal(t, "text", s.Log.Format, "unset variables keep their value")
	require.NoError(t, s.Validate())
}

func TestApplyEnv_Malformed(t *testing.T) {
	env := map[string]string{
		"CANVASFLOW_AUTOSAVE":        "sometimes",
		"CANVASFLOW_MAX_CONCURRENCY": "lots",
	}
	s := config.Default()
	err := s.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CANVASFLOW_AUTOSAVE")
	assert.Contains(t, err.Error(), "CANVASFLOW_MAX_CONCURRENCY")
	assert.False(t, s.Editor.Autosave)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "canvasflow.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
editor:
  graph_id: roadmap
  autosave: true
scheduler:
  mode: waves
  max_concurrency: 8
history:
  backend: sqlite
  path: history.db
`), 0o644))

	s, err := config.Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "roadmap", s.Editor.GraphID)
	assert.True(t, s.Editor.Autosave)
	assert.Equal(t, "waves", s.Scheduler.Mode)
	assert.Equal(t, 8, s.Scheduler.MaxConcurrency)
	assert.Equal(t, "fallback", s.Scheduler.CyclePolicy, "defaults fill missing fields")
	assert.Equal(t, 0.25, s.Viewport.MinZoom)
	require.NoError(t, s.Validate())

	jsonPath := filepath.Join(dir, "canvasflow.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"log": {"level": "warn", "format": "json"}}`), 0o644))
	s, err = config.Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "warn", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
	assert.Equal(t, "default", s.Editor.GraphID)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	toml := filepath.Join(dir, "canvasflow.toml")
	require.NoError(t, os.WriteFile(toml, []byte("x = 1"), 0o644))
	_, err = config.Load(toml)
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = config.FromYAML([]byte("editor:\n  grpah_id: typo\n"))
	assert.Error(t, err, "unknown keys rejected")

	_, err = config.FromJSON([]byte(`{"editor": {"grpah_id": "typo"}}`))
	assert.Error(t, err)

	s, err := config.FromYAML(nil)
	require.NoError(t, err, "empty document yields defaults")
	assert.Equal(t, config.Default(), s)
}
