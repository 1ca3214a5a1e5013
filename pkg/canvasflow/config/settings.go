// Package config holds the canvasflow settings document and typed access to
// property maps.
//
// Settings are loaded from YAML or JSON, overlaid with CANVASFLOW_*
// environment variables and validated as a whole:
//
//	s, err := config.Load("canvasflow.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := s.ApplyEnv(os.LookupEnv); err != nil {
//	    return err
//	}
//	if err := s.Validate(); err != nil {
//	    return err
//	}
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Settings is the full canvasflow configuration.
type Settings struct {
	Log       LogSettings       `yaml:"log" json:"log"`
	Editor    EditorSettings    `yaml:"editor" json:"editor"`
	Viewport  ViewportSettings  `yaml:"viewport" json:"viewport"`
	Scheduler SchedulerSettings `yaml:"scheduler" json:"scheduler"`
	Persist   PersistSettings   `yaml:"persist" json:"persist"`
	History   HistorySettings   `yaml:"history" json:"history"`
	Metrics   MetricsSettings   `yaml:"metrics" json:"metrics"`
	Server    ServerSettings    `yaml:"server" json:"server"`
}

// LogSettings configures the slog handler.
type LogSettings struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// EditorSettings configures the editing session.
type EditorSettings struct {
	GraphID  string  `yaml:"graph_id" json:"graph_id"`
	Palette  string  `yaml:"palette" json:"palette"`
	Autosave bool    `yaml:"autosave" json:"autosave"`
	Grid     bool    `yaml:"grid" json:"grid"`
	Snap     bool    `yaml:"snap" json:"snap"`
	SnapGrid float64 `yaml:"snap_grid" json:"snap_grid"`
}

// ViewportSettings bounds zoom and sizes the initial viewport.
type ViewportSettings struct {
	MinZoom float64 `yaml:"min_zoom" json:"min_zoom"`
	MaxZoom float64 `yaml:"max_zoom" json:"max_zoom"`
	Width   float64 `yaml:"width" json:"width"`
	Height  float64 `yaml:"height" json:"height"`
}

// SchedulerSettings configures execution.
type SchedulerSettings struct {
	Mode           string `yaml:"mode" json:"mode"`
	CyclePolicy    string `yaml:"cycle_policy" json:"cycle_policy"`
	MaxConcurrency int    `yaml:"max_concurrency" json:"max_concurrency"`
	Tracing        bool   `yaml:"tracing" json:"tracing"`
}

// PersistSettings selects the graph state backend.
type PersistSettings struct {
	Backend string `yaml:"backend" json:"backend"`
	Path    string `yaml:"path" json:"path"`
	Format  string `yaml:"format" json:"format"`
}

// HistorySettings selects the execution history backend.
type HistorySettings struct {
	Backend  string `yaml:"backend" json:"backend"`
	Path     string `yaml:"path" json:"path"`
	RedisURL string `yaml:"redis_url" json:"redis_url"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// MetricsSettings selects the metrics backend.
type MetricsSettings struct {
	Backend string `yaml:"backend" json:"backend"`
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string `yaml:"addr" json:"addr"`
}

// Backend names.
const (
	BackendMemory     = "memory"
	BackendFile       = "file"
	BackendSQLite     = "sqlite"
	BackendRedis      = "redis"
	BackendNone       = "none"
	BackendOtel       = "otel"
	BackendPrometheus = "prometheus"
)

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		Log:    LogSettings{Level: "info", Format: "text"},
		Editor: EditorSettings{GraphID: "default", Grid: true, SnapGrid: 20},
		Viewport: ViewportSettings{
			MinZoom: 0.25,
			MaxZoom: 4,
			Width:   1200,
			Height:  800,
		},
		Scheduler: SchedulerSettings{Mode: "sequential", CyclePolicy: "fallback"},
		Persist:   PersistSettings{Backend: BackendMemory, Format: "json"},
		History:   HistorySettings{Backend: BackendMemory, Prefix: "canvasflow"},
		Metrics:   MetricsSettings{Backend: BackendNone},
		Server:    ServerSettings{Addr: ":8080"},
	}
}

// Validate checks every field and returns all problems joined.
func (s Settings) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(oneOf(strings.ToLower(s.Log.Level), "debug", "info", "warn", "error"),
		"log.level: unknown level %q", s.Log.Level)
	check(oneOf(s.Log.Format, "text", "json"), "log.format: unknown format %q", s.Log.Format)

	check(s.Editor.GraphID != "" && !strings.ContainsAny(s.Editor.GraphID, `/\`),
		"editor.graph_id: invalid id %q", s.Editor.GraphID)
	check(s.Editor.SnapGrid >= 0, "editor.snap_grid: must not be negative")

	check(s.Viewport.MinZoom > 0, "viewport.min_zoom: must be positive")
	check(s.Viewport.MaxZoom >= s.Viewport.MinZoom, "viewport.max_zoom: must be at least min_zoom")
	check(s.Viewport.Width >= 0 && s.Viewport.Height >= 0, "viewport: size must not be negative")

	check(oneOf(s.Scheduler.Mode, "sequential", "waves"), "scheduler.mode: unknown mode %q", s.Scheduler.Mode)
	check(oneOf(s.Scheduler.CyclePolicy, "fallback", "reject"),
		"scheduler.cycle_policy: unknown policy %q", s.Scheduler.CyclePolicy)
	check(s.Scheduler.MaxConcurrency >= 0, "scheduler.max_concurrency: must not be negative")

	check(oneOf(s.Persist.Backend, BackendMemory, BackendFile, BackendSQLite),
		"persist.backend: unknown backend %q", s.Persist.Backend)
	check(s.Persist.Backend == BackendMemory || s.Persist.Path != "",
		"persist.path: required for %s backend", s.Persist.Backend)
	check(oneOf(s.Persist.Format, "json", "yaml"), "persist.format: unknown format %q", s.Persist.Format)

	check(oneOf(s.History.Backend, BackendMemory, BackendSQLite, BackendRedis),
		"history.backend: unknown backend %q", s.History.Backend)
	check(s.History.Backend != BackendSQLite || s.History.Path != "",
		"history.path: required for sqlite backend")
	check(s.History.Backend != BackendRedis || s.History.RedisURL != "",
		"history.redis_url: required for redis backend")

	check(oneOf(s.Metrics.Backend, BackendNone, BackendOtel, BackendPrometheus),
		"metrics.backend: unknown backend %q", s.Metrics.Backend)

	return errors.Join(errs...)
}

// ApplyEnv overrides fields from CANVASFLOW_* variables found by lookup,
// typically os.LookupEnv. Malformed numbers and booleans are errors.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup("CANVASFLOW_" + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup("CANVASFLOW_" + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("CANVASFLOW_%s: %w", name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup("CANVASFLOW_" + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("CANVASFLOW_%s: %w", name, err))
				return
			}
			*dst = n
		}
	}

	str("LOG_LEVEL", &s.Log.Level)
	str("LOG_FORMAT", &s.Log.Format)
	str("GRAPH_ID", &s.Editor.GraphID)
	str("PALETTE", &s.Editor.Palette)
	boolean("AUTOSAVE", &s.Editor.Autosave)
	boolean("GRID", &s.Editor.Grid)
	boolean("SNAP", &s.Editor.Snap)
	str("SCHEDULER_MODE", &s.Scheduler.Mode)
	str("CYCLE_POLICY", &s.Scheduler.CyclePolicy)
	integer("MAX_CONCURRENCY", &s.Scheduler.MaxConcurrency)
	boolean("TRACING", &s.Scheduler.Tracing)
	str("PERSIST_BACKEND", &s.Persist.Backend)
	str("PERSIST_PATH", &s.Persist.Path)
	str("PERSIST_FORMAT", &s.Persist.Format)
	str("HISTORY_BACKEND", &s.History.Backend)
	str("HISTORY_PATH", &s.History.Path)
	str("REDIS_URL", &s.History.RedisURL)
	str("HISTORY_PREFIX", &s.History.Prefix)
	str("METRICS", &s.Metrics.Backend)
	str("ADDR", &s.Server.Addr)

	return errors.Join(errs...)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
