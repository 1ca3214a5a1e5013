package canvasflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/config"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/history"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/interaction"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/observability"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/persist"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/render"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/scheduler"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/viewport"
)

// OpenPersistence creates the graph state store named by ps.
func OpenPersistence(ps config.PersistSettings) (persist.Store, error) {
	switch ps.Backend {
	case "", config.BackendMemory:
		return persist.NewMemoryStore(), nil
	case config.BackendFile:
		return persist.NewFileStore(ps.Path, persist.Format(ps.Format))
	case config.BackendSQLite:
		return persist.NewSQLiteStore(ps.Path)
	default:
		return nil, fmt.Errorf("unknown persist backend %q", ps.Backend)
	}
}

// OpenHistory creates the execution history store named by hs.
func OpenHistory(ctx context.Context, hs config.HistorySettings) (history.Store, error) {
	switch hs.Backend {
	case "", config.BackendMemory:
		return history.NewMemoryStore(), nil
	case config.BackendSQLite:
		return history.NewSQLiteStore(hs.Path)
	case config.BackendRedis:
		var opts []history.RedisOption
		if hs.Prefix != "" {
			opts = append(opts, history.WithPrefix(hs.Prefix))
		}
		return history.NewRedisStoreFromURL(ctx, hs.RedisURL, opts...)
	default:
		return nil, fmt.Errorf("unknown history backend %q", hs.Backend)
	}
}

// NewMetrics creates the recorder named by backend. Prometheus collectors
// are registered on reg.
func NewMetrics(backend string, reg prometheus.Registerer) (observability.MetricsRecorder, error) {
	switch backend {
	case "", config.BackendNone:
		return observability.NoopMetrics{}, nil
	case config.BackendOtel:
		return observability.NewMetricsRecorder(), nil
	case config.BackendPrometheus:
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		return observability.NewPromMetrics(reg)
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", backend)
	}
}

// SchedulerOptions translates scheduler settings.
func SchedulerOptions(ss config.SchedulerSettings) []scheduler.Option {
	return []scheduler.Option{
		scheduler.WithMode(scheduler.Mode(ss.Mode)),
		scheduler.WithCyclePolicy(scheduler.CyclePolicy(ss.CyclePolicy)),
		scheduler.WithMaxConcurrency(ss.MaxConcurrency),
		scheduler.WithTracing(ss.Tracing),
	}
}

// Open builds a session from settings. The settings are validated first.
// opts are applied after the settings, so they take precedence. Prometheus
// metrics register on reg, or the default registerer when reg is nil.
func Open(ctx context.Context, settings config.Settings, reg prometheus.Registerer, opts ...Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	catalog := palette.Default()
	if settings.Editor.Palette != "" {
		c, err := palette.LoadFile(settings.Editor.Palette)
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	metrics, err := NewMetrics(settings.Metrics.Backend, reg)
	if err != nil {
		return nil, err
	}

	ps, err := OpenPersistence(settings.Persist)
	if err != nil {
		return nil, fmt.Errorf("open persistence: %w", err)
	}
	hs, err := OpenHistory(ctx, settings.History)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open history: %w", err), ps.Close())
	}

	v := settings.Viewport
	base := []Option{
		WithGraphID(settings.Editor.GraphID),
		WithCatalog(catalog),
		WithPersistence(ps),
		WithHistory(hs),
		WithAutosave(settings.Editor.Autosave),
		WithViewportOptions(
			viewport.WithZoomBounds(v.MinZoom, v.MaxZoom),
			viewport.WithSize(v.Width, v.Height),
		),
		WithSurfaceOptions(render.WithGrid(settings.Editor.Grid)),
		WithSchedulerOptions(append(SchedulerOptions(settings.Scheduler), scheduler.WithMetrics(metrics))...),
	}
	if settings.Editor.Snap {
		base = append(base, WithMachineOptions(interaction.WithSnap(settings.Editor.SnapGrid)))
	}
	return NewSession(append(base, opts...)...), nil
}
