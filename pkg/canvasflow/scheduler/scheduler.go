// Package scheduler runs a graph snapshot to completion.
//
// The scheduler orders nodes topologically from their connections, feeds
// each node the outputs of its completed upstream nodes and dispatches it
// through an executor registry. A failing node is recorded and the run
// carries on; the aggregate status is completed, partial or failed.
//
// Two modes are available. ModeSequential runs one node at a time in plan
// order. ModeWaves runs every node of a wave concurrently and waits for the
// whole wave before starting the next.
//
// Cycles are handled by the configured CyclePolicy: CycleFallback appends
// the unresolved nodes in input order, CycleReject refuses to run.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/executor"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/history"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/observability"
)

// Mode selects how nodes are dispatched.
type Mode string

// Dispatch modes.
const (
	ModeSequential Mode = "sequential"
	ModeWaves      Mode = "waves"
)

// CyclePolicy selects what happens when the graph has a cycle.
type CyclePolicy string

// Cycle policies.
const (
	CycleFallback CyclePolicy = "fallback"
	CycleReject   CyclePolicy = "reject"
)

// Dispatcher runs one node. *executor.Registry implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, node executor.NodeConfig, inputs executor.Inputs) (any, error)
}

// Scheduler executes graph snapshots. It holds no per-run state and is safe
// for concurrent use.
type Scheduler struct {
	dispatcher     Dispatcher
	history        history.Store
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
	mode           Mode
	maxConcurrency int
	cyclePolicy    CyclePolicy
	progress       func(NodeResult)
	now            func() time.Time
	newID          func() string
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithHistory appends every result to store. Append failures are logged
// and never change the returned result.
func WithHistory(store history.Store) Option {
	return func(s *Scheduler) {
		s.history = store
	}
}

// WithLogger sets the logger for run and node events.
// Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: NoopMetrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry spans for runs and nodes.
func WithTracing(enabled bool) Option {
	return func(s *Scheduler) {
		s.tracingEnabled = enabled
		if enabled {
			s.spans = observability.NewSpanManager()
		} else {
			s.spans = observability.NoopSpanManager{}
		}
	}
}

// WithSpanManager sets a custom span manager and enables tracing.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(s *Scheduler) {
		if sm != nil {
			s.spans = sm
			s.tracingEnabled = true
		}
	}
}

// WithMode selects sequential or wave dispatch.
// Default: ModeSequential.
func WithMode(m Mode) Option {
	return func(s *Scheduler) {
		if m == ModeSequential || m == ModeWaves {
			s.mode = m
		}
	}
}

// WithMaxConcurrency limits concurrent nodes per wave. Zero or less means
// no limit. Only used by ModeWaves.
func WithMaxConcurrency(n int) Option {
	return func(s *Scheduler) {
		s.maxConcurrency = n
	}
}

// WithCyclePolicy selects the cycle policy.
// Default: CycleFallback.
func WithCyclePolicy(p CyclePolicy) Option {
	return func(s *Scheduler) {
		if p == CycleFallback || p == CycleReject {
			s.cyclePolicy = p
		}
	}
}

// WithProgress registers fn to observe node status changes (running, then
// completed or failed). In ModeWaves fn is called from several goroutines.
func WithProgress(fn func(NodeResult)) Option {
	return func(s *Scheduler) {
		s.progress = fn
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides execution id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewExecutionID returns an id of the form exec_<uuid>.
func NewExecutionID() string {
	return "exec_" + uuid.NewString()
}

// New creates a scheduler that dispatches through d.
func New(d Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		dispatcher:  d,
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		mode:        ModeSequential,
		cyclePolicy: CycleFallback,
		now:         time.Now,
		newID:       NewExecutionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the configured dispatch mode.
func (s *Scheduler) Mode() Mode { return s.mode }

// CyclePolicy returns the configured cycle policy.
func (s *Scheduler) CyclePolicy() CyclePolicy { return s.cyclePolicy }

// History returns the configured history store, or nil.
func (s *Scheduler) History() history.Store { return s.history }
