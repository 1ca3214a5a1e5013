package canvasflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/executor"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/geom"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/history"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/interaction"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/observability"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/persist"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/render"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/scheduler"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/viewport"
)

// DefaultGraphID names the session graph when none is configured.
const DefaultGraphID = "default"

const defaultNoticeBuffer = 16

// Session is one editor with its execution pipeline. It is not safe for
// concurrent use, except for Push and Notices.
type Session struct {
	graphID  string
	catalog  *palette.Catalog
	store    *graph.Store
	view     *viewport.Controller
	machine  *interaction.Machine
	surface  *render.Surface
	registry *executor.Registry
	sched    *scheduler.Scheduler
	persist  persist.Store
	history  history.Store
	logger   *slog.Logger
	autosave bool
	notices  chan Notice
	now      func() time.Time

	viewOpts    []viewport.Option
	surfaceOpts []render.Option
	machineOpts []interaction.Option
	schedOpts   []scheduler.Option
	noticeCap   int
}

// Option configures a Session.
type Option func(*Session)

// WithGraphID names the graph used for persistence and history.
func WithGraphID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.graphID = id
		}
	}
}

// WithCatalog sets the node palette.
// Default: palette.Default().
func WithCatalog(c *palette.Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

// WithRegistry sets the executor registry.
// Default: executor.NewBuiltinRegistry().
func WithRegistry(r *executor.Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithScheduler uses a prebuilt scheduler. Its history store, if any,
// becomes the session history store.
func WithScheduler(sched *scheduler.Scheduler) Option {
	return func(s *Session) { s.sched = sched }
}

// WithSchedulerOptions passes options to the scheduler the session builds.
// Ignored when WithScheduler is used.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(s *Session) { s.schedOpts = append(s.schedOpts, opts...) }
}

// WithPersistence sets the graph state store.
// Default: persist.NewMemoryStore().
func WithPersistence(p persist.Store) Option {
	return func(s *Session) { s.persist = p }
}

// WithHistory sets the execution history store.
// Default: history.NewMemoryStore().
func WithHistory(h history.Store) Option {
	return func(s *Session) { s.history = h }
}

// WithLogger sets the session logger. It is shared with the state machine
// and the scheduler.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithAutosave saves after every committed structural change.
func WithAutosave(on bool) Option {
	return func(s *Session) { s.autosave = on }
}

// WithViewportOptions passes options to the viewport controller.
func WithViewportOptions(opts ...viewport.Option) Option {
	return func(s *Session) { s.viewOpts = append(s.viewOpts, opts...) }
}

// WithSurfaceOptions passes options to the render surface.
func WithSurfaceOptions(opts ...render.Option) Option {
	return func(s *Session) { s.surfaceOpts = append(s.surfaceOpts, opts...) }
}

// WithMachineOptions passes options to the interaction state machine.
func WithMachineOptions(opts ...interaction.Option) Option {
	return func(s *Session) { s.machineOpts = append(s.machineOpts, opts...) }
}

// WithNoticeBuffer sets how many notices are kept before new ones are
// dropped.
func WithNoticeBuffer(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.noticeCap = n
		}
	}
}

// NewSession builds a session and wires its components together.
func NewSession(opts ...Option) *Session {
	s := &Session{
		graphID:   DefaultGraphID,
		noticeCap: defaultNoticeBuffer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.catalog == nil {
		s.catalog = palette.Default()
	}
	if s.registry == nil {
		s.registry = executor.NewBuiltinRegistry()
	}
	if s.persist == nil {
		s.persist = persist.NewMemoryStore()
	}
	if s.history == nil && s.sched != nil {
		s.history = s.sched.History()
	}
	if s.history == nil {
		s.history = history.NewMemoryStore()
	}
	if s.sched == nil {
		base := []scheduler.Option{
			scheduler.WithHistory(s.history),
			scheduler.WithLogger(s.logger),
		}
		s.sched = scheduler.New(s.registry, append(base, s.schedOpts...)...)
	}
	s.notices = make(chan Notice, s.noticeCap)

	s.store = graph.NewStore(graph.WithCatalog(s.catalog))
	s.view = viewport.New(append(s.viewOpts, viewport.WithOnChange(func(viewport.State) {
		if s.surface != nil {
			s.surface.MarkDirty()
		}
	}))...)

	machineOpts := append([]interaction.Option{
		interaction.WithLogger(s.logger),
	}, s.machineOpts...)
	machineOpts = append(machineOpts, interaction.WithHooks(interaction.Hooks{
		OnSave:   s.saveFromKey,
		OnCommit: s.onCommit,
		OnChange: func() {
			if s.surface != nil {
				s.surface.MarkDirty()
			}
		},
	}))
	s.machine = interaction.NewMachine(s.store, s.view, machineOpts...)
	s.surface = render.NewSurface(s.store, s.view,
		append([]render.Option{render.WithOverlay(s.machine)}, s.surfaceOpts...)...)
	return s
}

// GraphID returns the session graph id.
func (s *Session) GraphID() string { return s.graphID }

// Catalog returns the node palette.
func (s *Session) Catalog() *palette.Catalog { return s.catalog }

// Store returns the graph store.
func (s *Session) Store() *graph.Store { return s.store }

// Viewport returns the viewport controller.
func (s *Session) Viewport() *viewport.Controller { return s.view }

// Machine returns the interaction state machine.
func (s *Session) Machine() *interaction.Machine { return s.machine }

// Surface returns the render surface.
func (s *Session) Surface() *render.Surface { return s.surface }

// Registry returns the executor registry.
func (s *Session) Registry() *executor.Registry { return s.registry }

// Scheduler returns the execution scheduler.
func (s *Session) Scheduler() *scheduler.Scheduler { return s.sched }

// Notices returns the notice channel. Notices are dropped when it is full.
func (s *Session) Notices() <-chan Notice { return s.notices }

// Push enqueues input events for the next Tick. Safe for concurrent use.
func (s *Session) Push(events ...interaction.Event) {
	s.machine.Push(events...)
}

// Tick drains the input queue through the state machine, then refreshes
// the surface. The frame is only valid when ok is true.
func (s *Session) Tick() (frame render.Frame, ok bool) {
	s.machine.Tick()
	return s.surface.Refresh()
}

// AddNode drops a node from the palette, centred on the world point under
// screen. The new node becomes the selection.
func (s *Session) AddNode(templateID string, screen geom.Point) (graph.Node, error) {
	tmpl, err := s.catalog.Get(templateID)
	if err != nil {
		return graph.Node{}, &graph.InputError{Op: "add", Err: err}
	}
	w, h := tmpl.Size()
	world := s.view.ScreenToWorld(screen)
	n, err := s.store.AddNode(tmpl, geom.Pt(world.X-w/2, world.Y-h/2))
	if err != nil {
		return graph.Node{}, err
	}
	s.store.Select(n.ID)
	s.surface.MarkDirty()
	s.onCommit(interaction.Commit{Kind: CommitAdd, Nodes: []graph.NodeID{n.ID}})
	return n, nil
}

// CommitAdd is the commit kind for nodes dropped from the palette.
const CommitAdd interaction.CommitKind = "add"

// Connect links two nodes, as the connection tool would.
func (s *Session) Connect(src, dst graph.NodeID, typ graph.ConnectionType) (graph.Connection, error) {
	c, ok := s.store.AddConnection(src, dst, 0, 0, typ)
	if !ok {
		return graph.Connection{}, &graph.InputError{Op: "connect", NodeID: src, Err: s.store.CanConnect(src, dst)}
	}
	s.onCommit(interaction.Commit{Kind: interaction.CommitConnect, Nodes: []graph.NodeID{src, dst}})
	return c, nil
}

func (s *Session) onCommit(interaction.Commit) {
	s.surface.MarkDirty()
	if s.autosave {
		_ = s.Save(context.Background())
	}
}

func (s *Session) saveFromKey() {
	_ = s.Save(context.Background())
}

// Save writes the graph and viewport to the persistence store.
func (s *Session) Save(ctx context.Context) error {
	state := persist.NewState(s.graphID, s.store.Snapshot(), s.view.State())
	if err := s.persist.Save(ctx, state); err != nil {
		return s.persistFailed("save", err)
	}
	s.publish(Notice{Level: slog.LevelInfo, Op: "save", Message: fmt.Sprintf("saved %s", s.graphID)})
	return nil
}

// Load replaces the graph and viewport with the saved state. On failure
// the current graph is kept.
func (s *Session) Load(ctx context.Context) error {
	state, err := s.persist.Load(ctx, s.graphID)
	if err != nil {
		return s.persistFailed("load", err)
	}
	s.machine.Cancel()
	dropped, err := s.store.Restore(state.Snapshot())
	if err != nil {
		return s.persistFailed("load", err)
	}
	if dropped > 0 && s.logger != nil {
		s.logger.Warn("dropped invalid connections on load",
			slog.String("graph_id", s.graphID),
			slog.Int("dropped", dropped),
		)
	}
	s.view.Restore(state.Viewport)
	s.surface.MarkDirty()
	s.publish(Notice{Level: slog.LevelInfo, Op: "load", Message: fmt.Sprintf("loaded %s", s.graphID)})
	return nil
}

func (s *Session) persistFailed(op string, err error) error {
	perr := &PersistenceError{Op: op, GraphID: s.graphID, Err: err}
	observability.LogPersistError(s.logger, s.graphID, op, err)
	s.publish(Notice{Level: slog.LevelWarn, Op: op, Message: perr.Error(), Err: perr})
	return perr
}

func (s *Session) publish(n Notice) {
	n.At = s.now()
	select {
	case s.notices <- n:
	default:
	}
}

// Execute runs the current graph. The snapshot is taken before Execute
// returns control to any executor, so later edits do not affect the run.
func (s *Session) Execute(ctx context.Context) (*scheduler.Result, error) {
	return s.sched.Execute(ctx, s.graphID, s.store.Snapshot())
}

// Execution is the outcome of ExecuteAsync.
type Execution struct {
	Result *scheduler.Result
	Err    error
}

// ExecuteAsync snapshots the graph now and runs it on another goroutine.
// The channel receives one Execution and is then closed.
func (s *Session) ExecuteAsync(ctx context.Context) <-chan Execution {
	snap := s.store.Snapshot()
	out := make(chan Execution, 1)
	go func() {
		defer close(out)
		res, err := s.sched.Execute(ctx, s.graphID, snap)
		out <- Execution{Result: res, Err: err}
	}()
	return out
}

// ApplyResult copies run outcomes onto the graph: completed nodes become
// done, failed nodes go back to todo. Nodes deleted since the run are
// skipped.
func (s *Session) ApplyResult(res *scheduler.Result) int {
	if res == nil {
		return 0
	}
	changed := 0
	for _, nr := range res.Nodes {
		status := graph.StatusTodo
		if nr.Status == scheduler.NodeCompleted {
			status = graph.StatusDone
		}
		if err := s.store.SetStatus(nr.NodeID, status); err == nil {
			changed++
		}
	}
	if changed > 0 {
		s.surface.MarkDirty()
	}
	return changed
}

// History returns recent results for the session graph, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]*scheduler.Result, error) {
	recs, err := s.history.List(ctx, s.graphID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	out := make([]*scheduler.Result, 0, len(recs))
	for _, rec := range recs {
		r, err := scheduler.DecodeResult(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Close releases the persistence and history stores.
func (s *Session) Close() error {
	return errors.Join(s.persist.Close(), s.history.Close())
}
