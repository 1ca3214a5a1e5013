package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/executor"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/observability"
)

// Execute runs snap to completion and returns the result. Node failures are
// recorded in the result and never returned as an error. The only error is
// a *CycleError under CycleReject, before anything runs.
//
// The snapshot is only read. ctx is passed to executors; once it is done,
// nodes not yet started are recorded as failed with the context error.
func (s *Scheduler) Execute(ctx context.Context, graphID string, snap graph.Snapshot) (*Result, error) {
	plan := Order(snap)
	if plan.HasCycle() && s.cyclePolicy == CycleReject {
		return nil, &CycleError{Nodes: plan.Residual}
	}

	res := &Result{
		ID:        s.newID(),
		GraphID:   graphID,
		Mode:      s.mode,
		Order:     plan.Order,
		StartedAt: s.now(),
	}
	if plan.HasCycle() {
		res.CycleFallback = plan.Residual
		ids := make([]int64, len(plan.Residual))
		for i, id := range plan.Residual {
			ids[i] = int64(id)
		}
		observability.LogCycleFallback(s.logger, res.ID, ids)
	}

	observability.LogRunStart(s.logger, res.ID, graphID, len(snap.Nodes))

	var runSpan trace.Span
	execCtx := ctx
	if s.tracingEnabled {
		execCtx, runSpan = s.spans.StartRunSpan(ctx, graphID, res.ID)
	}

	r := &run{
		s:       s,
		plan:    plan,
		nodes:   make(map[graph.NodeID]graph.Node, len(snap.Nodes)),
		outputs: make(map[graph.NodeID]any, len(snap.Nodes)),
	}
	for _, n := range snap.Nodes {
		r.nodes[n.ID] = n
	}

	if s.mode == ModeWaves {
		res.Nodes = r.waves(execCtx)
	} else {
		res.Nodes = r.sequential(execCtx)
	}

	res.CompletedAt = s.now()
	res.Duration = res.CompletedAt.Sub(res.StartedAt)
	res.aggregate()

	s.metrics.RecordRun(ctx, string(res.Status), res.Duration)
	if s.tracingEnabled {
		var spanErr error
		if res.FailedNodes > 0 {
			spanErr = fmt.Errorf("%d of %d nodes failed", res.FailedNodes, res.TotalNodes)
		}
		s.spans.EndSpanWithError(runSpan, spanErr)
	}
	observability.LogRunComplete(s.logger, res.ID, string(res.Status),
		float64(res.Duration.Microseconds())/1000, res.CompletedNodes, res.FailedNodes)

	s.record(ctx, res)
	return res, nil
}

func (s *Scheduler) record(ctx context.Context, res *Result) {
	if s.history == nil {
		return
	}
	rec, err := EncodeResult(res)
	if err == nil {
		err = s.history.Append(ctx, rec)
	}
	if err != nil {
		s.metrics.RecordHistoryError(ctx, "append")
		observability.LogHistoryError(s.logger, res.ID, "append", err)
	}
}

// run is the per-execution state.
type run struct {
	s     *Scheduler
	plan  Plan
	nodes map[graph.NodeID]graph.Node

	mu      sync.RWMutex
	outputs map[graph.NodeID]any
}

func (r *run) sequential(ctx context.Context) []NodeResult {
	waveOf := make(map[graph.NodeID]int, len(r.plan.Order))
	for w, ids := range r.plan.Stages() {
		for _, id := range ids {
			waveOf[id] = w
		}
	}
	results := make([]NodeResult, 0, len(r.plan.Order))
	for _, id := range r.plan.Order {
		nr := r.node(ctx, id, waveOf[id])
		r.publish(nr)
		results = append(results, nr)
	}
	return results
}

func (r *run) waves(ctx context.Context) []NodeResult {
	results := make([]NodeResult, 0, len(r.plan.Order))
	for w, ids := range r.plan.Stages() {
		batch := make([]NodeResult, len(ids))
		var g errgroup.Group
		if r.s.maxConcurrency > 0 {
			g.SetLimit(r.s.maxConcurrency)
		}
		for i, id := range ids {
			g.Go(func() error {
				batch[i] = r.node(ctx, id, w)
				return nil
			})
		}
		_ = g.Wait()
		for _, nr := range batch {
			r.publish(nr)
		}
		results = append(results, batch...)
	}
	return results
}

// publish makes a completed node's output visible to its successors.
func (r *run) publish(nr NodeResult) {
	if nr.Status != NodeCompleted {
		return
	}
	r.mu.Lock()
	r.outputs[nr.NodeID] = nr.Output
	r.mu.Unlock()
}

// inputs collects outputs of completed direct predecessors.
func (r *run) inputs(id graph.NodeID) executor.Inputs {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in := executor.Inputs{}
	for _, pred := range r.plan.Predecessors[id] {
		if out, ok := r.outputs[pred]; ok {
			in[pred] = out
		}
	}
	return in
}

func (r *run) node(ctx context.Context, id graph.NodeID, wave int) NodeResult {
	s := r.s
	n := r.nodes[id]
	cfg := executor.ConfigOf(n)
	cfg.Upstream = append([]graph.NodeID(nil), r.plan.Predecessors[id]...)
	nr := NodeResult{NodeID: id, Type: cfg.Key(), Status: NodePending, Wave: wave}

	if err := ctx.Err(); err != nil {
		now := s.now()
		nr.Status, nr.Err, nr.Error = NodeFailed, err, err.Error()
		nr.StartedAt, nr.CompletedAt = now, now
		s.notify(nr)
		observability.LogNodeError(s.logger, int64(id), nr.Type, err)
		return nr
	}

	inputs := r.inputs(id)
	observability.LogNodeStart(s.logger, int64(id), nr.Type)

	nodeCtx := ctx
	var span trace.Span
	if s.tracingEnabled {
		nodeCtx, span = s.spans.StartNodeSpan(ctx, int64(id), nr.Type)
	}

	nr.StartedAt = s.now()
	nr.Status = NodeRunning
	s.notify(nr)

	out, err := s.dispatcher.Dispatch(nodeCtx, cfg, inputs)

	nr.CompletedAt = s.now()
	nr.Duration = nr.CompletedAt.Sub(nr.StartedAt)
	s.metrics.RecordNodeExecution(nodeCtx, nr.Type, nr.Duration, err)
	if s.tracingEnabled {
		s.spans.EndSpanWithError(span, err)
	}

	if err != nil {
		nr.Status, nr.Err, nr.Error = NodeFailed, err, failureMessage(err)
		observability.LogNodeError(s.logger, int64(id), nr.Type, err)
	} else {
		nr.Status, nr.Output = NodeCompleted, out
		observability.LogNodeComplete(s.logger, int64(id), nr.Type,
			float64(nr.Duration.Microseconds())/1000)
	}
	s.notify(nr)
	return nr
}

func (s *Scheduler) notify(nr NodeResult) {
	if s.progress != nil {
		s.progress(nr)
	}
}

// failureMessage strips the executor wrapper so the recorded message is
// what the handler reported.
func failureMessage(err error) string {
	var execErr *executor.ExecutorError
	if errors.As(err, &execErr) && execErr.Err != nil {
		return execErr.Err.Error()
	}
	return err.Error()
}
