package scheduler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/history"
)

func TestResult_JSONFieldNames(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &Result{
		ID:      "exec_1",
		GraphID: "graph-1",
		Status:  StatusPartial,
		Mode:    ModeSequential,
		Nodes: []NodeResult{{
			NodeID: 7, Type: "output", Status: NodeFailed, Error: "boom",
			StartedAt: start, CompletedAt: start.Add(3 * time.Millisecond), Duration: 3 * time.Millisecond,
		}},
		Order:       []graph.NodeID{7},
		TotalNodes:  1,
		FailedNodes: 1,
		StartedAt:   start,
		CompletedAt: start.Add(5 * time.Millisecond),
		Duration:    5 * time.Millisecond,
	}

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "exec_1", doc["execution_id"])
	assert.Equal(t, "graph-1", doc["graph_id"])
	assert.Equal(t, 1.0, doc["total_nodes"])
	assert.Equal(t, 1.0, doc["failed_nodes"])
	assert.Equal(t, 5.0, doc["total_execution_time_ms"])
	assert.NotContains(t, doc, "cycle_fallback")

	nodes := doc["results"].([]any)
	n := nodes[0].(map[string]any)
	assert.Equal(t, 7.0, n["node_id"])
	assert.Equal(t, 3.0, n["execution_time_ms"])
	assert.Equal(t, "boom", n["error"])

	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, res.Duration, back.Duration)
	assert.Equal(t, res.Nodes[0].Duration, back.Nodes[0].Duration)
	assert.Equal(t, res.Order, back.Order)
}

func TestEncodeDecodeResult(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &Result{
		ID: "exec_2", GraphID: "g", Status: StatusCompleted, Mode: ModeWaves,
		TotalNodes: 2, CompletedNodes: 2,
		StartedAt: start, CompletedAt: start.Add(time.Second), Duration: time.Second,
		Nodes: []NodeResult{
			{NodeID: 1, Status: NodeCompleted, Output: "x"},
			{NodeID: 2, Status: NodeCompleted, Output: "y", Wave: 1},
		},
	}

	rec, err := EncodeResult(res)
	require.NoError(t, err)
	assert.Equal(t, "exec_2", rec.ID)
	assert.Equal(t, "completed", rec.Status)
	assert.Equal(t, int64(1000), rec.DurationMs)

	back, err := DecodeResult(rec)
	require.NoError(t, err)
	assert.Equal(t, ModeWaves, back.Mode)
	assert.Equal(t, "y", back.Nodes[1].Output)
	assert.Equal(t, 1, back.Nodes[1].Wave)
}

func TestDecodeResult_SummaryOnly(t *testing.T) {
	rec := history.Record{ID: "exec_3", GraphID: "g", Status: "failed", TotalNodes: 2, FailedNodes: 2, DurationMs: 40}
	back, err := DecodeResult(rec)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, back.Status)
	assert.Equal(t, 40*time.Millisecond, back.Duration)
	assert.Empty(t, back.Nodes)

	_, err = DecodeResult(history.Record{ID: "bad", Data: json.RawMessage("{")})
	assert.Error(t, err)
}

func TestCycleError(t *testing.T) {
	err := &CycleError{Nodes: []graph.NodeID{1, 2}}
	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.Contains(t, err.Error(), ErrCycleDetected.Error())
}
