// Package executor maps node types to the handlers that run them.
//
// An Executor receives the node's configuration and the outputs of its
// completed upstream nodes, keyed by upstream id, and returns an output
// value. The Registry selects an executor by the node's Type, falling back
// to its Category when Type is empty. Unknown types are not an error: they
// produce a Passthrough value echoing the type and inputs.
//
// Executor errors and panics are returned as *ExecutorError so that callers
// can record the failure against the node and carry on with the run.
package executor

import (
	"context"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/randalmurphal/canvasflow/pkg/canvasflow/config"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/graph"
	"github.com/randalmurphal/canvasflow/pkg/canvasflow/palette"
)

// NodeConfig is the executor's view of a node.
type NodeConfig struct {
	ID         graph.NodeID   `json:"id"`
	Type       string         `json:"type"`
	Category   string         `json:"category,omitempty"`
	Title      string         `json:"title,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	// Upstream lists the direct predecessors in connection order.
	Upstream []graph.NodeID `json:"upstream,omitempty"`
}

// ConfigOf builds a NodeConfig from a graph node. Properties are copied.
func ConfigOf(n graph.Node) NodeConfig {
	return NodeConfig{
		ID:         n.ID,
		Type:       n.Type,
		Category:   n.Category,
		Title:      n.Title,
		Properties: palette.CopyProperties(n.Properties),
	}
}

// Key returns the dispatch key: Type, or Category when Type is empty.
func (c NodeConfig) Key() string {
	if c.Type != "" {
		return c.Type
	}
	return c.Category
}

// Props returns typed access to the node's properties.
func (c NodeConfig) Props() config.Values {
	return config.NewValues(c.Properties)
}

// Inputs holds upstream outputs keyed by upstream node id.
type Inputs map[graph.NodeID]any

// IDs returns the upstream ids present in in. Ids listed in order come
// first, in that order; the rest follow by ascending id. Executors pass
// NodeConfig.Upstream to get connection order.
func (in Inputs) IDs(order ...graph.NodeID) []graph.NodeID {
	ids := make([]graph.NodeID, 0, len(in))
	listed := make(map[graph.NodeID]bool, len(order))
	for _, id := range order {
		if _, ok := in[id]; ok && !listed[id] {
			listed[id] = true
			ids = append(ids, id)
		}
	}
	rest := make([]graph.NodeID, 0, len(in)-len(ids))
	for id := range in {
		if !listed[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(ids, rest...)
}

// Ordered returns the input values in IDs(order...) order.
func (in Inputs) Ordered(order ...graph.NodeID) []any {
	ids := in.IDs(order...)
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = in[id]
	}
	return out
}

// First returns the value of IDs(order...)[0].
func (in Inputs) First(order ...graph.NodeID) (any, bool) {
	ids := in.IDs(order...)
	if len(ids) == 0 {
		return nil, false
	}
	return in[ids[0]], true
}

// Executor runs one node.
type Executor interface {
	Execute(ctx context.Context, node NodeConfig, inputs Inputs) (any, error)
}

// Func adapts a function to the Executor interface.
type Func func(ctx context.Context, node NodeConfig, inputs Inputs) (any, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, node NodeConfig, inputs Inputs) (any, error) {
	return f(ctx, node, inputs)
}

// Passthrough is the output for a node type with no registered executor.
type Passthrough struct {
	Type   string `json:"type"`
	Inputs Inputs `json:"inputs"`
}

// Registry is a thread-safe map from node type to executor.
// It uses sync.RWMutex for read-heavy dispatch.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Executor
	aliases map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Executor),
		aliases: make(map[string]string),
	}
}

// Register adds or replaces the executor for typ. Each alias resolves to
// typ on lookup.
func (r *Registry) Register(typ string, exec Executor, aliases ...string) error {
	if typ == "" || exec == nil {
		return ErrInvalidExecutor
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[typ] = exec
	delete(r.aliases, typ)
	for _, a := range aliases {
		if a != "" && a != typ {
			r.aliases[a] = typ
		}
	}
	return nil
}

// RegisterFunc registers fn for typ.
func (r *Registry) RegisterFunc(typ string, fn Func, aliases ...string) error {
	if fn == nil {
		return ErrInvalidExecutor
	}
	return r.Register(typ, fn, aliases...)
}

// Unregister removes typ and any aliases pointing at it.
func (r *Registry) Unregister(typ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, typ)
	for a, target := range r.aliases {
		if target == typ {
			delete(r.aliases, a)
		}
	}
}

// Lookup returns the executor registered for typ or one of its aliases.
func (r *Registry) Lookup(typ string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[typ]; ok {
		return e, true
	}
	if target, ok := r.aliases[typ]; ok {
		e, ok := r.entries[target]
		return e, ok
	}
	return nil, false
}

// Has reports whether typ resolves to an executor.
func (r *Registry) Has(typ string) bool {
	_, ok := r.Lookup(typ)
	return ok
}

// Types returns the registered canonical types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.entries))
	for t := range r.entries {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Dispatch runs the executor for node. Unknown types return a Passthrough.
// Failures, including panics, are returned as *ExecutorError.
func (r *Registry) Dispatch(ctx context.Context, node NodeConfig, inputs Inputs) (out any, err error) {
	key := node.Key()
	exec, ok := r.Lookup(key)
	if !ok {
		return Passthrough{Type: key, Inputs: inputs}, nil
	}

	defer func() {
		if v := recover(); v != nil {
			out = nil
			err = &ExecutorError{
				NodeID: node.ID,
				Type:   key,
				Err: &PanicError{
					NodeID: node.ID,
					Value:  v,
					Stack:  string(debug.Stack()),
				},
			}
		}
	}()

	out, err = exec.Execute(ctx, node, inputs)
	if err != nil {
		return nil, &ExecutorError{NodeID: node.ID, Type: key, Err: err}
	}
	return out, nil
}
