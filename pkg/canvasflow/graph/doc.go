/*
Package graph implements the Graph Store: the node and connection
collections, the selection set and every structural mutation the editor
performs on them.

# Model

A Node carries an immutable NodeID assigned from a monotonic counter. Ids are
never reused within a Store, and Restore seeds the counter above the highest
restored id so they stay unique across save/load. Geometry is in world
coordinates. Layer is the explicit z-order: higher layers draw on top and
win hit tests. New and duplicated nodes are placed on a fresh top layer.

A Connection links two present nodes. The store keeps three invariants:

  - both endpoints of every connection are present;
  - no connection has Source == Target;
  - the selection is a subset of present node ids.

DeleteNodes cascades to incident connections and prunes the selection.
AddConnection is a silent no-op (ok == false) when the endpoints are equal,
absent or already connected on the same ports.

# Properties

Node properties are validated against the schema of the palette template
the node was created from. Templates are remembered by node type when a node
is added, and a Catalog passed with WithCatalog resolves types of restored
nodes.

# Snapshots

Snapshot returns a deep copy of nodes (in insertion order) and connections
(in id order). The scheduler runs against a snapshot, so edits made while a
run is in flight do not affect it.

# Concurrency

A Store has exactly one mutator, the interactive session. It is not safe for
concurrent use; snapshots are the supported way to hand data to other
goroutines.
*/
package graph
