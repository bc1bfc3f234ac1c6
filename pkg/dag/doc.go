// Package dag provides the layered graph model of the research-tree layout
// engine.
//
// # Overview
//
// A [DAG] owns the nodes and edges of exactly one layout run. It is rebuilt
// from the definition records every time a layout is computed, and nothing
// in it outlives that run except the coordinates copied into the published
// snapshot.
//
// # Node Kinds
//
// [Node] is a tagged variant with shared positional fields (X, Yf, incident
// edges) and a kind-specific payload:
//
//   - [KindResearch]: wraps exactly one [research.Record]. Its identity is
//     the record ID, so external references survive rebuilds.
//   - [KindDummy]: a routing waypoint inserted by normalization. It records
//     the research endpoints (Master, Target) of the long edge it carries.
//
// Use [DAG.NodeFor] to resolve a record to its node; it reports false for
// records that were hidden, locked, or otherwise produced no node.
//
// # Layers and Rows
//
// X is the layer (horizontal tier, 1-based). For every edge A→B, A.X < B.X.
// After normalization every edge connects adjacent layers. Yf is the row
// position within a layer; [Node.Y] rounds it to the integer row.
//
// # Edge Crossings
//
// [CountCrossings] counts inversions between the edges of one layer
// boundary in O(E log E) using a Fenwick tree.
//
// # Ordering
//
// [Compare] is the deterministic tie-breaker used wherever node order would
// otherwise be ambiguous: research before dummy, then tech level, then
// source, then ID.
//
// # Concurrency
//
// DAG is not safe for concurrent use. A layout run owns its graph
// exclusively.
package dag
