// Package layout computes row and layer positions for a research graph.
//
// [Engine.Run] takes a graph produced by the builder and runs the layout
// phases in order:
//
//  1. Layering: density mode places each node one layer past its deepest
//     prerequisite; tech-level mode lays out tech levels left to right and
//     reports the layer span of each level.
//  2. Normalization: edges spanning several layers become dummy chains.
//  3. Partitioning: first-layer nodes without successors are packed into a
//     grid at the top, large sources may be split into their own groups,
//     and every group is split into connected components. Each component is
//     a unit laid out on its own.
//  4. Crossing minimization per unit: barycenter sweeps and greedy pairwise
//     swaps until the crossing count stops improving.
//  5. Edge-length minimization per unit: local and global sweeps that move
//     nodes to shorten edges without adding crossings.
//  6. Stacking: units are placed below each other, layer by layer, without
//     overlapping.
//  7. Compaction: empty rows are removed so rows run from 1 without gaps.
//
// Every loop stops after a configurable number of iterations without
// improvement and keeps the best arrangement it has seen. All orderings fall
// back to [dag.Compare], so the same input always produces the same layout.
package layout
