// Package transform provides the graph passes that prepare a research DAG
// for ordering.
//
// The passes run in this order:
//
//   - [TransitiveReduction] removes prerequisite edges implied by another
//     direct prerequisite, so edges carry only immediate precedence.
//   - [DetectCycles] refuses graphs that cannot be topologically ordered.
//   - [AssignLayersByDensity] or [AssignLayersByTechLevel] assigns the
//     integer layer X so that every edge points to a later layer.
//   - [Normalize] replaces long edges with chains of dummy nodes, so every
//     edge connects adjacent layers.
//   - [CollapseDummies] optionally merges dummies with identical parent or
//     child sets to reduce routing nodes.
//
// # Layering Modes
//
// Density mode packs nodes as far left as their prerequisites allow. Tech
// level mode keeps every tech level in its own contiguous span of layers
// and reports those spans as [LevelBounds] so renderers can draw level
// separators.
package transform
