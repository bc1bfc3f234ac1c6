// Package research defines the prerequisite-definition records consumed by
// the layout engine and the relation queries over them.
//
// A [Record] is one research project as supplied by the definition source:
// an identifier, its direct prerequisites, an ordered [TechLevel], and the
// source (content pack) that owns it. Records are plain values; the layout
// engine never mutates them; adjustments such as tech-level repair live on
// the graph nodes that wrap them.
//
// [Index] answers ancestor and descendant queries with iterative walks that
// de-duplicate visited records and tolerate self-references and cycles, so
// it is safe to call on unvalidated input.
package research
