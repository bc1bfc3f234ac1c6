// Package graph defines the published layout snapshot and its JSON form.
//
// A [Layout] is the read-only result of one layout run: every node with its
// layer and row, every edge with its length and draw order, the overall
// size, and the tech-level layer spans when tech-level layering is on. It is
// the unit that is cached, served by the API, and rendered.
//
// Once built, a Layout is never modified, so it can be shared freely
// between goroutines. Its query methods ([Layout.Ancestors],
// [Layout.Descendants], [Layout.MissingPrerequisites]) follow edges through
// routing nodes and only ever return research node IDs.
//
// # Serialization
//
//	{
//	  "run_id": "4f6c...",
//	  "width": 3,
//	  "height": 3,
//	  "nodes": [{"id": "Smithing", "x": 2, "y": 1, ...}],
//	  "edges": [{"from": "Stonecutting", "to": "Smithing", "length": 0, "draw_order": 0}]
//	}
//
// Use [MarshalLayout] / [UnmarshalLayout] for bytes and [WriteLayoutFile] /
// [ReadLayoutFile] for files. Unmarshalling checks that every edge refers to
// a known node.
package graph
