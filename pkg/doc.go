// Package pkg provides the core libraries for techtree research tree layout.
//
// # Overview
//
// techtree places the research of a strategy game on a grid: every research
// sits one or more layers to the right of what it requires, and rows inside
// each layer are ordered to keep prerequisite edges short and uncrossed.
//
// # Architecture
//
// The typical data flow:
//
//	Definitions (file, URL, MongoDB)
//	         ↓
//	    [defs] package (load research records)
//	         ↓
//	    [builder] package (validate, hide, link into a DAG)
//	         ↓
//	    [layout] package (layer, order, place)
//	         ↓
//	    [graph] package (immutable layout snapshot)
//	         ↓
//	    [render] package (SVG, DOT, JSON)
//
// [pipeline] runs these steps with caching, and [tree] keeps the current
// layout of a long-running process up to date.
//
// # Quick Start
//
//	records, _ := defs.Decode(data, defs.FormatTOML)
//	g, report, _ := builder.Build(records, builder.Options{}, nil)
//	res, _ := layout.New(layout.DefaultOptions(), nil).Run(ctx, g)
//	l := graph.FromResult(res, report, "run-1")
//	svg, _ := render.Render(ctx, l, render.FormatSVG, render.Options{})
//
// # Main Packages
//
// ## Domain
//
// [research] - Research records and tech levels.
//
// [dag] - Layered directed graph of research and routing dummies, with
// crossing counts per layer pair.
//
// [dag/transform] - Cycle handling, transitive reduction, layering and
// long edge subdivision.
//
// [layout] - The layout engine: partitioning, crossing minimization and
// row placement.
//
// ## Infrastructure
//
// [config] - Settings from TOML or YAML files.
//
// [cache] - Layout and render caching: file, Redis and null backends.
//
// [httputil] - HTTP fetching with retries and a file-backed response cache.
//
// [observability] - Hooks for layout phases, cache hits and HTTP requests.
//
// [errors] - Error codes shared by the CLI and the API server.
package pkg
