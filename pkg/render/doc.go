// Package render draws finished layouts.
//
// [DOT] writes a Graphviz document in which every node is pinned to its
// layer and row, so the drawing shows exactly the computed layout. [SVG]
// renders that document with the neato engine of go-graphviz, which honours
// pinned positions. Dummy nodes become invisible bend points so that long
// prerequisite edges appear as polylines.
//
//	dot := render.DOT(l, render.Options{})
//	svg, err := render.SVG(ctx, l, render.Options{})
package render
