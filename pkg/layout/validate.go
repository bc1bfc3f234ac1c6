package layout

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// IssueKind classifies a problem found by [Validate].
type IssueKind string

const (
	IssueDuplicatePosition IssueKind = "duplicate_position"
	IssueOutOfBounds       IssueKind = "out_of_bounds"
	IssueLayerOrder        IssueKind = "layer_order"
	IssueSpan              IssueKind = "span"
	IssueEmptyRow          IssueKind = "empty_row"
)

// Issue is one problem in a finished layout.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Nodes   []string  `json:"nodes,omitempty"`
	Message string    `json:"message"`
}

func (i Issue) String() string { return string(i.Kind) + ": " + i.Message }

// Validate checks a finished layout: no two nodes share a position, every
// node lies within the reported size, every edge connects adjacent layers in
// order, and every row between 1 and the last occupied row is used. It
// returns nil for a clean layout.
func Validate(r *Result) []Issue {
	var issues []Issue
	g := r.Graph

	type pos struct{ x, y int }
	at := make(map[pos][]string)
	occupied := make(map[int]bool)
	maxRow := 0
	for _, n := range g.Nodes() {
		p := pos{n.X, n.Y()}
		at[p] = append(at[p], n.ID)
		occupied[p.y] = true
		maxRow = max(maxRow, p.y)
		if n.X < 1 || n.X > r.Width || n.Y() < 1 || n.Y() >= r.Height {
			issues = append(issues, Issue{
				Kind:    IssueOutOfBounds,
				Nodes:   []string{n.ID},
				Message: fmt.Sprintf("%s at (%d, %d) outside %dx%d", n.ID, n.X, n.Y(), r.Width, r.Height),
			})
		}
	}

	positions := make([]pos, 0, len(at))
	for p := range at {
		positions = append(positions, p)
	}
	slices.SortFunc(positions, func(a, b pos) int {
		if c := cmp.Compare(a.x, b.x); c != 0 {
			return c
		}
		return cmp.Compare(a.y, b.y)
	})
	for _, p := range positions {
		if ids := at[p]; len(ids) > 1 {
			slices.Sort(ids)
			issues = append(issues, Issue{
				Kind:    IssueDuplicatePosition,
				Nodes:   ids,
				Message: fmt.Sprintf("(%d, %d) holds %s", p.x, p.y, strings.Join(ids, ", ")),
			})
		}
	}

	for _, e := range g.Edges() {
		switch {
		case e.In.X >= e.Out.X:
			issues = append(issues, Issue{
				Kind:    IssueLayerOrder,
				Nodes:   []string{e.In.ID, e.Out.ID},
				Message: fmt.Sprintf("%s goes from layer %d to %d", e, e.In.X, e.Out.X),
			})
		case e.Span() != 1:
			issues = append(issues, Issue{
				Kind:    IssueSpan,
				Nodes:   []string{e.In.ID, e.Out.ID},
				Message: fmt.Sprintf("%s spans %d layers", e, e.Span()),
			})
		}
	}

	for y := 1; y <= maxRow; y++ {
		if !occupied[y] {
			issues = append(issues, Issue{
				Kind:    IssueEmptyRow,
				Message: fmt.Sprintf("row %d is empty", y),
			})
		}
	}
	return issues
}
