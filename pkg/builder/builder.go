// Package builder converts prerequisite-definition records into the layout
// graph.
//
// Build runs the exclusion and adjustment passes over an immutable record
// index first, and only then creates nodes and edges, so no traversal ever
// observes a prerequisite list that is being edited.
package builder

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/dag"
	"github.com/matzehuels/techtree/pkg/dag/transform"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/research"
)

// Options controls which records become nodes.
type Options struct {
	// MaxTechLevel hides records above this level when HideDisallowed is
	// set. Undefined disables the cutoff.
	MaxTechLevel   research.TechLevel
	HideDisallowed bool

	// IncludeHidden merges each record's hidden prerequisites into its
	// visible ones before anything else runs.
	IncludeHidden bool

	// StrictCycles turns prerequisite cycles that are not plain
	// self-references into an error instead of hiding their members.
	StrictCycles bool
}

// Repair records one tech-level adjustment.
type Repair struct {
	ID   string             `json:"id"`
	From research.TechLevel `json:"from"`
	To   research.TechLevel `json:"to"`
}

// Report describes what Build excluded or adjusted.
type Report struct {
	Hidden     []string `json:"hidden,omitempty"`
	Locked     []string `json:"locked,omitempty"`
	Disallowed []string `json:"disallowed,omitempty"`
	Cycles     []string `json:"cycles,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
	Unresolved []string `json:"unresolved,omitempty"`
	Redundant  int      `json:"redundant"`
	Repairs    []Repair `json:"repairs,omitempty"`

	// Index is the record index the build ran against.
	Index *research.Index `json:"-"`
}

// Build creates one research node per visible record and one edge per
// surviving direct prerequisite.
//
// Records that list themselves as a prerequisite, directly or through an
// ancestor chain, are hidden. Records above the allowed tech level are
// hidden too when configured. Any record with a hidden ancestor is locked.
// Both exclusions are silent apart from the report. Unknown prerequisite
// references are skipped.
//
// Build then removes redundant prerequisite edges and raises every node's
// tech level to at least that of its prerequisites.
func Build(records []*research.Record, opts Options, logger *log.Logger) (*dag.DAG, *Report, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	for i, r := range records {
		if r == nil {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "record %d is nil", i)
		}
		if err := errors.ValidateRecordID(r.ID); err != nil {
			return nil, nil, err
		}
		if !r.TechLevel.Valid() {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "record %s has invalid tech level %d", r.ID, int(r.TechLevel))
		}
	}

	idx, dups := research.NewIndex(records, opts.IncludeHidden)
	report := &Report{Duplicates: dups, Index: idx}
	for _, id := range dups {
		logger.Warn("duplicate record ignored", "id", id)
	}

	hidden := make(map[string]bool)
	for _, r := range idx.Records() {
		switch {
		case r.ListsItself(opts.IncludeHidden):
			hidden[r.ID] = true
			report.Hidden = append(report.Hidden, r.ID)
		case idx.OnCycle(r.ID):
			hidden[r.ID] = true
			report.Cycles = append(report.Cycles, r.ID)
		case opts.HideDisallowed && opts.MaxTechLevel != research.Undefined && r.TechLevel > opts.MaxTechLevel:
			hidden[r.ID] = true
			report.Disallowed = append(report.Disallowed, r.ID)
		}
	}
	if len(report.Cycles) > 0 {
		if opts.StrictCycles {
			return nil, report, errors.New(errors.ErrCodeCycle, "prerequisite cycle through %v", report.Cycles)
		}
		logger.Warn("records on prerequisite cycles hidden", "count", len(report.Cycles), "ids", report.Cycles)
	}

	visible := make([]*research.Record, 0, idx.Len())
	for _, r := range idx.Records() {
		if hidden[r.ID] {
			continue
		}
		if slices.ContainsFunc(idx.Ancestors(r.ID), func(a string) bool { return hidden[a] }) {
			report.Locked = append(report.Locked, r.ID)
			continue
		}
		visible = append(visible, r)
	}
	logger.Debug("records classified",
		"visible", len(visible), "hidden", len(report.Hidden), "locked", len(report.Locked),
		"disallowed", len(report.Disallowed), "cycles", len(report.Cycles))

	g := dag.New()
	for _, r := range visible {
		n := &dag.Node{
			ID:     r.ID,
			Kind:   dag.KindResearch,
			Yf:     r.Hint + 1,
			Level:  r.TechLevel,
			Record: r,
		}
		if err := g.AddNode(n); err != nil {
			return nil, report, errors.Wrap(errors.ErrCodeInternal, err, "add node")
		}
	}
	for _, r := range visible {
		for _, p := range r.EffectivePrerequisites(opts.IncludeHidden) {
			if _, ok := g.Node(p); !ok {
				if _, known := idx.Lookup(p); !known {
					report.Unresolved = append(report.Unresolved, fmt.Sprintf("%s -> %s", r.ID, p))
				}
				continue
			}
			if _, err := g.AddEdge(p, r.ID); err != nil {
				return nil, report, errors.Wrap(errors.ErrCodeInternal, err, "add edge")
			}
		}
	}

	if err := transform.DetectCycles(g); err != nil {
		return nil, report, errors.Wrap(errors.ErrCodeCycle, err, "prerequisite graph is not acyclic")
	}

	report.Redundant = transform.TransitiveReduction(g)
	if report.Redundant > 0 {
		logger.Debug("redundant prerequisites removed", "count", report.Redundant)
	}

	repairs, err := RepairTechLevels(g)
	report.Repairs = repairs
	for _, rp := range repairs {
		logger.Warn("tech level lower than a prerequisite; raised", "id", rp.ID, "from", rp.From, "to", rp.To)
	}
	if err != nil {
		return nil, report, err
	}
	return g, report, nil
}

// RepairTechLevels raises each research node's level to the maximum of its
// prerequisites' levels, re-queueing the descendants of every adjusted node
// until a fixed point is reached. Levels only ever increase and are bounded
// by the highest level present, so an acyclic graph always converges; the
// step guard turns a corrupted graph into an error instead of a hang.
func RepairTechLevels(g *dag.DAG) ([]Repair, error) {
	nodes := g.ResearchNodes()
	queue := slices.Clone(nodes)
	limit := (len(nodes) + 1) * (len(nodes) + 1)

	var repairs []Repair
	for steps := 0; len(queue) > 0; steps++ {
		if steps > limit {
			return repairs, errors.New(errors.ErrCodeCycle, "tech level repair did not converge after %d steps", steps)
		}
		n := queue[0]
		queue = queue[1:]

		highest := n.Level
		for _, p := range n.InNodes() {
			highest = max(highest, p.Level)
		}
		if highest <= n.Level {
			continue
		}
		repairs = append(repairs, Repair{ID: n.ID, From: n.Level, To: highest})
		n.Level = highest
		queue = append(queue, descendants(n)...)
	}
	return repairs, nil
}

func descendants(n *dag.Node) []*dag.Node {
	var out []*dag.Node
	seen := map[*dag.Node]bool{n: true}
	stack := slices.Clone(n.OutNodes())
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		stack = append(stack, cur.OutNodes()...)
	}
	return out
}
