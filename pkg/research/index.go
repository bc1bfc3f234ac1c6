package research

import "slices"

// Index is a read-only view over a record set keyed by identifier.
type Index struct {
	records       []*Record
	byID          map[string]*Record
	children      map[string][]string
	includeHidden bool
}

// NewIndex indexes records. When an identifier is repeated the first
// record wins; the rest are returned as duplicates.
func NewIndex(records []*Record, includeHidden bool) (*Index, []string) {
	idx := &Index{
		records:       make([]*Record, 0, len(records)),
		byID:          make(map[string]*Record, len(records)),
		children:      make(map[string][]string),
		includeHidden: includeHidden,
	}
	var dups []string
	for _, r := range records {
		if r == nil {
			continue
		}
		if _, ok := idx.byID[r.ID]; ok {
			dups = append(dups, r.ID)
			continue
		}
		idx.byID[r.ID] = r
		idx.records = append(idx.records, r)
	}
	for _, r := range idx.records {
		for _, p := range r.EffectivePrerequisites(includeHidden) {
			if p == r.ID {
				continue
			}
			idx.children[p] = append(idx.children[p], r.ID)
		}
	}
	return idx, dups
}

// Records returns the indexed records in input order.
func (idx *Index) Records() []*Record { return idx.records }

// Len returns the number of indexed records.
func (idx *Index) Len() int { return len(idx.records) }

// Lookup returns the record with the given identifier.
func (idx *Index) Lookup(id string) (*Record, bool) {
	r, ok := idx.byID[id]
	return r, ok
}

// Prerequisites returns the effective direct prerequisites of id that
// resolve to indexed records. Unknown references are skipped.
func (idx *Index) Prerequisites(id string) []string {
	r, ok := idx.byID[id]
	if !ok {
		return nil
	}
	var out []string
	for _, p := range r.EffectivePrerequisites(idx.includeHidden) {
		if _, ok := idx.byID[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Ancestors returns every record reachable through prerequisite links from
// id, in discovery order. The walk is iterative; a record appears in its own
// ancestor set only when it lies on a prerequisite cycle.
func (idx *Index) Ancestors(id string) []string {
	return idx.walk(id, idx.Prerequisites)
}

// Descendants returns every record that transitively requires id.
func (idx *Index) Descendants(id string) []string {
	return idx.walk(id, func(cur string) []string { return idx.children[cur] })
}

// OnCycle reports whether id is its own ancestor.
func (idx *Index) OnCycle(id string) bool {
	return slices.Contains(idx.Ancestors(id), id)
}

func (idx *Index) walk(id string, next func(string) []string) []string {
	var out []string
	seen := make(map[string]struct{})
	var stack []string
	start := next(id)
	for i := len(start) - 1; i >= 0; i-- {
		if start[i] != id {
			stack = append(stack, start[i])
		}
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		out = append(out, cur)

		nbrs := next(cur)
		for i := len(nbrs) - 1; i >= 0; i-- {
			if n := nbrs[i]; n != cur {
				if _, ok := seen[n]; !ok {
					stack = append(stack, n)
				}
			}
		}
	}
	return out
}
