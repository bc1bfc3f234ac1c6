package research

import "slices"

// Record is one prerequisite definition supplied by the definition source.
type Record struct {
	ID    string `json:"id" toml:"id" yaml:"id"`
	Label string `json:"label,omitempty" toml:"label,omitempty" yaml:"label,omitempty"`

	// Prerequisites are the identifiers of direct prerequisites. They may
	// reference unknown records or the record itself.
	Prerequisites []string `json:"prerequisites,omitempty" toml:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`

	// HiddenPrerequisites are only considered when hidden prerequisites
	// are included by configuration.
	HiddenPrerequisites []string `json:"hidden_prerequisites,omitempty" toml:"hidden_prerequisites,omitempty" yaml:"hidden_prerequisites,omitempty"`

	TechLevel TechLevel `json:"tech_level" toml:"tech_level" yaml:"tech_level"`
	Source    string    `json:"source,omitempty" toml:"source,omitempty" yaml:"source,omitempty"`

	// Finished is not used by layout; it is carried for consumers.
	Finished bool `json:"finished,omitempty" toml:"finished,omitempty" yaml:"finished,omitempty"`

	// Hint is the preferred vertical position. The initial row of the
	// record's node is Hint+1.
	Hint float64 `json:"hint,omitempty" toml:"hint,omitempty" yaml:"hint,omitempty"`
}

// DisplayLabel returns Label, falling back to ID.
func (r *Record) DisplayLabel() string {
	if r.Label != "" {
		return r.Label
	}
	return r.ID
}

// EffectivePrerequisites returns the direct prerequisites, optionally merged
// with the hidden ones. Duplicates are dropped and first-seen order is kept.
func (r *Record) EffectivePrerequisites(includeHidden bool) []string {
	out := make([]string, 0, len(r.Prerequisites)+len(r.HiddenPrerequisites))
	seen := make(map[string]struct{}, cap(out))
	add := func(ids []string) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	add(r.Prerequisites)
	if includeHidden {
		add(r.HiddenPrerequisites)
	}
	return out
}

// ListsItself reports whether the record names itself as a direct prerequisite.
func (r *Record) ListsItself(includeHidden bool) bool {
	return slices.Contains(r.EffectivePrerequisites(includeHidden), r.ID)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.Prerequisites = slices.Clone(r.Prerequisites)
	c.HiddenPrerequisites = slices.Clone(r.HiddenPrerequisites)
	return &c
}
