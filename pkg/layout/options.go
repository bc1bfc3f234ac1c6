package layout

import (
	"slices"

	"github.com/matzehuels/techtree/pkg/config"
)

// Options controls a layout run.
type Options struct {
	// SeparateByTechLevel selects tech-level layering and disables
	// singleton extraction.
	SeparateByTechLevel bool

	// PlaceModTechSeparately lays out every source with more than
	// LargeGroupThreshold nodes as its own group. SharedSources are exempt.
	PlaceModTechSeparately bool
	LargeGroupThreshold    int
	SharedSources          []string

	// MaxIterations caps every sweep loop. Burnout is the number of
	// consecutive iterations without improvement after which a loop stops.
	MaxIterations int
	Burnout       int

	// Epsilon is the tolerance for barycenter ties and the minimum edge
	// length gain a move must achieve.
	Epsilon float64

	// CollapseDummies merges same-layer dummies with identical parents or
	// children after normalization.
	CollapseDummies bool
}

// DefaultOptions returns the options of [config.Default].
func DefaultOptions() Options {
	return FromSettings(config.Default())
}

// FromSettings extracts the layout options from settings.
func FromSettings(s config.Settings) Options {
	return Options{
		SeparateByTechLevel:    s.Layout.SeparateByTechLevel,
		PlaceModTechSeparately: s.Layout.PlaceModTechSeparately,
		LargeGroupThreshold:    s.Layout.LargeGroupThreshold,
		SharedSources:          slices.Clone(s.Layout.SharedSources),
		MaxIterations:          s.Tuning.MaxIterations,
		Burnout:                s.Tuning.Burnout,
		Epsilon:                s.Tuning.Epsilon,
		CollapseDummies:        s.Tuning.CollapseDummies,
	}
}

func (o *Options) setDefaults() {
	d := config.Default()
	if o.LargeGroupThreshold <= 0 {
		o.LargeGroupThreshold = d.Layout.LargeGroupThreshold
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.Tuning.MaxIterations
	}
	if o.Burnout <= 0 {
		o.Burnout = d.Tuning.Burnout
	}
	if o.Epsilon <= 0 {
		o.Epsilon = d.Tuning.Epsilon
	}
}
