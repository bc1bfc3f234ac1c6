package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/research"
)

// settingsFlags are the layout flags shared by every command that builds a
// layout. Flags set on the command line override the config file.
type settingsFlags struct {
	configPath string

	separate      bool
	modSeparately bool
	threshold     int
	maxLevel      string
	hideDisallow  bool
	includeHidden bool
	strictCycles  bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "config file (.toml, .yaml)")
	fs.BoolVar(&f.separate, "separate-by-tech-level", false, "give every tech level its own band of layers")
	fs.BoolVar(&f.modSeparately, "place-mod-tech-separately", false, "split large sources out of the shared layout")
	fs.IntVar(&f.threshold, "large-group-threshold", config.DefaultLargeGroupThreshold, "minimum size of a source split out of the shared layout")
	fs.StringVar(&f.maxLevel, "max-tech-level", "", "lock research above this tech level")
	fs.BoolVar(&f.hideDisallow, "hide-locked", false, "hide locked research instead of drawing it")
	fs.BoolVar(&f.includeHidden, "include-hidden", false, "treat hidden prerequisites as edges")
	fs.BoolVar(&f.strictCycles, "strict-cycles", false, "fail on prerequisite cycles instead of dropping them")
}

// settings loads the config file and applies the flags that were set.
func (f *settingsFlags) settings(cmd *cobra.Command) (config.Settings, error) {
	s, err := loadSettings(f.configPath)
	if err != nil {
		return s, err
	}
	fs := cmd.Flags()
	l := &s.Layout
	if fs.Changed("separate-by-tech-level") {
		l.SeparateByTechLevel = f.separate
	}
	if fs.Changed("place-mod-tech-separately") {
		l.PlaceModTechSeparately = f.modSeparately
	}
	if fs.Changed("large-group-threshold") {
		l.LargeGroupThreshold = f.threshold
	}
	if fs.Changed("max-tech-level") {
		level, err := research.ParseTechLevel(f.maxLevel)
		if err != nil {
			return s, errors.Wrap(errors.ErrCodeInvalidInput, err, "--max-tech-level")
		}
		l.MaxAllowedTechLevel = level
	}
	if fs.Changed("hide-locked") {
		l.DontShowDisallowedTech = f.hideDisallow
	}
	if fs.Changed("include-hidden") {
		l.IncludeHiddenPrerequisites = f.includeHidden
	}
	if fs.Changed("strict-cycles") {
		l.StrictCycles = f.strictCycles
	}
	return s, s.Validate()
}
