package research

import (
	"fmt"
	"strings"
)

// TechLevel is the ordered technology tier of a research record.
type TechLevel int

const (
	Undefined TechLevel = iota
	Animal
	Neolithic
	Medieval
	Industrial
	Spacer
	Ultra
	Archotech
)

var techLevelNames = [...]string{
	Undefined:  "undefined",
	Animal:     "animal",
	Neolithic:  "neolithic",
	Medieval:   "medieval",
	Industrial: "industrial",
	Spacer:     "spacer",
	Ultra:      "ultra",
	Archotech:  "archotech",
}

// TechLevels returns every defined tech level in ascending order.
func TechLevels() []TechLevel {
	levels := make([]TechLevel, 0, len(techLevelNames))
	for l := Undefined; l <= Archotech; l++ {
		levels = append(levels, l)
	}
	return levels
}

func (l TechLevel) String() string {
	if l < Undefined || l > Archotech {
		return fmt.Sprintf("techlevel(%d)", int(l))
	}
	return techLevelNames[l]
}

// Valid reports whether l is one of the defined levels.
func (l TechLevel) Valid() bool { return l >= Undefined && l <= Archotech }

// ParseTechLevel parses a case-insensitive level name.
func ParseTechLevel(s string) (TechLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Undefined, nil
	}
	for l, n := range techLevelNames {
		if n == name {
			return TechLevel(l), nil
		}
	}
	return Undefined, fmt.Errorf("unknown tech level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l TechLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid tech level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *TechLevel) UnmarshalText(text []byte) error {
	v, err := ParseTechLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
