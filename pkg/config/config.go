// Package config holds the settings that drive a layout run and the
// infrastructure around it.
//
// Settings load from TOML or YAML, chosen by file extension. Zero values in
// a file fall back to [Default], so a config file only needs to name what it
// changes.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/research"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	DefaultLargeGroupThreshold = 5
	DefaultMaxIterations       = 50
	DefaultBurnout             = 2
	DefaultEpsilon             = 1e-4
	DefaultCacheTTL            = 24 * time.Hour
	DefaultServerAddr          = ":8080"
	DefaultMongoDatabase       = "techtree"
	DefaultMongoCollection     = "research"
)

// =============================================================================
// Settings
// =============================================================================

// Settings is the full configuration.
type Settings struct {
	Layout Layout `toml:"layout" yaml:"layout" json:"layout"`
	Tuning Tuning `toml:"tuning" yaml:"tuning" json:"tuning"`
	Cache  Cache  `toml:"cache" yaml:"cache" json:"-"`
	Server Server `toml:"server" yaml:"server" json:"-"`
	Mongo  Mongo  `toml:"mongo" yaml:"mongo" json:"-"`
}

// Layout selects which records become nodes and how layers are assigned.
type Layout struct {
	SeparateByTechLevel    bool `toml:"separate_by_tech_level" yaml:"separate_by_tech_level" json:"separate_by_tech_level"`
	PlaceModTechSeparately bool `toml:"place_mod_tech_separately" yaml:"place_mod_tech_separately" json:"place_mod_tech_separately"`
	LargeGroupThreshold    int  `toml:"large_group_threshold" yaml:"large_group_threshold" json:"large_group_threshold"`

	// SharedSources are never split out of the shared layout, whatever
	// their size.
	SharedSources []string `toml:"shared_sources" yaml:"shared_sources" json:"shared_sources,omitempty"`

	MaxAllowedTechLevel        research.TechLevel `toml:"max_allowed_tech_level" yaml:"max_allowed_tech_level" json:"max_allowed_tech_level"`
	DontShowDisallowedTech     bool               `toml:"dont_show_disallowed_tech" yaml:"dont_show_disallowed_tech" json:"dont_show_disallowed_tech"`
	IncludeHiddenPrerequisites bool               `toml:"include_hidden_prerequisites" yaml:"include_hidden_prerequisites" json:"include_hidden_prerequisites"`
	StrictCycles               bool               `toml:"strict_cycles" yaml:"strict_cycles" json:"strict_cycles"`
}

// Tuning bounds the iterative sweeps.
type Tuning struct {
	MaxIterations   int     `toml:"max_iterations" yaml:"max_iterations" json:"max_iterations"`
	Burnout         int     `toml:"burnout" yaml:"burnout" json:"burnout"`
	Epsilon         float64 `toml:"epsilon" yaml:"epsilon" json:"epsilon"`
	CollapseDummies bool    `toml:"collapse_dummies" yaml:"collapse_dummies" json:"collapse_dummies"`
}

// Cache configures snapshot caching. RedisAddr selects Redis over the file
// cache.
type Cache struct {
	Dir       string        `toml:"dir" yaml:"dir"`
	RedisAddr string        `toml:"redis_addr" yaml:"redis_addr"`
	RedisDB   int           `toml:"redis_db" yaml:"redis_db"`
	TTL       time.Duration `toml:"ttl" yaml:"ttl"`
	Disabled  bool          `toml:"disabled" yaml:"disabled"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Mongo configures the MongoDB definition source.
type Mongo struct {
	URI        string `toml:"uri" yaml:"uri"`
	Database   string `toml:"database" yaml:"database"`
	Collection string `toml:"collection" yaml:"collection"`
}

// Default returns the tuned defaults.
func Default() Settings {
	return Settings{
		Layout: Layout{
			LargeGroupThreshold: DefaultLargeGroupThreshold,
		},
		Tuning: Tuning{
			MaxIterations: DefaultMaxIterations,
			Burnout:       DefaultBurnout,
			Epsilon:       DefaultEpsilon,
		},
		Cache: Cache{TTL: DefaultCacheTTL},
		Server: Server{
			Addr: DefaultServerAddr,
		},
		Mongo: Mongo{
			Database:   DefaultMongoDatabase,
			Collection: DefaultMongoCollection,
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads settings from path. The format follows the extension: .toml,
// .yaml or .yml. The result has defaults applied and is validated.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found: %s", path)
		}
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes settings in the format named by ext.
func Parse(data []byte, ext string) (Settings, error) {
	var s Settings
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
			return Settings{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml config")
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && err != io.EOF {
			return Settings{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml config")
		}
	default:
		return Settings{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q (want toml, yaml or yml)", ext)
	}
	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SetDefaults fills zero values from [Default].
func (s *Settings) SetDefaults() {
	d := Default()
	if s.Layout.LargeGroupThreshold == 0 {
		s.Layout.LargeGroupThreshold = d.Layout.LargeGroupThreshold
	}
	if s.Tuning.MaxIterations == 0 {
		s.Tuning.MaxIterations = d.Tuning.MaxIterations
	}
	if s.Tuning.Burnout == 0 {
		s.Tuning.Burnout = d.Tuning.Burnout
	}
	if s.Tuning.Epsilon == 0 {
		s.Tuning.Epsilon = d.Tuning.Epsilon
	}
	if s.Cache.TTL == 0 {
		s.Cache.TTL = d.Cache.TTL
	}
	if s.Server.Addr == "" {
		s.Server.Addr = d.Server.Addr
	}
	if s.Mongo.Database == "" {
		s.Mongo.Database = d.Mongo.Database
	}
	if s.Mongo.Collection == "" {
		s.Mongo.Collection = d.Mongo.Collection
	}
}

// =============================================================================
// Validation
// =============================================================================

// Validate reports the first invalid setting.
func (s Settings) Validate() error {
	switch {
	case s.Layout.LargeGroupThreshold < 1:
		return invalid("layout.large_group_threshold must be at least 1, got %d", s.Layout.LargeGroupThreshold)
	case !s.Layout.MaxAllowedTechLevel.Valid():
		return invalid("layout.max_allowed_tech_level %d is out of range", int(s.Layout.MaxAllowedTechLevel))
	case s.Tuning.MaxIterations < 1:
		return invalid("tuning.max_iterations must be at least 1, got %d", s.Tuning.MaxIterations)
	case s.Tuning.Burnout < 1:
		return invalid("tuning.burnout must be at least 1, got %d", s.Tuning.Burnout)
	case s.Tuning.Burnout > s.Tuning.MaxIterations:
		return invalid("tuning.burnout (%d) exceeds tuning.max_iterations (%d)", s.Tuning.Burnout, s.Tuning.MaxIterations)
	case s.Tuning.Epsilon <= 0 || s.Tuning.Epsilon >= 0.5:
		return invalid("tuning.epsilon must be in (0, 0.5), got %g", s.Tuning.Epsilon)
	case s.Cache.TTL < 0:
		return invalid("cache.ttl must not be negative")
	case s.Cache.RedisDB < 0:
		return invalid("cache.redis_db must not be negative")
	}
	for _, src := range s.Layout.SharedSources {
		if err := errors.ValidateSourceName(src); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "layout.shared_sources")
		}
	}
	if s.Mongo.URI != "" {
		if err := errors.ValidateURI(s.Mongo.URI, "mongodb", "mongodb+srv"); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "mongo.uri")
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}

// =============================================================================
// Fingerprint
// =============================================================================

// Fingerprint returns a canonical encoding of the settings that affect the
// computed layout. Cache, server and mongo settings are excluded so changing
// infrastructure never invalidates a cached layout.
func (s Settings) Fingerprint() []byte {
	fp := struct {
		Layout Layout `json:"layout"`
		Tuning Tuning `json:"tuning"`
	}{s.Layout, s.Tuning}
	fp.Layout.SharedSources = slices.Sorted(slices.Values(fp.Layout.SharedSources))
	data, _ := json.Marshal(fp)
	return data
}
