// Package cache stores serialized layout snapshots and rendered artifacts
// keyed by content hashes.
//
// Three backends are provided: [FileCache] for the CLI, [RedisCache] for
// long-running servers that share results, and [NullCache] when caching is
// disabled. Keys are produced by a [Keyer] so that hosts can namespace them
// with [NewScopedKeyer].
package cache

import (
	"context"
	"strings"
	"time"
)

// Default lifetimes per entry kind.
const (
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
//
// Get reports a miss with hit=false and a nil error. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey identifies a layout of a definition set under the given
	// layout-relevant settings.
	LayoutKey(defsHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendering of a layout snapshot.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs besides the definitions that change a layout.
type LayoutKeyOpts struct {
	// Fingerprint is config.Settings.Fingerprint().
	Fingerprint []byte `json:"fingerprint"`
	Version     string `json:"version,omitempty"`
}

// ArtifactKeyOpts are the inputs besides the layout that change a rendering.
type ArtifactKeyOpts struct {
	Format       string   `json:"format"`
	Detailed     bool     `json:"detailed,omitempty"`
	Highlight    []string `json:"highlight,omitempty"`
	LayerSpacing float64  `json:"layer_spacing,omitempty"`
	RowSpacing   float64  `json:"row_spacing,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(defsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", defsHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// KeyType returns the kind prefix of a key produced by a Keyer, ignoring any
// scope prefix. It is used as the metrics label for cache events.
func KeyType(key string) string {
	for _, t := range []string{"layout", "artifact"} {
		if strings.Contains(key, t+":") {
			return t
		}
	}
	return "other"
}
