// Package pipeline turns research definitions into a published layout.
//
// A run has three stages:
//
//  1. Build: validate records and create the research graph
//  2. Layout: run the layout engine on the graph
//  3. Render: draw the snapshot as SVG, DOT or JSON (optional)
//
// The [Runner] caches finished snapshots by the content hash of the
// definitions and the layout-relevant settings, and rendered artifacts by
// the hash of the snapshot geometry. Both CLI and server go through it.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, records, pipeline.Options{Settings: settings})
//	if err != nil {
//	    return err
//	}
//	svg, _, err := runner.Render(ctx, res.Layout, render.FormatSVG, render.Options{})
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/builder"
	"github.com/matzehuels/techtree/pkg/buildinfo"
	"github.com/matzehuels/techtree/pkg/cache"
	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/render"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	Settings config.Settings `json:"settings"`

	// Refresh skips the snapshot cache lookup. The fresh result is still
	// stored.
	Refresh bool `json:"refresh,omitempty"`

	// Check validates the finished layout into Result.Issues. It implies
	// Refresh.
	Check bool `json:"check,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Layout *graph.Layout

	// DefsHash is the content hash of the input records.
	DefsHash string

	Stats     Stats
	CacheInfo CacheInfo

	// Issues is set when Options.Check is.
	Issues []layout.Issue
}

// Stats contains pipeline execution statistics.
type Stats struct {
	RecordCount int
	NodeCount   int
	EdgeCount   int
	BuildTime   time.Duration
	LayoutTime  time.Duration
}

// CacheInfo tracks cache hits per stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies setting defaults and validates them. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.Settings.SetDefaults()
	if err := o.Settings.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// BuilderOptions returns the graph builder options.
func (o *Options) BuilderOptions() builder.Options {
	l := o.Settings.Layout
	return builder.Options{
		MaxTechLevel:   l.MaxAllowedTechLevel,
		HideDisallowed: l.DontShowDisallowedTech,
		IncludeHidden:  l.IncludeHiddenPrerequisites,
		StrictCycles:   l.StrictCycles,
	}
}

// LayoutOptions returns the layout engine options.
func (o *Options) LayoutOptions() layout.Options {
	return layout.FromSettings(o.Settings)
}

// LayoutKeyOpts returns cache key options for the snapshot.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Fingerprint: o.Settings.Fingerprint(),
		Version:     buildinfo.Version,
	}
}

// ArtifactKeyOpts returns cache key options for a rendering.
func ArtifactKeyOpts(format string, opts render.Options) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:       format,
		Detailed:     opts.Detailed,
		Highlight:    opts.Highlight,
		LayerSpacing: opts.LayerSpacing,
		RowSpacing:   opts.RowSpacing,
	}
}
