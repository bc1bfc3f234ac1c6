// Package tree owns the published layout of a research tree.
//
// At most one build runs at a time. A build loads the definitions, runs the
// pipeline and, on success, publishes the new snapshot atomically. Readers
// never observe a partially built layout: they either get the last published
// snapshot, a NOT_READY error, or block in [Tree.Wait] until the first
// snapshot exists.
//
// A build that fails or panics leaves the previous snapshot in place.
package tree

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/defs"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/pipeline"
)

// Tree publishes layouts of the records provided by a definition source.
type Tree struct {
	source defs.Source
	runner *pipeline.Runner
	logger *log.Logger

	mu       sync.Mutex
	settings config.Settings
	lastErr  error

	snapshot atomic.Pointer[graph.Layout]
	building atomic.Bool

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a tree. Nothing is built until Build or Start is called. A nil
// runner gets an uncached one and a nil logger discards output.
func New(source defs.Source, settings config.Settings, runner *pipeline.Runner, logger *log.Logger) (*Tree, error) {
	settings.SetDefaults()
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Tree{
		source:   source,
		runner:   runner,
		logger:   logger,
		settings: settings,
		ready:    make(chan struct{}),
	}, nil
}

// Build runs one layout synchronously. It returns false without error when
// another build is in flight. ctx bounds loading the definitions; once the
// engine starts it runs to completion.
func (t *Tree) Build(ctx context.Context) (bool, error) {
	if !t.building.CompareAndSwap(false, true) {
		t.logger.Debug("build rejected, another build is running")
		observability.Layout().OnBuildRejected(ctx)
		return false, nil
	}
	defer t.building.Store(false)
	return true, t.run(ctx)
}

// Start runs a build on a new goroutine. It reports whether the build was
// started.
func (t *Tree) Start(ctx context.Context) bool {
	if !t.building.CompareAndSwap(false, true) {
		t.logger.Debug("build rejected, another build is running")
		observability.Layout().OnBuildRejected(ctx)
		return false
	}
	go func() {
		defer t.building.Store(false)
		if err := t.run(ctx); err != nil {
			t.logger.Error("background build failed", "err", err)
		}
	}()
	return true
}

func (t *Tree) run(ctx context.Context) (err error) {
	start := time.Now()
	nodes := 0
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInternal, "layout build panicked: %v", r)
		}
		t.mu.Lock()
		t.lastErr = err
		t.mu.Unlock()
		observability.Layout().OnBuildComplete(ctx, nodes, time.Since(start), err)
	}()

	t.mu.Lock()
	settings := t.settings
	t.mu.Unlock()

	loadStart := time.Now()
	records, err := t.source.Load(ctx)
	observability.Layout().OnPhase(ctx, observability.PhaseLoad, time.Since(loadStart))
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeSourceUnavailable, err, "load definitions from %s", t.source.Name())
		}
		return err
	}
	observability.Layout().OnBuildStart(ctx, len(records))

	res, err := t.runner.Execute(ctx, records, pipeline.Options{Settings: settings, Logger: t.logger})
	if err != nil {
		return err
	}

	nodes = len(res.Layout.Nodes)
	t.snapshot.Store(res.Layout)
	t.readyOnce.Do(func() { close(t.ready) })
	t.logger.Info("published layout",
		"run_id", res.Layout.RunID,
		"source", t.source.Name(),
		"nodes", nodes,
		"width", res.Layout.Width,
		"height", res.Layout.Height,
		"cached", res.CacheInfo.LayoutHit,
		"duration", time.Since(start))
	return nil
}

// Snapshot returns the last published layout without blocking, or a
// NOT_READY error before the first successful build.
func (t *Tree) Snapshot() (*graph.Layout, error) {
	if l := t.snapshot.Load(); l != nil {
		return l, nil
	}
	return nil, errors.New(errors.ErrCodeNotReady, "layout is not ready")
}

// Wait blocks until a layout has been published or ctx is done.
func (t *Tree) Wait(ctx context.Context) (*graph.Layout, error) {
	select {
	case <-t.ready:
		return t.snapshot.Load(), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for layout: %w", ctx.Err())
	}
}

// Ready reports whether a layout has been published.
func (t *Tree) Ready() bool { return t.snapshot.Load() != nil }

// Runner returns the pipeline used for builds.
func (t *Tree) Runner() *pipeline.Runner { return t.runner }

// Building reports whether a build is in flight.
func (t *Tree) Building() bool { return t.building.Load() }

// Err returns the error of the most recent build, nil if it succeeded.
func (t *Tree) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Settings returns the settings used by the next build.
func (t *Tree) Settings() config.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// Reconfigure replaces the settings for the next build. It fails with BUSY
// while a build is in flight; callers wait and retry.
func (t *Tree) Reconfigure(s config.Settings) error {
	if t.building.Load() {
		return errors.New(errors.ErrCodeBusy, "a layout build is in progress")
	}
	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	t.settings = s
	t.mu.Unlock()
	t.logger.Info("settings updated", "separate_by_tech_level", s.Layout.SeparateByTechLevel)
	return nil
}
