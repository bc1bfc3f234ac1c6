package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/techtree/pkg/cache"
	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/render"
	"github.com/matzehuels/techtree/pkg/research"
)

func diamond() []*research.Record {
	return []*research.Record{
		{ID: "Stonecutting"},
		{ID: "Smithing", Prerequisites: []string{"Stonecutting"}},
		{ID: "Masonry", Prerequisites: []string{"Stonecutting"}},
		{ID: "Fortifications", Prerequisites: []string{"Smithing", "Masonry"}},
	}
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, nil)
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), diamond(), Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.CacheInfo.LayoutHit {
		t.Error("null cache should never hit")
	}
	if res.Stats.RecordCount != 4 || res.Stats.NodeCount != 4 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.Layout.RunID == "" {
		t.Error("RunID should be set")
	}
	if res.Layout.Stats.Crossings != 0 {
		t.Errorf("crossings = %d", res.Layout.Stats.Crossings)
	}
	if len(res.DefsHash) != 64 {
		t.Errorf("DefsHash = %q", res.DefsHash)
	}
}

func TestExecuteCache(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)

	first, err := r.Execute(ctx, diamond(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(ctx, diamond(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Fatal("second run should hit the cache")
	}
	if second.Layout.RunID == first.Layout.RunID {
		t.Error("cached result should get a new RunID")
	}
	for _, n := range first.Layout.Nodes {
		m, ok := second.Layout.Node(n.ID)
		if !ok || m.X != n.X || m.Y != n.Y {
			t.Errorf("node %s moved: %+v -> %+v", n.ID, n, m)
		}
	}

	refreshed, err := r.Execute(ctx, diamond(), Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.LayoutHit {
		t.Error("Refresh should bypass the cache")
	}

	s := config.Default()
	s.Layout.SeparateByTechLevel = true
	other, err := r.Execute(ctx, diamond(), Options{Settings: s})
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheInfo.LayoutHit {
		t.Error("different layout settings should miss")
	}

	s = config.Default()
	s.Server.Addr = ":9999"
	infra, err := r.Execute(ctx, diamond(), Options{Settings: s})
	if err != nil {
		t.Fatal(err)
	}
	if !infra.CacheInfo.LayoutHit {
		t.Error("infrastructure settings should not change the cache key")
	}

	checked, err := r.Execute(ctx, diamond(), Options{Check: true})
	if err != nil {
		t.Fatal(err)
	}
	if checked.CacheInfo.LayoutHit {
		t.Error("Check should bypass the cache")
	}
	if len(checked.Issues) != 0 {
		t.Errorf("Issues = %v, want none", checked.Issues)
	}
}

func TestExecuteErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)

	bad := config.Default()
	bad.Tuning.Epsilon = 0.9
	if _, err := r.Execute(ctx, diamond(), Options{Settings: bad}); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("invalid settings: err = %v", err)
	}

	cyclic := []*research.Record{
		{ID: "A", Prerequisites: []string{"B"}},
		{ID: "B", Prerequisites: []string{"A"}},
	}
	strict := config.Default()
	strict.Layout.StrictCycles = true
	if _, err := r.Execute(ctx, cyclic, Options{Settings: strict}); !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("strict cycles: err = %v", err)
	}

	res, err := r.Execute(ctx, cyclic, Options{})
	if err != nil {
		t.Fatalf("lenient cycles: %v", err)
	}
	if len(res.Layout.Nodes) != 0 || len(res.Layout.Report.Cycles) != 2 {
		t.Errorf("cycle members should be hidden: %+v", res.Layout.Report)
	}

	if _, err := r.Execute(ctx, []*research.Record{{ID: ""}}, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty id: err = %v", err)
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	r := newFileRunner(t)
	res, err := r.Execute(ctx, diamond(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	dot, hit, err := r.Render(ctx, res.Layout, render.FormatDOT, render.Options{})
	if err != nil || hit {
		t.Fatalf("first Render: hit=%v err=%v", hit, err)
	}
	if !strings.Contains(string(dot), `"Fortifications"`) {
		t.Errorf("DOT output:\n%s", dot)
	}
	again, hit, err := r.Render(ctx, res.Layout, render.FormatDOT, render.Options{})
	if err != nil || !hit || string(again) != string(dot) {
		t.Errorf("second Render: hit=%v err=%v", hit, err)
	}
	_, hit, _ = r.Render(ctx, res.Layout, render.FormatDOT, render.Options{Detailed: true})
	if hit {
		t.Error("different render options should miss")
	}

	_, hit, _ = r.Render(ctx, res.Layout, render.FormatJSON, render.Options{})
	_, hit2, _ := r.Render(ctx, res.Layout, render.FormatJSON, render.Options{})
	if hit || hit2 {
		t.Error("JSON output should not be cached")
	}

	if _, _, err := r.Render(ctx, res.Layout, "pdf", render.Options{}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("unsupported format: err = %v", err)
	}
}

func TestOptionsMapping(t *testing.T) {
	s := config.Default()
	s.Layout.MaxAllowedTechLevel = research.Industrial
	s.Layout.DontShowDisallowedTech = true
	s.Layout.IncludeHiddenPrerequisites = true
	s.Tuning.MaxIterations = 7
	opts := Options{Settings: s}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	b := opts.BuilderOptions()
	if b.MaxTechLevel != research.Industrial || !b.HideDisallowed || !b.IncludeHidden || b.StrictCycles {
		t.Errorf("BuilderOptions() = %+v", b)
	}
	if got := opts.LayoutOptions().MaxIterations; got != 7 {
		t.Errorf("LayoutOptions().MaxIterations = %d", got)
	}
	if len(opts.LayoutKeyOpts().Fingerprint) == 0 {
		t.Error("fingerprint should not be empty")
	}
}
