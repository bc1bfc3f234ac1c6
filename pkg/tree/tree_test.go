package tree

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/defs"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/research"
)

func diamond() []*research.Record {
	return []*research.Record{
		{ID: "A"},
		{ID: "B", Prerequisites: []string{"A"}},
		{ID: "C", Prerequisites: []string{"A"}},
		{ID: "D", Prerequisites: []string{"B", "C"}},
	}
}

// gatedSource blocks Load until release is closed.
type gatedSource struct {
	*defs.MemorySource
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedSource() *gatedSource {
	return &gatedSource{
		MemorySource: defs.NewMemorySource(diamond()...),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
}

func (s *gatedSource) Load(ctx context.Context) ([]*research.Record, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.MemorySource.Load(ctx)
}

type panicSource struct{}

func (panicSource) Name() string { return "panic" }

func (panicSource) Load(context.Context) ([]*research.Record, error) { panic("corrupt definitions") }

type rejectCounter struct {
	observability.NoopLayoutHooks
	rejected  atomic.Int32
	completed atomic.Int32
}

func (h *rejectCounter) OnBuildRejected(context.Context) { h.rejected.Add(1) }

func (h *rejectCounter) OnBuildComplete(context.Context, int, time.Duration, error) {
	h.completed.Add(1)
}

func newTree(t *testing.T, src defs.Source) *Tree {
	t.Helper()
	tr, err := New(src, config.Default(), nil, nil)
	require.NoError(t, err)
	return tr
}

func TestBuildPublishesSnapshot(t *testing.T) {
	tr := newTree(t, defs.NewMemorySource(diamond()...))

	_, err := tr.Snapshot()
	assert.True(t, errors.Is(err, errors.ErrCodeNotReady))
	assert.False(t, tr.Ready())

	started, err := tr.Build(context.Background())
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, tr.Ready())
	assert.False(t, tr.Building())
	assert.NoError(t, tr.Err())

	l, err := tr.Snapshot()
	require.NoError(t, err)
	assert.Len(t, l.Nodes, 4)
	assert.Equal(t, 3, l.Width)
}

func TestConcurrentBuildRejected(t *testing.T) {
	hooks := &rejectCounter{}
	observability.SetLayoutHooks(hooks)
	defer observability.Reset()

	src := newGatedSource()
	tr := newTree(t, src)

	require.True(t, tr.Start(context.Background()))
	<-src.entered
	assert.True(t, tr.Building())

	started, err := tr.Build(context.Background())
	assert.NoError(t, err)
	assert.False(t, started, "second build must be rejected while the first runs")
	assert.False(t, tr.Start(context.Background()))
	assert.Equal(t, int32(2), hooks.rejected.Load())

	err = tr.Reconfigure(config.Default())
	assert.True(t, errors.Is(err, errors.ErrCodeBusy))

	_, err = tr.Snapshot()
	assert.True(t, errors.Is(err, errors.ErrCodeNotReady), "no partial state before publication")

	close(src.release)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	l, err := tr.Wait(ctx)
	require.NoError(t, err)
	assert.Len(t, l.Nodes, 4)

	assert.Eventually(t, func() bool { return !tr.Building() }, 5*time.Second, time.Millisecond)
	started, err = tr.Build(context.Background())
	assert.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, int32(2), hooks.completed.Load())
}

func TestWaitHonoursContext(t *testing.T) {
	tr := newTree(t, newGatedSource())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := tr.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPanicIsRecovered(t *testing.T) {
	tr := newTree(t, panicSource{})

	started, err := tr.Build(context.Background())
	assert.True(t, started)
	assert.True(t, errors.Is(err, errors.ErrCodeInternal), "err = %v", err)
	assert.Equal(t, err, tr.Err())
	assert.False(t, tr.Building(), "guard must be released after a panic")
	assert.False(t, tr.Ready())
}

func TestFailedBuildKeepsSnapshot(t *testing.T) {
	src := defs.NewMemorySource(diamond()...)
	tr := newTree(t, src)
	_, err := tr.Build(context.Background())
	require.NoError(t, err)
	before, _ := tr.Snapshot()

	s := config.Default()
	s.Layout.StrictCycles = true
	require.NoError(t, tr.Reconfigure(s))
	src.Set([]*research.Record{
		{ID: "X", Prerequisites: []string{"Y"}},
		{ID: "Y", Prerequisites: []string{"X"}},
	})

	_, err = tr.Build(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeCycle), "err = %v", err)
	after, _ := tr.Snapshot()
	assert.Same(t, before, after)
}

func TestLoadErrorIsCoded(t *testing.T) {
	src, err := defs.NewFileSource("/nonexistent/defs.json")
	require.NoError(t, err)
	tr := newTree(t, src)

	_, err = tr.Build(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "err = %v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr = newTree(t, defs.NewMemorySource(diamond()...))
	_, err = tr.Build(ctx)
	assert.True(t, errors.Is(err, errors.ErrCodeSourceUnavailable), "err = %v", err)
}

func TestReconfigure(t *testing.T) {
	tr := newTree(t, defs.NewMemorySource(diamond()...))

	bad := config.Default()
	bad.Tuning.Burnout = 100
	assert.True(t, errors.Is(tr.Reconfigure(bad), errors.ErrCodeInvalidConfig))

	s := config.Default()
	s.Layout.SeparateByTechLevel = true
	require.NoError(t, tr.Reconfigure(s))
	assert.True(t, tr.Settings().Layout.SeparateByTechLevel)

	_, err := New(nil, bad, nil, nil)
	assert.Error(t, err)
}
