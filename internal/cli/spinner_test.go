package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/techtree/pkg/observability"
)

func TestSpinnerBasic(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Computing layout")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Computing layout") {
		t.Errorf("spinner output %q should contain its message", buf.String())
	}
	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := newSpinner(ctx, &buf, "Testing with context")
	s.Start()

	cancel()
	time.Sleep(50 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Stopping")
	s.Start()
	s.Stop()
	s.Stop()

	// Stop without Start must not block.
	newSpinner(context.Background(), &buf, "never started").Stop()
}

func TestSpinnerTracksPhases(t *testing.T) {
	defer observability.Reset()

	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Computing layout")
	restore := s.track()

	observability.Layout().OnPhase(context.Background(), observability.PhaseCrossings, time.Millisecond)
	if got := s.text(); got != "Computing layout crossings" {
		t.Errorf("text() = %q", got)
	}

	restore()
	if _, ok := observability.Layout().(*spinner); ok {
		t.Error("restore should unregister the spinner")
	}
}
