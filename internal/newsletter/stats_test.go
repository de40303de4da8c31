package newsletter

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLLMStatsSnapshotPercentiles(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	for _, ms := range []int{300, 100, 500, 200, 400} {
		stats.Record(time.Duration(ms)*time.Millisecond, nil)
	}

	snap := stats.Snapshot()
	if snap.Calls != 5 {
		t.Fatalf("expected calls=5, got %d", snap.Calls)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	for name, pair := range map[string][2]float64{
		"p50": {snap.P50Ms, 300},
		"p95": {snap.P95Ms, 480},
		"p99": {snap.P99Ms, 496},
	} {
		if d := pair[0] - pair[1]; d > 1e-9 || d < -1e-9 {
			t.Errorf("%s: expected %v, got %v", name, pair[1], pair[0])
		}
	}
	if snap.Window != "1h0m0s" {
		t.Errorf("unexpected window %q", snap.Window)
	}
}

func TestLLMStatsPrunesExpiredSamples(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	stats := NewLLMStats(10 * time.Minute)
	stats.now = clock.now

	stats.Record(100*time.Millisecond, nil)
	clock.advance(5 * time.Minute)
	stats.Record(200*time.Millisecond, nil)
	clock.advance(6 * time.Minute)

	snap := stats.Snapshot()
	if snap.Calls != 1 {
		t.Fatalf("expected calls=1 after prune, got %d", snap.Calls)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}

	clock.advance(time.Hour)
	if snap := stats.Snapshot(); snap.Calls != 0 {
		t.Fatalf("expected empty window, got %d calls", snap.Calls)
	}
}

func TestLLMStatsCountsErrorsAndClampsNegative(t *testing.T) {
	stats := NewLLMStats(time.Hour)
	stats.Record(-10*time.Millisecond, nil)
	stats.Record(50*time.Millisecond, errors.New("boom"))

	snap := stats.Snapshot()
	if snap.Calls != 2 || snap.Errors != 1 {
		t.Fatalf("expected calls=2 errors=1, got calls=%d errors=%d", snap.Calls, snap.Errors)
	}
	if snap.MinMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d", snap.MinMs)
	}
}
