package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRunObserveCollected(t *testing.T) {
	r := NewRun()
	r.ObserveCollected("municipal", 5)
	r.ObserveCollected("municipal", 3)

	got := testutil.ToFloat64(r.collected.WithLabelValues("municipal"))
	if got != 8 {
		t.Errorf("events_collected_total{provider=municipal} = %v, want 8", got)
	}
}

func TestRunSetEmitted(t *testing.T) {
	r := NewRun()
	r.SetEmitted(12)

	if got := testutil.ToFloat64(r.emitted); got != 12 {
		t.Errorf("events_emitted = %v, want 12", got)
	}
}

func TestRunFinishWithoutPushgatewayDoesNotPanic(t *testing.T) {
	r := NewRun()
	r.Finish("", "oepnv-feed", "feedbuild")
}

func TestRunObserveFetchLatency(t *testing.T) {
	r := NewRun()
	r.ObserveFetchLatency("railway", 250*time.Millisecond)

	if got := testutil.CollectAndCount(r.latency); got != 1 {
		t.Errorf("provider_fetch_seconds sample count = %d, want 1", got)
	}
}
