package ratelimit

import (
	"path/filepath"
	"testing"

	"github.com/origamihase/wien-oepnv-feed/cmn"
)

func newTestCounter(t *testing.T) *Counter {
	t.Helper()
	dir := t.TempDir()
	al, err := cmn.NewAllowlist(dir)
	if err != nil {
		t.Fatalf("NewAllowlist: %v", err)
	}
	c, err := NewCounter(al, filepath.Join(dir, "ratelimit.json"))
	if err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	return c
}

func TestCounterIncrementsWithinDay(t *testing.T) {
	c := newTestCounter(t)

	for i := 1; i <= 3; i++ {
		got, err := c.Increment()
		if err != nil {
			t.Fatalf("Increment: %v", err)
		}
		if got != i {
			t.Errorf("Increment() call %d = %d, want %d", i, got, i)
		}
	}
	if got := c.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

func TestCounterZeroWhenNoFile(t *testing.T) {
	c := newTestCounter(t)
	if got := c.Count(); got != 0 {
		t.Errorf("Count() on fresh counter = %d, want 0", got)
	}
}
