package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/origamihase/wien-oepnv-feed/cmn"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	al, err := cmn.NewAllowlist(dir)
	if err != nil {
		t.Fatalf("NewAllowlist: %v", err)
	}
	s, err := New(al, filepath.Join(dir, "first_seen.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestFirstSeenRoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := map[string]time.Time{
		"VOR-42": time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC),
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := s.Load()
	if len(got) != 1 || !got["VOR-42"].Equal(want["VOR-42"]) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestFirstSeenLoadMissingFileIsEmptyMap(t *testing.T) {
	s := newTestStore(t)
	got := s.Load()
	if len(got) != 0 {
		t.Errorf("Load() on missing file = %+v, want empty map", got)
	}
}
