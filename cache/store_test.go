package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/origamihase/wien-oepnv-feed/cmn"
	"github.com/origamihase/wien-oepnv-feed/model"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	al, err := cmn.NewAllowlist(dir)
	if err != nil {
		t.Fatalf("NewAllowlist: %v", err)
	}
	path := filepath.Join(dir, "events.json")
	s, err := New(al, path, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, path
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	events := []model.Event{
		{Source: "municipal", Title: "A", GUID: "g1", PubDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Source: "municipal", Title: "B", GUID: "g2", PubDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
	}
	if err := s.Save(events); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].GUID != "g1" || got[1].GUID != "g2" {
		t.Errorf("Load() = %+v, want 2 events in order", got)
	}
}

func TestStoreLoadMissingFileIsEmptyNotError(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() on missing file returned error: %v", err)
	}
	if got != nil {
		t.Errorf("Load() on missing file = %+v, want nil", got)
	}
}

func TestStoreLoadCorruptFileIsEmptyNotError(t *testing.T) {
	s, path := newTestStore(t)
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() on corrupt file returned error: %v", err)
	}
	if got != nil {
		t.Errorf("Load() on corrupt file = %+v, want nil", got)
	}
}
