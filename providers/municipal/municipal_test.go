package municipal

import (
	"regexp"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestNormalizeDropsInactiveStatus(t *testing.T) {
	a := New(nil, "https://example.invalid/", nil, nil)
	it := upstreamItem{ID: "1", Status: "resolved", Title: "x"}

	_, ok := a.normalize(it, time.Now().UTC())
	if ok {
		t.Errorf("normalize() admitted an inactive-status item")
	}
}

func TestNormalizeDropsFacilityMaintenanceOnly(t *testing.T) {
	a := New(nil, "https://example.invalid/", nil, nil)
	it := upstreamItem{ID: "1", Status: "active", Category: "Aufzug", Title: "Aufzug außer Betrieb"}

	_, ok := a.normalize(it, time.Now().UTC())
	if ok {
		t.Errorf("normalize() admitted a facility-maintenance-only item")
	}
}

func TestNormalizeKeepsElevatorWithLineImpact(t *testing.T) {
	a := New(nil, "https://example.invalid/", nil, nil)
	it := upstreamItem{ID: "1", Status: "active", Category: "Aufzug", Title: "Aufzug defekt, Linie U6 betroffen"}

	_, ok := a.normalize(it, time.Now().UTC())
	if !ok {
		t.Errorf("normalize() dropped an elevator item that also names a line")
	}
}

func TestNormalizeAppliesCategoryFilters(t *testing.T) {
	include := regexp.MustCompile("(?i)disruption")
	exclude := regexp.MustCompile("(?i)planned")
	a := New(nil, "https://example.invalid/", include, exclude)

	admitted, ok := a.normalize(upstreamItem{ID: "1", Status: "active", Category: "disruption", Title: "x"}, time.Now().UTC())
	if !ok {
		t.Fatalf("normalize() rejected an included category")
	}
	if admitted.Category != "disruption" {
		t.Errorf("admitted category = %q, want disruption", admitted.Category)
	}

	_, ok = a.normalize(upstreamItem{ID: "2", Status: "active", Category: "planned disruption", Title: "x"}, time.Now().UTC())
	if ok {
		t.Errorf("normalize() admitted an excluded category")
	}

	_, ok = a.normalize(upstreamItem{ID: "3", Status: "active", Category: "news", Title: "x"}, time.Now().UTC())
	if ok {
		t.Errorf("normalize() admitted a category not matching the include filter")
	}
}

func TestNormalizeUsesUpstreamIDAsGUID(t *testing.T) {
	a := New(nil, "https://example.invalid/", nil, nil)
	it := upstreamItem{ID: "wl-99", Status: "active", Category: "c", Title: "t", Start: strPtr("2025-06-01T07:00:00Z")}

	ev, ok := a.normalize(it, time.Now().UTC())
	if !ok {
		t.Fatalf("normalize() rejected item")
	}
	if ev.GUID != "wl-99" {
		t.Errorf("GUID = %q, want wl-99", ev.GUID)
	}
	if ev.StartsAt == nil {
		t.Errorf("StartsAt not parsed from Start field")
	}
}
