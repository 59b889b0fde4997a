package pipeline

import (
	"testing"
	"time"

	"github.com/origamihase/wien-oepnv-feed/model"
)

func TestDedupeKeepsLaterEndingEventAndMergesDescriptions(t *testing.T) {
	starts := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	earlyEnds := starts.Add(24 * time.Hour)
	lateEnds := starts.Add(48 * time.Hour)

	a := model.Event{
		Source: "railway", GUID: "WL-1", Title: "S7", Description: "Schienenersatzverkehr. Bitte Anschlussverbindungen beachten.",
		PubDate: starts, StartsAt: &starts, EndsAt: &earlyEnds,
	}
	b := model.Event{
		Source: "railway", GUID: "WL-1", Title: "S7", Description: "Schienenersatzverkehr.",
		PubDate: starts, StartsAt: &starts, EndsAt: &lateEnds,
	}

	out := dedupe([]model.Event{a, b})
	if len(out) != 1 {
		t.Fatalf("dedupe() returned %d events, want 1", len(out))
	}
	if out[0].GUID != "WL-1" {
		t.Errorf("winner GUID = %q, want WL-1", out[0].GUID)
	}
	if out[0].EndsAt == nil || !out[0].EndsAt.Equal(lateEnds) {
		t.Errorf("winner EndsAt = %v, want %v (later-ending candidate)", out[0].EndsAt, lateEnds)
	}
	if !contains(out[0].Description, "Anschlussverbindungen") {
		t.Errorf("winner description %q does not contain the loser's unique sentence", out[0].Description)
	}
}

func TestDedupeProviderPrecedenceBreaksTie(t *testing.T) {
	now := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	municipal := model.Event{Source: "municipal", GUID: "X", Title: "t", Description: "same", PubDate: now}
	regional := model.Event{Source: "regional", GUID: "X", Title: "t", Description: "same", PubDate: now}

	out := dedupe([]model.Event{municipal, regional})
	if len(out) != 1 {
		t.Fatalf("dedupe() returned %d events, want 1", len(out))
	}
	if out[0].Source != "regional" {
		t.Errorf("winner source = %q, want regional (higher precedence)", out[0].Source)
	}
}

func TestDedupeFallsBackToContentHash(t *testing.T) {
	now := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	a := model.Event{Source: "municipal", Title: "Linie 1", Description: "desc", PubDate: now}
	b := model.Event{Source: "municipal", Title: "Linie 2", Description: "desc", PubDate: now}

	out := dedupe([]model.Event{a, b})
	if len(out) != 2 {
		t.Errorf("dedupe() of two distinct no-guid events = %d, want 2 (distinct hash keys)", len(out))
	}
}

func TestDedupeNoDuplicatesPassesThrough(t *testing.T) {
	now := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	events := []model.Event{
		{Source: "municipal", GUID: "A", PubDate: now},
		{Source: "railway", GUID: "B", PubDate: now},
	}
	out := dedupe(events)
	if len(out) != 2 {
		t.Errorf("dedupe() of distinct events = %d, want 2", len(out))
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
