package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/origamihase/wien-oepnv-feed/model"
)

func TestRunFullStateMachine(t *testing.T) {
	now := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	starts := now.Add(time.Hour)
	ends := now.Add(48 * time.Hour)

	sources := []Source{
		{Name: "regional", Load: func() ([]model.Event, error) {
			return []model.Event{{
				Source: "regional", GUID: "VOR-42", Title: "S7: Bauarbeiten",
				Description: "Schienenersatzverkehr",
				PubDate:     now, StartsAt: &starts, EndsAt: &ends,
			}}, nil
		}},
		{Name: "railway", Load: func() ([]model.Event, error) {
			return []model.Event{{
				Source: "railway", GUID: "VOR-42", Title: "S7: Bauarbeiten (ÖBB)",
				Description: "Schienenersatzverkehr",
				PubDate:     now, StartsAt: &starts, EndsAt: &ends,
			}}, nil
		}},
	}

	params := Params{
		MaxItemAgeDays:        365,
		AbsoluteMaxAgeDays:    540,
		EndsAtGraceMinutes:    10,
		FreshPubDateWindowMin: 5,
		MaxItems:              30,
		DescriptionCharLimit:  170,
		ProviderTimeout:       time.Second,
		Now:                   now,
	}

	result, err := Run(context.Background(), sources, map[string]time.Time{}, params, 2)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Events) != 1 {
		t.Fatalf("Run() emitted %d events, want 1 (deduped by shared guid)", len(result.Events))
	}
	if result.Events[0].Source != "regional" {
		t.Errorf("winning source = %q, want regional (provider precedence)", result.Events[0].Source)
	}
	if _, ok := result.FirstSeen["VOR-42"]; !ok {
		t.Errorf("FirstSeen does not contain VOR-42 after admission")
	}
}

func TestRunDropsEverythingWhenAllPruned(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ancient := now.AddDate(-2, 0, 0)

	sources := []Source{
		{Name: "municipal", Load: func() ([]model.Event, error) {
			return []model.Event{{Source: "municipal", GUID: "old", PubDate: ancient}}, nil
		}},
	}
	params := Params{
		MaxItemAgeDays:     365,
		AbsoluteMaxAgeDays: 540,
		EndsAtGraceMinutes: 10,
		MaxItems:           30,
		ProviderTimeout:    time.Second,
		Now:                now,
	}

	result, err := Run(context.Background(), sources, map[string]time.Time{}, params, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Events) != 0 {
		t.Errorf("Run() = %d events, want 0 (all pruned)", len(result.Events))
	}
}
