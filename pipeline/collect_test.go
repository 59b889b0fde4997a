package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/origamihase/wien-oepnv-feed/model"
)

func TestCollectMergesAllProviders(t *testing.T) {
	sources := []Source{
		{Name: "municipal", Load: func() ([]model.Event, error) {
			return []model.Event{{Source: "municipal", GUID: "m1"}}, nil
		}},
		{Name: "railway", Load: func() ([]model.Event, error) {
			return []model.Event{{Source: "railway", GUID: "r1"}}, nil
		}},
	}

	out, err := collect(context.Background(), sources, 2, time.Second)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("collect() returned %d events, want 2", len(out))
	}
}

func TestCollectProviderErrorYieldsEmptyNotFailure(t *testing.T) {
	sources := []Source{
		{Name: "broken", Load: func() ([]model.Event, error) {
			return nil, errors.New("upstream down")
		}},
		{Name: "ok", Load: func() ([]model.Event, error) {
			return []model.Event{{Source: "ok", GUID: "g1"}}, nil
		}},
	}

	out, err := collect(context.Background(), sources, 2, time.Second)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(out) != 1 || out[0].GUID != "g1" {
		t.Errorf("collect() = %+v, want only the healthy provider's event", out)
	}
}

func TestCollectProviderTimeoutDiscardsPartial(t *testing.T) {
	sources := []Source{
		{Name: "slow", Load: func() ([]model.Event, error) {
			time.Sleep(50 * time.Millisecond)
			return []model.Event{{Source: "slow", GUID: "late"}}, nil
		}},
	}

	out, err := collect(context.Background(), sources, 1, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("collect() with exceeded deadline returned %d events, want 0", len(out))
	}
}
