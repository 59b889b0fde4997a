package regional

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/origamihase/wien-oepnv-feed/cmn"
	"github.com/origamihase/wien-oepnv-feed/ratelimit"
)

func newTestCounter(t *testing.T) *ratelimit.Counter {
	t.Helper()
	dir := t.TempDir()
	al, err := cmn.NewAllowlist(dir)
	if err != nil {
		t.Fatalf("NewAllowlist: %v", err)
	}
	c, err := ratelimit.NewCounter(al, filepath.Join(dir, "regional.count.json"))
	if err != nil {
		t.Fatalf("NewCounter: %v", err)
	}
	return c
}

func TestSelectStationIDsRotatesDeterministically(t *testing.T) {
	a := &Adapter{Cfg: Config{
		StationIDs:        []string{"1", "2", "3", "4"},
		RotationInterval:  30 * time.Minute,
		MaxStationsPerRun: 2,
	}}

	now := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	first := a.selectStationIDs(now)
	second := a.selectStationIDs(now)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("selectStationIDs() returned %d/%d ids, want 2/2", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("selectStationIDs() not deterministic for the same instant: %v vs %v", first, second)
		}
	}

	later := now.Add(30 * time.Minute)
	third := a.selectStationIDs(later)
	if equalSlices(first, third) {
		t.Errorf("selectStationIDs() did not rotate across a rotation interval boundary")
	}
}

func TestPreflightRefusesWhenWorkExceedsBudget(t *testing.T) {
	a := &Adapter{Counter: newTestCounter(t), Cfg: Config{
		RotationInterval:  10 * time.Minute,
		MaxStationsPerRun: 5,
		DailyBudget:       10,
	}}
	// 24h/10min = 144 rotations * 5 stations = 720, far over budget 10.
	err := a.preflight()
	if err == nil {
		t.Errorf("preflight() succeeded, want refusal when work exceeds daily budget")
	}
}

func TestPreflightAllowsWhenWithinBudget(t *testing.T) {
	a := &Adapter{Counter: newTestCounter(t), Cfg: Config{
		RotationInterval:  30 * time.Minute,
		MaxStationsPerRun: 2,
		DailyBudget:       200,
	}}
	if err := a.preflight(); err != nil {
		t.Errorf("preflight() = %v, want nil for work within budget", err)
	}
}

func TestBuildRequestNeverSendsCredentialBothWays(t *testing.T) {
	a := &Adapter{Cfg: Config{BaseURL: "https://vao.example.invalid", AccessID: "secret", AccessIDAsQuery: true}}
	req, err := a.buildRequest("1234")
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if _, headerSet := req.Headers["Authorization"]; headerSet {
		t.Errorf("buildRequest() set Authorization header while AccessIDAsQuery is true")
	}
	if !containsSubstring(req.URL, "accessId=secret") {
		t.Errorf("buildRequest() URL %q missing query credential", req.URL)
	}
}

func TestIsDisrupted(t *testing.T) {
	testCases := []struct {
		status string
		want   bool
	}{
		{"Cancelled", true},
		{"delayed", true},
		{"OnTime", false},
		{"", false},
	}
	for _, tc := range testCases {
		if got := isDisrupted(tc.status); got != tc.want {
			t.Errorf("isDisrupted(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestCapitalize(t *testing.T) {
	if got := capitalize("cancelled"); got != "Cancelled" {
		t.Errorf("capitalize(cancelled) = %q, want Cancelled", got)
	}
	if got := capitalize(""); got != "" {
		t.Errorf("capitalize(\"\") = %q, want empty", got)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
