package station

import (
	"os"
	"path/filepath"
	"testing"
)

const fixtureJSON = `[
	{"bst_id":"1","name":"Praterstern","aliases":["Wien Praterstern"],"in_vienna":true,"pendler":false,"regional_id":"490132"},
	{"bst_id":"2","name":"Wien Hbf","aliases":["Wien Hauptbahnhof","Hbf"],"in_vienna":true,"pendler":false,"regional_id":"490147"},
	{"bst_id":"3","name":"Gänserndorf","in_vienna":false,"pendler":true,"regional_id":"490011"}
]`

func loadFixture(t *testing.T) *Catalogue {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.json")
	if err := os.WriteFile(path, []byte(fixtureJSON), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestCanonicalize(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"Wien Hbf", "wien hauptbahnhof"},
		{"  Gänserndorf  ", "gaenserndorf"},
		{"Praterstern Bf.", "praterstern bahnhof"},
	}
	for _, tc := range testCases {
		if got := Canonicalize(tc.in); got != tc.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCatalogueLookupByAlias(t *testing.T) {
	c := loadFixture(t)

	if got := c.CanonicalName("Wien Praterstern"); got != "Praterstern" {
		t.Errorf("CanonicalName(alias) = %q, want Praterstern", got)
	}
	if !c.IsInVienna("Wien Hauptbahnhof") {
		t.Errorf("IsInVienna(Wien Hauptbahnhof) = false, want true")
	}
	if !c.IsCommuter("Gänserndorf") {
		t.Errorf("IsCommuter(Gänserndorf) = false, want true")
	}
	if got := c.RegionalIDs("Praterstern"); len(got) != 1 || got[0] != "490132" {
		t.Errorf("RegionalIDs(Praterstern) = %v, want [490132]", got)
	}
	if got := c.CanonicalName("nonexistent station"); got != "" {
		t.Errorf("CanonicalName(unknown) = %q, want empty", got)
	}
}

func TestCatalogueAll(t *testing.T) {
	c := loadFixture(t)
	if got := len(c.All()); got != 3 {
		t.Errorf("All() returned %d records, want 3", got)
	}
}
