package railway

import "testing"

func TestIsInRegionByKeyword(t *testing.T) {
	a := New(nil, "https://example.invalid/rss", nil)
	if !a.isInRegion("Störung Wien Hauptbahnhof") {
		t.Errorf("isInRegion() rejected text mentioning Wien")
	}
	if a.isInRegion("Störung zwischen Salzburg und Linz") {
		t.Errorf("isInRegion() admitted text with no Vienna reference")
	}
}

func TestCleanTitleStripsStationPrefixAndDuplicateArrows(t *testing.T) {
	got := cleanTitle("ÖBB: Wien ->-> Salzburg Verspätung")
	if got != "Wien → Salzburg Verspätung" {
		t.Errorf("cleanTitle() = %q, want %q", got, "Wien → Salzburg Verspätung")
	}
}

func TestParseRFC1123Fallback(t *testing.T) {
	if _, err := parseRFC1123(""); err == nil {
		t.Errorf("parseRFC1123(\"\") succeeded, want error")
	}
	if _, err := parseRFC1123("garbage"); err == nil {
		t.Errorf("parseRFC1123(garbage) succeeded, want error")
	}
	if _, err := parseRFC1123("Mon, 02 Jan 2006 15:04:05 MST"); err != nil {
		t.Errorf("parseRFC1123(valid RFC1123) failed: %v", err)
	}
}
