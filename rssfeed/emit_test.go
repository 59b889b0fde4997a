package rssfeed

import (
	"strings"
	"testing"
	"time"

	"github.com/origamihase/wien-oepnv-feed/model"
)

func TestRenderContainsExtensionNamespaceAndCDATA(t *testing.T) {
	now := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	starts := now
	ends := now.Add(60 * time.Hour)

	ch := Channel{Title: "Wien ÖPNV Störungen", Link: "https://example.invalid/", Description: "d", TTLMinutes: 15}
	events := []model.Event{{
		Source: "regional", GUID: "VOR-42", Title: "S7: Bauarbeiten",
		Description: "Schienenersatzverkehr\n01.06.2025 – 03.06.2025",
		PubDate:     now, StartsAt: &starts, EndsAt: &ends, FirstSeen: now,
	}}

	out := string(Render(ch, events, now))

	if !strings.Contains(out, `xmlns:ext=`) {
		t.Errorf("rendered feed missing ext namespace declaration")
	}
	if !strings.Contains(out, "<![CDATA[Schienenersatzverkehr<br/>01.06.2025 – 03.06.2025]]>") {
		t.Errorf("rendered feed missing expected CDATA description:\n%s", out)
	}
	if !strings.Contains(out, `<ext:starts_at>2025-06-01T07:00:00Z</ext:starts_at>`) {
		t.Errorf("rendered feed missing ext:starts_at")
	}
	if !strings.Contains(out, `<ext:ends_at>2025-06-03T19:00:00Z</ext:ends_at>`) {
		t.Errorf("rendered feed missing ext:ends_at")
	}
	if !strings.Contains(out, `isPermaLink="false"`) {
		t.Errorf("rendered feed missing guid isPermaLink attribute")
	}
}

func TestRenderEscapesTitle(t *testing.T) {
	ch := Channel{Title: "t", Link: "l", Description: "d", TTLMinutes: 15}
	events := []model.Event{{Title: "A & B <tag>", PubDate: time.Now().UTC()}}

	out := string(Render(ch, events, time.Now().UTC()))
	if strings.Contains(out, "A & B <tag>") {
		t.Errorf("rendered feed contains unescaped title markup")
	}
	if !strings.Contains(out, "A &amp; B &lt;tag&gt;") {
		t.Errorf("rendered feed missing escaped title:\n%s", out)
	}
}

func TestCdataSafeSplitsEmbeddedTerminator(t *testing.T) {
	got := cdataSafe("before ]]> after")
	want := "before ]]]]><![CDATA[> after"
	if got != want {
		t.Errorf("cdataSafe(%q) = %q, want %q", "before ]]> after", got, want)
	}
}
