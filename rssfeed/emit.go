// Package rssfeed renders the aggregation pipeline's output as RSS 2.0,
// per §4.8: an `ext:` namespace carrying first_seen/starts_at/ends_at,
// CDATA-wrapped description/content:encoded, and XML-escaped everything
// else.
package rssfeed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/origamihase/wien-oepnv-feed/cmn"
	"github.com/origamihase/wien-oepnv-feed/model"
)

// Channel carries the feed-level fields configured via cmn.Config.Feed.
type Channel struct {
	Title       string
	Link        string
	Description string
	TTLMinutes  int
}

var viennaLoc = mustLoadVienna()

func mustLoadVienna() *time.Location {
	loc, err := time.LoadLocation("Europe/Vienna")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Render builds the complete RSS document for events, already ordered and
// clipped by the pipeline.
func Render(ch Channel, events []model.Event, now time.Time) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<rss version="2.0" xmlns:ext="https://wien-oepnv-feed.invalid/ext">` + "\n")
	b.WriteString("<channel>\n")

	fmt.Fprintf(&b, "<title>%s</title>\n", escape(ch.Title))
	fmt.Fprintf(&b, "<link>%s</link>\n", escape(ch.Link))
	fmt.Fprintf(&b, "<description>%s</description>\n", escape(ch.Description))
	fmt.Fprintf(&b, "<lastBuildDate>%s</lastBuildDate>\n", now.In(viennaLoc).Format(time.RFC1123Z))
	fmt.Fprintf(&b, "<ttl>%d</ttl>\n", ch.TTLMinutes)

	for _, e := range events {
		writeItem(&b, e)
	}

	b.WriteString("</channel>\n</rss>\n")
	return b.Bytes()
}

func writeItem(b *bytes.Buffer, e model.Event) {
	b.WriteString("<item>\n")
	fmt.Fprintf(b, "<title>%s</title>\n", escape(e.Title))
	if e.Link != "" {
		fmt.Fprintf(b, "<link>%s</link>\n", escape(e.Link))
	}

	desc := brify(e.Description)
	fmt.Fprintf(b, "<description><![CDATA[%s]]></description>\n", cdataSafe(desc))
	fmt.Fprintf(b, "<content:encoded><![CDATA[%s]]></content:encoded>\n", cdataSafe(desc))

	fmt.Fprintf(b, "<pubDate>%s</pubDate>\n", e.PubDate.In(viennaLoc).Format(time.RFC1123Z))
	fmt.Fprintf(b, `<guid isPermaLink="false">%s</guid>`+"\n", escape(e.GUID))

	if !e.FirstSeen.IsZero() {
		fmt.Fprintf(b, "<ext:first_seen>%s</ext:first_seen>\n", e.FirstSeen.UTC().Format(time.RFC3339))
	}
	if e.StartsAt != nil {
		fmt.Fprintf(b, "<ext:starts_at>%s</ext:starts_at>\n", e.StartsAt.UTC().Format(time.RFC3339))
	}
	if e.EndsAt != nil {
		fmt.Fprintf(b, "<ext:ends_at>%s</ext:ends_at>\n", e.EndsAt.UTC().Format(time.RFC3339))
	}

	b.WriteString("</item>\n")
}

// brify turns description line breaks into <br/>, the only markup CDATA
// content is permitted to carry per §4.8.
func brify(s string) string {
	return strings.ReplaceAll(s, "\n", "<br/>")
}

// cdataSafe guards against the one sequence that would break out of a
// CDATA section: a literal "]]>" is split so it can never terminate the
// section early.
func cdataSafe(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

// Write renders and atomically persists the feed to path, per §4.5/§4.8.
func Write(al *cmn.Allowlist, path string, ch Channel, events []model.Event, now time.Time) error {
	validated, err := al.Validate(path)
	if err != nil {
		return errors.Wrap(err, "rssfeed: validate output path")
	}
	doc := Render(ch, events, now)
	if err := cmn.WriteFileAtomic(validated, doc, false); err != nil {
		return errors.Wrap(err, "rssfeed: write output")
	}
	return nil
}
