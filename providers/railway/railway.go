// Package railway adapts the national-railway RSS endpoint to the
// canonical event model (§4.2.b), applying the strict regional filter
// required for an upstream whose scope is nationwide, not Vienna-local.
package railway

import (
	"context"
	"encoding/xml"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/origamihase/wien-oepnv-feed/httpx"
	"github.com/origamihase/wien-oepnv-feed/model"
	"github.com/origamihase/wien-oepnv-feed/station"
	"github.com/origamihase/wien-oepnv-feed/textnorm"
)

const providerName = "railway"

const regionalKeyword = `(?i)\bwien\b|\bvienna\b`

var regionalKeywordRe = regexp.MustCompile(regionalKeyword)

// rssFeed, rssItem are tagged-variant decoders for the upstream RSS
// document: unknown elements are ignored by encoding/xml's default
// behaviour, and a malformed item is handled at the element level by the
// caller skipping it, never aborting the whole batch (§9).
type rssFeed struct {
	XMLName xml.Name  `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

// Adapter implements providers.Adapter for the national-railway RSS feed.
type Adapter struct {
	Client     *httpx.Client
	FeedURL    string
	Stations   *station.Catalogue
	now        func() time.Time
}

func New(client *httpx.Client, feedURL string, stations *station.Catalogue) *Adapter {
	return &Adapter{Client: client, FeedURL: feedURL, Stations: stations, now: time.Now}
}

func (a *Adapter) Name() string { return providerName }

func (a *Adapter) Refresh(ctx context.Context) ([]model.Event, error) {
	resp, err := a.Client.DoWithRetry(ctx, &httpx.Request{Method: "GET", URL: a.FeedURL})
	if err != nil {
		return nil, errors.Wrap(err, "railway: fetch")
	}
	if resp.StatusCode != 200 {
		return nil, errors.Errorf("railway: upstream returned status %d", resp.StatusCode)
	}

	var feed rssFeed
	if err := xml.Unmarshal(resp.Body, &feed); err != nil {
		return nil, errors.Wrap(err, "railway: parse RSS")
	}

	now := a.now().UTC()
	events := make([]model.Event, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		if !a.isInRegion(item.Title + " " + item.Description) {
			continue
		}
		ev, ok := a.normalize(item, now)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// isInRegion accepts an item only if it mentions the regional keyword or
// an explicit in-region station name known to the catalogue; it rejects
// items mentioning only out-of-region endpoints (§4.2.b).
func (a *Adapter) isInRegion(text string) bool {
	if regionalKeywordRe.MatchString(text) {
		return true
	}
	if a.Stations == nil {
		return false
	}
	for _, rec := range a.Stations.All() {
		if !rec.InVienna {
			continue
		}
		if strings.Contains(strings.ToLower(text), strings.ToLower(rec.Name)) {
			return true
		}
	}
	return false
}

var duplicateArrowRe = regexp.MustCompile(`\s*(->|→){2,}\s*`)
var stationPrefixRe = regexp.MustCompile(`^(?i)(ÖBB|REX|RJ|S-?Bahn)[\s:]+`)

func cleanTitle(title string) string {
	t := textnorm.StripHTML(title)
	t = duplicateArrowRe.ReplaceAllString(t, " → ")
	t = stationPrefixRe.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

func (a *Adapter) normalize(item rssItem, now time.Time) (model.Event, bool) {
	pub, err := parseRFC1123(item.PubDate)
	if err != nil {
		pub = now
	}

	summary := textnorm.StripNoise(textnorm.StripHTML(item.Description))
	desc := textnorm.Clip(summary, 170)

	guid := item.GUID
	if guid == "" {
		guid = textnorm.Identity(providerName, "", []string{item.Title}, pub)
	}

	return model.Event{
		Source:      providerName,
		Category:    "disruption",
		Title:       cleanTitle(item.Title),
		Description: desc,
		Link:        item.Link,
		GUID:        guid,
		PubDate:     pub,
	}, true
}

func parseRFC1123(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty pubDate")
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unparseable pubDate %q", s)
}
