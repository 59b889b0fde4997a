// Package municipal adapts the Vienna municipal realtime disturbance/news
// endpoint to the canonical event model (§4.2.a). The source is
// by-definition in-region, so no regional filter is applied; the only
// filtering here is upstream status and an optional operator-configured
// category include/exclude pair.
package municipal

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/origamihase/wien-oepnv-feed/httpx"
	"github.com/origamihase/wien-oepnv-feed/model"
	"github.com/origamihase/wien-oepnv-feed/textnorm"
)

const providerName = "municipal"

// upstreamPayload is the tagged-variant decoder for the upstream response:
// parsed defensively, unknown fields ignored, type mismatches at the
// element level treated as parse errors for that element only (§9).
type upstreamPayload struct {
	Disturbances []json.RawMessage `json:"disturbances"`
	News         []json.RawMessage `json:"news"`
}

type upstreamItem struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lines       []string `json:"lines"`
	Link        string   `json:"link"`
	Start       *string  `json:"start"`
	End         *string  `json:"end"`
	Published   *string  `json:"published"`
}

// Adapter implements providers.Adapter for the municipal realtime source.
type Adapter struct {
	Client          *httpx.Client
	BaseURL         string
	CategoryInclude *regexp.Regexp
	CategoryExclude *regexp.Regexp
	now             func() time.Time
}

// New constructs an Adapter. includeRe/excludeRe may be nil to disable
// that filter entirely.
func New(client *httpx.Client, baseURL string, includeRe, excludeRe *regexp.Regexp) *Adapter {
	return &Adapter{Client: client, BaseURL: baseURL, CategoryInclude: includeRe, CategoryExclude: excludeRe, now: time.Now}
}

func (a *Adapter) Name() string { return providerName }

func (a *Adapter) Refresh(ctx context.Context) ([]model.Event, error) {
	resp, err := a.Client.DoWithRetry(ctx, &httpx.Request{Method: "GET", URL: a.BaseURL})
	if err != nil {
		return nil, errors.Wrap(err, "municipal: fetch")
	}
	if resp.StatusCode != 200 {
		return nil, errors.Errorf("municipal: upstream returned status %d", resp.StatusCode)
	}

	var payload upstreamPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, errors.Wrap(err, "municipal: parse payload")
	}

	now := a.now().UTC()
	events := make([]model.Event, 0, len(payload.Disturbances)+len(payload.News))
	for _, raw := range append(payload.Disturbances, payload.News...) {
		var it upstreamItem
		if err := json.Unmarshal(raw, &it); err != nil {
			continue
		}
		ev, ok := a.normalize(it, now)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (a *Adapter) normalize(it upstreamItem, now time.Time) (model.Event, bool) {
	if !isActive(it.Status) {
		return model.Event{}, false
	}
	if isFacilityMaintenanceOnly(it.Category, it.Title) {
		return model.Event{}, false
	}
	if !a.categoryAllowed(it.Category) {
		return model.Event{}, false
	}

	title := textnorm.StripNoise(textnorm.StripHTML(it.Title))
	summary := textnorm.StripNoise(textnorm.StripHTML(it.Description))

	pub := parseTimeOrNow(it.Published, now)
	starts := parseTimePtr(it.Start)
	ends := parseTimePtr(it.End)

	phrase := textnorm.TimePhrase(now, starts, ends)
	desc := summary
	if phrase != "" {
		desc = desc + "\n" + phrase
	}
	desc = textnorm.Clip(desc, 170)

	identity := it.ID
	if identity == "" {
		identity = textnorm.Identity(providerName, it.Category, it.Lines, pub)
	}

	return model.Event{
		Source:      providerName,
		Category:    it.Category,
		Title:       title,
		Description: desc,
		Link:        it.Link,
		GUID:        firstNonEmpty(it.ID, identity),
		PubDate:     pub,
		StartsAt:    starts,
		EndsAt:      ends,
		Identity:    identity,
	}, true
}

func (a *Adapter) categoryAllowed(category string) bool {
	if a.CategoryExclude != nil && a.CategoryExclude.MatchString(category) {
		return false
	}
	if a.CategoryInclude != nil && !a.CategoryInclude.MatchString(category) {
		return false
	}
	return true
}

func isActive(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "aktiv", "ongoing", "":
		return true
	default:
		return false
	}
}

// isFacilityMaintenanceOnly recognises pure facility-maintenance notes
// (e.g. "Aufzug außer Betrieb" with no service-level line impact), which
// §4.2.a excludes even though the source reports them as active.
func isFacilityMaintenanceOnly(category, title string) bool {
	lc := strings.ToLower(category + " " + title)
	return strings.Contains(lc, "aufzug") && !strings.Contains(lc, "linie")
}

func parseTimeOrNow(s *string, now time.Time) time.Time {
	if t := parseTimePtr(s); t != nil {
		return *t
	}
	return now
}

func parseTimePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
