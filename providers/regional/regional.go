// Package regional adapts the regional-authority REST DepartureBoard
// endpoint to the canonical event model (§4.2.c), enforcing the three
// layered defences of the daily request budget: pre-flight refusal,
// runtime circuit breaker, and the persistent cross-process counter.
package regional

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/origamihase/wien-oepnv-feed/httpx"
	"github.com/origamihase/wien-oepnv-feed/model"
	"github.com/origamihase/wien-oepnv-feed/ratelimit"
	"github.com/origamihase/wien-oepnv-feed/station"
	"github.com/origamihase/wien-oepnv-feed/textnorm"
)

const providerName = "regional"

// ErrRateLimitExceeded is returned when either the pre-flight check or the
// runtime circuit breaker refuses the run; the adapter's cache file is
// left untouched by the caller in this case (§7).
type ErrRateLimitExceeded struct{ Reason string }

func (e *ErrRateLimitExceeded) Error() string { return "regional: rate limit: " + e.Reason }

// Config holds everything the adapter needs beyond the shared HTTP client
// and station catalogue.
type Config struct {
	BaseURL           string
	AccessID          string
	AccessIDAsQuery   bool
	JWTSecret         string
	StationIDs        []string
	RotationInterval  time.Duration
	MaxStationsPerRun int
	DailyBudget       int
	RunCircuitBreaker int
}

// Adapter implements providers.Adapter for the regional-authority source.
type Adapter struct {
	Client   *httpx.Client
	Stations *station.Catalogue
	Counter  *ratelimit.Counter
	Cfg      Config
	now      func() time.Time
}

func New(client *httpx.Client, stations *station.Catalogue, counter *ratelimit.Counter, cfg Config) *Adapter {
	return &Adapter{Client: client, Stations: stations, Counter: counter, Cfg: cfg, now: time.Now}
}

func (a *Adapter) Name() string { return providerName }

func (a *Adapter) Refresh(ctx context.Context) ([]model.Event, error) {
	if err := a.preflight(); err != nil {
		return nil, err
	}

	ids := a.selectStationIDs(a.now())

	var (
		events  []model.Event
		runReqs int
	)
	for _, id := range ids {
		if runReqs >= a.Cfg.RunCircuitBreaker {
			return events, &ErrRateLimitExceeded{Reason: fmt.Sprintf("runtime circuit breaker tripped after %d requests this run", runReqs)}
		}

		// The persistent counter is incremented before the attempt, so
		// that denials and timeouts still count against the budget.
		if _, err := a.Counter.Increment(); err != nil {
			return events, errors.Wrap(err, "regional: increment rate-limit counter")
		}
		runReqs++

		got, err := a.fetchStation(ctx, id)
		if err != nil {
			// A single station's failure does not abort the whole batch
			// (§7 ParseError/TransportError propagation policy).
			continue
		}
		events = append(events, got...)
	}
	return events, nil
}

// preflight refuses to start the refresh if the configured work —
// rotations/day times stations/rotation — would exceed the daily budget,
// per §4.2.c step 1.
func (a *Adapter) preflight() error {
	if a.Cfg.RotationInterval <= 0 {
		return &ErrRateLimitExceeded{Reason: "rotation interval must be positive"}
	}
	rotationsPerDay := int(24 * time.Hour / a.Cfg.RotationInterval)
	work := rotationsPerDay * a.Cfg.MaxStationsPerRun
	if work > a.Cfg.DailyBudget {
		return &ErrRateLimitExceeded{
			Reason: fmt.Sprintf("%d rotations/day × %d stations = %d exceeds daily budget %d", rotationsPerDay, a.Cfg.MaxStationsPerRun, work, a.Cfg.DailyBudget),
		}
	}
	if already := a.Counter.Count(); already+a.Cfg.MaxStationsPerRun > a.Cfg.DailyBudget {
		return &ErrRateLimitExceeded{
			Reason: fmt.Sprintf("today's count %d + this run's up to %d requests would exceed daily budget %d", already, a.Cfg.MaxStationsPerRun, a.Cfg.DailyBudget),
		}
	}
	return nil
}

// selectStationIDs picks at most MaxStationsPerRun ids using deterministic
// round-robin keyed by floor(now / rotationInterval) mod N, per §4.2.c.
// Falls back to resolving station names through the catalogue when no
// explicit id list is configured.
func (a *Adapter) selectStationIDs(now time.Time) []string {
	ids := a.Cfg.StationIDs
	if len(ids) == 0 && a.Stations != nil {
		for _, rec := range a.Stations.All() {
			if rec.RegionalID != "" {
				ids = append(ids, rec.RegionalID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	n := len(ids)
	slot := int(now.Unix()/int64(a.Cfg.RotationInterval.Seconds())) % n
	if slot < 0 {
		slot += n
	}

	take := a.Cfg.MaxStationsPerRun
	if take > n {
		take = n
	}
	selected := make([]string, 0, take)
	for i := 0; i < take; i++ {
		selected = append(selected, ids[(slot+i)%n])
	}
	return selected
}

type departureBoardResponse struct {
	Departures []departure `json:"Departure"`
}

type departure struct {
	Name       string  `json:"name"`
	Direction  string  `json:"direction"`
	RTTime     string  `json:"rtTime"`
	RTDate     string  `json:"rtDate"`
	Time       string  `json:"time"`
	Date       string  `json:"date"`
	Stop       locStop `json:"Stop"`
	JourneyStatus string `json:"JourneyStatus"`
}

type locStop struct {
	Name string `json:"name"`
}

func (a *Adapter) fetchStation(ctx context.Context, stationID string) ([]model.Event, error) {
	req, err := a.buildRequest(stationID)
	if err != nil {
		return nil, err
	}

	resp, err := a.Client.DoWithRetry(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "regional: fetch station %s", stationID)
	}
	if resp.StatusCode != 200 {
		return nil, errors.Errorf("regional: station %s returned status %d", stationID, resp.StatusCode)
	}

	var payload departureBoardResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, errors.Wrapf(err, "regional: parse station %s", stationID)
	}

	now := a.now().UTC()
	events := make([]model.Event, 0, len(payload.Departures))
	for _, d := range payload.Departures {
		if !isDisrupted(d.JourneyStatus) {
			continue
		}
		ev := a.normalize(stationID, d, now)
		events = append(events, ev)
	}
	return events, nil
}

// buildRequest never sends the access credential as both a header and a
// query parameter: AccessIDAsQuery selects exactly one transport, and the
// JWT path is mutually exclusive with the access-id path (enforced at
// configuration time in cmn.Load).
func (a *Adapter) buildRequest(stationID string) (*httpx.Request, error) {
	url := fmt.Sprintf("%s/departureBoard?id=%s&format=json", a.Cfg.BaseURL, stationID)
	req := &httpx.Request{Method: "GET", URL: url}

	switch {
	case a.Cfg.JWTSecret != "":
		tok, err := mintBearerToken(a.Cfg.JWTSecret, 5*time.Minute)
		if err != nil {
			return nil, err
		}
		req.Headers = map[string][]string{"Authorization": {"Bearer " + tok}}
	case a.Cfg.AccessIDAsQuery:
		req.URL += "&accessId=" + a.Cfg.AccessID
	default:
		req.Headers = map[string][]string{"Authorization": {a.Cfg.AccessID}}
	}
	return req, nil
}

func isDisrupted(status string) bool {
	switch strings.ToLower(status) {
	case "cancelled", "delayed", "reducedvalidity", "detour":
		return true
	default:
		return false
	}
}

func (a *Adapter) normalize(stationID string, d departure, now time.Time) model.Event {
	pub := parseVAOTime(d.RTDate, d.RTTime, d.Date, d.Time, now)
	title := fmt.Sprintf("%s: %s", d.Name, capitalize(strings.ToLower(d.JourneyStatus)))
	desc := textnorm.Clip(fmt.Sprintf("Richtung %s, Halt %s", d.Direction, firstNonEmpty(d.Stop.Name, stationID)), 170)

	identity := textnorm.Identity(providerName, d.JourneyStatus, []string{d.Name}, pub)
	return model.Event{
		Source:      providerName,
		Category:    d.JourneyStatus,
		Title:       title,
		Description: desc,
		GUID:        identity,
		PubDate:     pub,
		Identity:    identity,
	}
}

func parseVAOTime(rtDate, rtTime, date, timeStr string, fallback time.Time) time.Time {
	d, t := date, timeStr
	if rtDate != "" {
		d = rtDate
	}
	if rtTime != "" {
		t = rtTime
	}
	if d == "" || t == "" {
		return fallback
	}
	parsed, err := time.Parse("2006-01-02 15:04:05", d+" "+t)
	if err != nil {
		return fallback
	}
	return parsed.UTC()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
