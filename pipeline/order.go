package pipeline

import (
	"sort"
	"time"

	"github.com/origamihase/wien-oepnv-feed/model"
)

// order sorts descending by pub_date (ties: starts_at descending, then
// title lexicographically) and substitutes now for pub_date when the
// event is fresh and was not previously in first_seen, per §4.7 "Order".
func order(events []model.Event, firstSeen map[string]time.Time, p Params) []model.Event {
	window := time.Duration(p.FreshPubDateWindowMin) * time.Minute

	out := make([]model.Event, len(events))
	copy(out, events)

	for i, e := range out {
		_, previouslySeen := firstSeen[e.Key()]
		if !previouslySeen && p.Now.Sub(e.PubDate) >= 0 && p.Now.Sub(e.PubDate) <= window {
			out[i].PubDate = p.Now
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.PubDate.Equal(b.PubDate) {
			return a.PubDate.After(b.PubDate)
		}
		aStarts, bStarts := startsOrZero(a), startsOrZero(b)
		if !aStarts.Equal(bStarts) {
			return aStarts.After(bStarts)
		}
		return a.Title < b.Title
	})
	return out
}

func startsOrZero(e model.Event) time.Time {
	if e.StartsAt != nil {
		return *e.StartsAt
	}
	return time.Time{}
}
