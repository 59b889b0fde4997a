package pipeline

import (
	"time"

	"github.com/origamihase/wien-oepnv-feed/model"
)

// normalise drops structurally invalid events (§3's Valid invariant) and
// annotates each survivor with its FirstSeen instant from the prior run's
// state map, so later stages can prune/order on it without a second lookup.
func normalise(events []model.Event, firstSeen map[string]time.Time) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if !e.Valid() {
			continue
		}
		if t, ok := firstSeen[e.Key()]; ok {
			e.FirstSeen = t
		}
		out = append(out, e)
	}
	return out
}
