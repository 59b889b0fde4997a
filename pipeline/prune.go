package pipeline

import (
	"time"

	"github.com/origamihase/wien-oepnv-feed/model"
)

// prune drops an event if any rule of §4.7 "Prune" fires. firstSeen is
// consulted for the fourth rule; events absent from it (newly admitted
// this run) are exempt from it by construction.
func prune(events []model.Event, firstSeen map[string]time.Time, p Params) []model.Event {
	maxAge := time.Duration(p.MaxItemAgeDays) * 24 * time.Hour
	absMaxAge := time.Duration(p.AbsoluteMaxAgeDays) * 24 * time.Hour
	grace := time.Duration(p.EndsAtGraceMinutes) * time.Minute

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if p.Now.Sub(e.PubDate) > absMaxAge {
			continue
		}
		if p.Now.Sub(e.PubDate) > maxAge && (e.EndsAt == nil || !e.EndsAt.After(p.Now)) {
			continue
		}
		if e.EndsAt != nil && p.Now.Sub(*e.EndsAt) > grace {
			continue
		}
		if seen, ok := firstSeen[e.Key()]; ok && p.Now.Sub(seen) > maxAge {
			continue
		}
		out = append(out, e)
	}
	return out
}
