package pipeline

import (
	"github.com/origamihase/wien-oepnv-feed/model"
	"github.com/origamihase/wien-oepnv-feed/textnorm"
)

// clip enforces MAX_ITEMS and re-clips every surviving description to
// DescriptionCharLimit, since dedupe's sentence-merge can have grown a
// winner's description past the per-item limit applied at normalise time.
func clip(events []model.Event, p Params) []model.Event {
	limit := p.MaxItems
	if limit <= 0 || limit > len(events) {
		limit = len(events)
	}
	out := make([]model.Event, limit)
	copy(out, events[:limit])

	charLimit := p.DescriptionCharLimit
	if charLimit <= 0 {
		charLimit = 170
	}
	for i := range out {
		out[i].Description = textnorm.Clip(out[i].Description, charLimit)
	}
	return out
}
