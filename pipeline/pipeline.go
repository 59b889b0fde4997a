// Package pipeline implements the aggregation state machine of §4.7:
// Collect → Normalise → Prune → Dedupe → Order → Clip → Emit. Only
// Collect runs concurrently (§5); everything from Normalise onward is
// single-threaded and deterministic given identical inputs.
package pipeline

import (
	"context"
	"time"

	"github.com/origamihase/wien-oepnv-feed/cmn"
	"github.com/origamihase/wien-oepnv-feed/model"
)

// Source is one provider's contribution to a feed build: a name (for
// precedence and logging) plus a function that loads its cache. Kept as
// an interface-free struct of closures so the pipeline package need not
// import the concrete provider or cache packages.
type Source struct {
	Name string
	Load func() ([]model.Event, error)
}

// Params bundles every tunable referenced by the prune/order/clip stages,
// read from the immutable cmn.Config snapshot by the caller.
type Params struct {
	MaxItemAgeDays        int
	AbsoluteMaxAgeDays    int
	EndsAtGraceMinutes    int
	FreshPubDateWindowMin int
	MaxItems              int
	DescriptionCharLimit  int
	ProviderTimeout       time.Duration
	Now                   time.Time
}

func ParamsFromConfig(c *cmn.Config, now time.Time) Params {
	return Params{
		MaxItemAgeDays:        c.Feed.MaxItemAgeDays,
		AbsoluteMaxAgeDays:    c.Feed.AbsoluteMaxAgeDays,
		EndsAtGraceMinutes:    c.Feed.EndsAtGraceMinutes,
		FreshPubDateWindowMin: c.Feed.FreshPubDateWindowMin,
		MaxItems:              c.Feed.MaxItems,
		DescriptionCharLimit:  c.Feed.DescriptionCharLimit,
		ProviderTimeout:       c.Runtime.ProviderTimeout,
		Now:                   now,
	}
}

// Result is the output of a full pipeline run, ready for rssfeed.Write.
type Result struct {
	Events     []model.Event
	FirstSeen  map[string]time.Time // updated map, ready for state.Store.Save
	Collected  int
	Pruned     int
	Deduped    int
}

// Run executes every stage in order. firstSeen is the map loaded from the
// state store before the call; Run returns the updated map (new entries
// added, stale entries purged) without mutating the input.
func Run(ctx context.Context, sources []Source, firstSeen map[string]time.Time, p Params, workers int) (Result, error) {
	collected, err := collect(ctx, sources, workers, p.ProviderTimeout)
	if err != nil {
		return Result{}, err
	}
	normalised := normalise(collected, firstSeen)
	pruned := prune(normalised, firstSeen, p)
	deduped := dedupe(pruned)
	ordered := order(deduped, firstSeen, p)
	clipped := clip(ordered, p)

	newFirstSeen := admitFirstSeen(clipped, firstSeen, p.Now)

	return Result{
		Events:    clipped,
		FirstSeen: newFirstSeen,
		Collected: len(collected),
		Pruned:    len(normalised) - len(pruned),
		Deduped:   len(pruned) - len(deduped),
	}, nil
}

// admitFirstSeen inserts "now" for any admitted event not already present
// in firstSeen, then retains only entries referenced by the emitted set
// (§4.6).
func admitFirstSeen(events []model.Event, prior map[string]time.Time, now time.Time) map[string]time.Time {
	next := make(map[string]time.Time, len(events))
	for _, e := range events {
		key := e.Key()
		if key == "" {
			continue
		}
		if t, ok := prior[key]; ok {
			next[key] = t
		} else {
			next[key] = now
		}
	}
	return next
}
