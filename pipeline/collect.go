package pipeline

import (
	"context"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/semaphore"

	"github.com/origamihase/wien-oepnv-feed/model"
)

// collected is one provider's Collect-stage outcome, kept around only for
// the warning glog.Warningf already emits; callers only see the flattened
// event slice.
type collected struct {
	provider string
	events   []model.Event
	err      error
}

// collect runs every source's Load concurrently, bounded to workers slots,
// each under its own deadline (§5: "a single overall deadline PROVIDER_TIMEOUT
// applies to each provider's cache read"). A provider that errors or times
// out contributes an empty slice and a warning; it never aborts the batch.
func collect(ctx context.Context, sources []Source, workers int, timeout time.Duration) ([]model.Event, error) {
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	sem := semaphore.NewWeighted(int64(workers))
	results := make([]collected, len(sources))

	done := make(chan struct{})
	for i, src := range sources {
		i, src := i, src
		go func() {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = collected{provider: src.Name, err: err}
				done <- struct{}{}
				return
			}
			defer sem.Release(1)
			results[i] = runOne(src, timeout)
			done <- struct{}{}
		}()
	}
	for range sources {
		<-done
	}

	var all []model.Event
	for _, r := range results {
		if r.err != nil {
			glog.Warningf("pipeline: provider %s contributed no events: %v", r.provider, r.err)
			continue
		}
		all = append(all, r.events...)
	}
	return all, nil
}

// runOne races a single provider's Load against the configured
// PROVIDER_TIMEOUT, applied here as a fixed per-call budget since Load
// itself takes no context (it reads a local cache file, not the network).
// A goroutine left running past the deadline is abandoned; its result is
// discarded when it eventually arrives on the buffered channel.
func runOne(src Source, timeout time.Duration) collected {
	type outcome struct {
		events []model.Event
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		events, err := src.Load()
		ch <- outcome{events: events, err: err}
	}()

	select {
	case o := <-ch:
		return collected{provider: src.Name, events: o.events, err: o.err}
	case <-time.After(timeout):
		return collected{provider: src.Name, err: context.DeadlineExceeded}
	}
}
