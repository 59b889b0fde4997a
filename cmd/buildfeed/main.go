// Command buildfeed reads every enabled provider's cache file, runs the
// aggregation pipeline, and writes the consolidated RSS feed and updated
// first-seen state atomically. It fetches nothing from upstream providers;
// once the feed is written it uploads it to any configured object-store
// mirrors and pushes run metrics to a configured Pushgateway.
package main

import (
	"context"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/origamihase/wien-oepnv-feed/cache"
	"github.com/origamihase/wien-oepnv-feed/cmn"
	"github.com/origamihase/wien-oepnv-feed/metrics"
	"github.com/origamihase/wien-oepnv-feed/model"
	"github.com/origamihase/wien-oepnv-feed/pipeline"
	"github.com/origamihase/wien-oepnv-feed/publish"
	"github.com/origamihase/wien-oepnv-feed/rssfeed"
	"github.com/origamihase/wien-oepnv-feed/state"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer glog.Flush() // always flush

	cfg, err := cmn.Load()
	if err != nil {
		glog.Errorf("buildfeed: configuration invalid: %v", err)
		return 1
	}

	now := time.Now().UTC()
	metricsRun := metrics.NewRun()

	sources := enabledSources(cfg, metricsRun)
	if len(sources) == 0 {
		glog.Errorf("buildfeed: no provider is enabled")
		return 2
	}

	stateStore, err := state.New(cfg.Allowlist, cfg.State.Path)
	if err != nil {
		glog.Errorf("buildfeed: first-seen store: %v", err)
		return 1
	}
	firstSeen := stateStore.Load()

	timeout := time.Duration(len(sources))*cfg.Runtime.ProviderTimeout + 5*time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	params := pipeline.ParamsFromConfig(cfg, now)
	result, err := pipeline.Run(ctx, sources, firstSeen, params, cfg.Runtime.MaxWorkers)
	if err != nil {
		glog.Errorf("buildfeed: pipeline run failed: %v", err)
		return 3
	}

	if result.Collected == 0 {
		glog.Errorf("buildfeed: no enabled provider produced data")
		return 2
	}

	metricsRun.SetEmitted(len(result.Events))

	ch := rssfeed.Channel{
		Title:       cfg.Feed.Title,
		Link:        cfg.Feed.Link,
		Description: cfg.Feed.Description,
		TTLMinutes:  cfg.Feed.TTLMinutes,
	}
	if err := rssfeed.Write(cfg.Allowlist, cfg.Feed.OutPath, ch, result.Events, now); err != nil {
		glog.Errorf("buildfeed: write feed: %v", err)
		return 3
	}

	if err := stateStore.Save(result.FirstSeen); err != nil {
		glog.Warningf("buildfeed: persist first-seen state: %v", err)
	}

	if data, readErr := os.ReadFile(cfg.Feed.OutPath); readErr == nil {
		publish.ToAll(ctx, cfg, "feed.xml", data)
	}

	metricsRun.Finish(cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName, "feedbuild")

	glog.Infof("buildfeed: collected=%d pruned=%d deduped=%d emitted=%d",
		result.Collected, result.Pruned, result.Deduped, len(result.Events))
	return 0
}

// enabledSources builds one pipeline.Source per enabled provider, reading
// straight from its cache file; refresh (network fetch) is a separate
// command entirely (§2).
func enabledSources(cfg *cmn.Config, run *metrics.Run) []pipeline.Source {
	var sources []pipeline.Source

	add := func(name string, enabled bool) {
		if !enabled {
			return
		}
		cacheFile, err := cfg.CacheFile(name)
		if err != nil {
			glog.Warningf("buildfeed: %s: invalid cache path: %v", name, err)
			return
		}
		store, err := cache.New(cfg.Allowlist, cacheFile, false)
		if err != nil {
			glog.Warningf("buildfeed: %s: cache store: %v", name, err)
			return
		}
		sources = append(sources, pipeline.Source{
			Name: name,
			Load: func() ([]model.Event, error) {
				events, err := store.Load()
				if err != nil {
					return nil, err
				}
				run.ObserveCollected(name, len(events))
				return events, nil
			},
		})
	}
	add("municipal", cfg.Municipal.Enabled)
	add("railway", cfg.Railway.Enabled)
	add("regional", cfg.Regional.Enabled)
	return sources
}
