// Command refresh runs a single provider's cache-refresh pass: fetch
// upstream, normalise, write the provider's cache file atomically. It
// performs no feed assembly and no other provider's work (§2).
package main

import (
	"context"
	"flag"
	"os"
	"regexp"
	"time"

	"github.com/golang/glog"

	"github.com/origamihase/wien-oepnv-feed/cache"
	"github.com/origamihase/wien-oepnv-feed/cmn"
	"github.com/origamihase/wien-oepnv-feed/httpx"
	"github.com/origamihase/wien-oepnv-feed/providers"
	"github.com/origamihase/wien-oepnv-feed/providers/municipal"
	"github.com/origamihase/wien-oepnv-feed/providers/railway"
	"github.com/origamihase/wien-oepnv-feed/providers/regional"
	"github.com/origamihase/wien-oepnv-feed/ratelimit"
	"github.com/origamihase/wien-oepnv-feed/station"
)

var providerFlag = flag.String("provider", "", "provider to refresh: municipal, railway, or regional")

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()
	defer glog.Flush() // always flush

	cfg, err := cmn.Load()
	if err != nil {
		glog.Errorf("refresh: configuration invalid: %v", err)
		return 1
	}

	adapter, cacheFile, err := buildAdapter(cfg, *providerFlag)
	if err != nil {
		glog.Errorf("refresh: %v", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Runtime.ProviderTimeout)
	defer cancel()

	events, err := adapter.Refresh(ctx)
	if err != nil {
		if _, rateLimited := err.(*regional.ErrRateLimitExceeded); rateLimited {
			glog.Warningf("refresh: %s: %v (cache left untouched)", adapter.Name(), err)
			return 0
		}
		glog.Errorf("refresh: %s: %s", adapter.Name(), httpx.Redact(err.Error()))
		return 3
	}

	store, err := cache.New(cfg.Allowlist, cacheFile, false)
	if err != nil {
		glog.Errorf("refresh: %s: cache store: %v", adapter.Name(), err)
		return 3
	}
	if err := store.Save(events); err != nil {
		glog.Errorf("refresh: %s: save cache: %v", adapter.Name(), err)
		return 3
	}

	glog.Infof("refresh: %s: wrote %d events to %s", adapter.Name(), len(events), cacheFile)
	return 0
}

func buildAdapter(cfg *cmn.Config, name string) (providers.Adapter, string, error) {
	client := httpx.NewClient(httpx.Config{Timeout: cfg.Runtime.ProviderTimeout})

	stationsPath, err := cfg.Allowlist.Validate(cfg.Paths.Data + "/stations.json")
	if err != nil {
		return nil, "", err
	}
	stations, err := station.Load(stationsPath)
	if err != nil {
		glog.Warningf("refresh: station catalogue unavailable, region filters degraded: %v", err)
		stations = nil
	}

	switch name {
	case "municipal":
		if !cfg.Municipal.Enabled {
			return nil, "", errNotEnabled(name)
		}
		var include, exclude *regexp.Regexp
		if cfg.Municipal.CategoryInclude != "" {
			include, err = regexp.Compile(cfg.Municipal.CategoryInclude)
			if err != nil {
				return nil, "", err
			}
		}
		if cfg.Municipal.CategoryExclude != "" {
			exclude, err = regexp.Compile(cfg.Municipal.CategoryExclude)
			if err != nil {
				return nil, "", err
			}
		}
		cacheFile, err := cfg.CacheFile("municipal")
		if err != nil {
			return nil, "", err
		}
		return municipal.New(client, cfg.Municipal.BaseURL, include, exclude), cacheFile, nil

	case "railway":
		if !cfg.Railway.Enabled {
			return nil, "", errNotEnabled(name)
		}
		cacheFile, err := cfg.CacheFile("railway")
		if err != nil {
			return nil, "", err
		}
		return railway.New(client, cfg.Railway.FeedURL, stations), cacheFile, nil

	case "regional":
		if !cfg.Regional.Enabled {
			return nil, "", errNotEnabled(name)
		}
		counterFile, err := cfg.CounterFile("regional")
		if err != nil {
			return nil, "", err
		}
		counter, err := ratelimit.NewCounter(cfg.Allowlist, counterFile)
		if err != nil {
			return nil, "", err
		}
		cacheFile, err := cfg.CacheFile("regional")
		if err != nil {
			return nil, "", err
		}
		return regional.New(client, stations, counter, regional.Config{
			BaseURL:           cfg.Regional.BaseURL,
			AccessID:          cfg.Regional.AccessID,
			AccessIDAsQuery:   cfg.Regional.AccessIDAsQuery,
			JWTSecret:         cfg.Regional.JWTSecret,
			StationIDs:        cfg.Regional.StationIDs,
			RotationInterval:  cfg.Regional.RotationInterval,
			MaxStationsPerRun: cfg.Regional.MaxStationsPerRun,
			DailyBudget:       cfg.Regional.DailyBudget,
			RunCircuitBreaker: cfg.Regional.RunCircuitBreaker,
		}), cacheFile, nil

	default:
		return nil, "", errUnknownProvider(name)
	}
}

type errNotEnabled string

func (e errNotEnabled) Error() string { return "provider " + string(e) + " is not enabled" }

type errUnknownProvider string

func (e errUnknownProvider) Error() string {
	return "unknown provider " + string(e) + " (want municipal, railway, or regional)"
}
