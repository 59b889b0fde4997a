// Package metrics collects a small set of per-run counters/gauges/histogram
// for a feed-build or refresh run and, if configured, pushes them to a
// Prometheus Pushgateway. §4.9.
package metrics

import (
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run holds one run's registry and instruments. A fresh Run is created per
// process invocation; nothing here is shared across runs.
type Run struct {
	registry *prometheus.Registry

	collected *prometheus.CounterVec
	pruned    *prometheus.CounterVec
	deduped   *prometheus.CounterVec
	emitted   prometheus.Gauge
	budget    *prometheus.GaugeVec
	latency   *prometheus.HistogramVec
}

func NewRun() *Run {
	r := &Run{registry: prometheus.NewRegistry()}

	collected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oepnv_feed", Name: "events_collected_total",
		Help: "Events returned by a provider's cache read, before normalisation.",
	}, []string{"provider"})
	pruned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oepnv_feed", Name: "events_pruned_total",
		Help: "Events dropped by the prune stage.",
	}, []string{"provider"})
	deduped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oepnv_feed", Name: "events_deduped_total",
		Help: "Events merged away by the dedupe stage.",
	}, []string{"provider"})
	emitted := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "oepnv_feed", Name: "events_emitted",
		Help: "Events present in the rendered feed after clip.",
	})
	budget := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "oepnv_feed", Name: "ratelimit_budget_used",
		Help: "Daily rate-limit budget consumed so far today.",
	}, []string{"provider"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "oepnv_feed", Name: "provider_fetch_seconds",
		Help:    "Provider fetch latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	r.registry.MustRegister(collected, pruned, deduped, emitted, budget, latency)
	r.collected = collected
	r.pruned = pruned
	r.deduped = deduped
	r.emitted = emitted
	r.budget = budget
	r.latency = latency
	return r
}

func (r *Run) ObserveCollected(provider string, n int) {
	r.collected.WithLabelValues(provider).Add(float64(n))
}

func (r *Run) ObservePruned(provider string, n int) {
	r.pruned.WithLabelValues(provider).Add(float64(n))
}

func (r *Run) ObserveDeduped(provider string, n int) {
	r.deduped.WithLabelValues(provider).Add(float64(n))
}

func (r *Run) SetEmitted(n int) {
	r.emitted.Set(float64(n))
}

func (r *Run) SetBudgetUsed(provider string, used int) {
	r.budget.WithLabelValues(provider).Set(float64(used))
}

func (r *Run) ObserveFetchLatency(provider string, d time.Duration) {
	r.latency.WithLabelValues(provider).Observe(d.Seconds())
}

// Finish pushes the registry to pushgatewayURL under jobName if configured;
// otherwise it logs a verbose note and returns. A push failure is
// logged as a warning and never fails the run (§4.9).
func (r *Run) Finish(pushgatewayURL, jobName, groupingKey string) {
	if pushgatewayURL == "" {
		glog.V(2).Infof("metrics: pushgateway not configured, skipping push (grouping=%s)", groupingKey)
		return
	}
	pusher := push.New(pushgatewayURL, jobName).
		Grouping("run", groupingKey).
		Gatherer(r.registry)
	if err := pusher.Push(); err != nil {
		glog.Warningf("metrics: push to %s failed: %v", pushgatewayURL, err)
	}
}
