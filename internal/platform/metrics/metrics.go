// Package metrics exposes gateway counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "market_gateway"

// Recorder counts cache and upstream outcomes by operation.
type Recorder struct {
	registry *prometheus.Registry

	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	cacheErrors   *prometheus.CounterVec
	negativeHits  *prometheus.CounterVec
	upstreamCalls *prometheus.CounterVec
	sharedFetches *prometheus.CounterVec
}

// New creates a Recorder on its own registry, with Go runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
		reg.MustRegister(c)
		return c
	}

	return &Recorder{
		registry:      reg,
		cacheHits:     counter("cache_hits_total", "Cache lookups served from the store.", "op"),
		cacheMisses:   counter("cache_misses_total", "Cache lookups that required an upstream fetch.", "op"),
		cacheErrors:   counter("cache_errors_total", "Cache reads or writes that failed.", "op"),
		negativeHits:  counter("cache_negative_hits_total", "Lookups answered by a cached no-data marker.", "op"),
		upstreamCalls: counter("upstream_calls_total", "Upstream provider calls by outcome.", "op", "outcome"),
		sharedFetches: counter("singleflight_shared_total", "Callers that waited on another caller's fetch.", "op"),
	}
}

func (r *Recorder) CacheHit(op string)    { r.cacheHits.WithLabelValues(op).Inc() }
func (r *Recorder) CacheMiss(op string)   { r.cacheMisses.WithLabelValues(op).Inc() }
func (r *Recorder) CacheError(op string)  { r.cacheErrors.WithLabelValues(op).Inc() }
func (r *Recorder) NegativeHit(op string) { r.negativeHits.WithLabelValues(op).Inc() }
func (r *Recorder) SharedFetch(op string) { r.sharedFetches.WithLabelValues(op).Inc() }

func (r *Recorder) UpstreamCall(op, outcome string) {
	r.upstreamCalls.WithLabelValues(op, outcome).Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
