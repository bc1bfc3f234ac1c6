// Package prom implements the observability hooks with Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	prom.New(reg).Install()
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/techtree/pkg/observability"
)

// Metrics holds the techtree collectors and implements every hook
// interface.
type Metrics struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	phaseDuration *prometheus.HistogramVec
	rejected      prometheus.Counter
	nodes         prometheus.Gauge
	cacheEvents   *prometheus.CounterVec
	cacheBytes    prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techtree_builds_total",
			Help: "Layout builds by result",
		}, []string{"result"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "techtree_build_duration_seconds",
			Help:    "Duration of complete layout builds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		phaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "techtree_phase_duration_seconds",
			Help:    "Duration of individual layout phases",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"phase"}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Name: "techtree_builds_rejected_total",
			Help: "Build requests rejected because a build was in flight",
		}),
		nodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "techtree_layout_nodes",
			Help: "Nodes in the most recently published layout",
		}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techtree_cache_events_total",
			Help: "Cache lookups and writes",
		}, []string{"key_type", "event"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "techtree_cache_written_bytes_total",
			Help: "Bytes written to the cache",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "techtree_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "techtree_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Install registers m as the global layout, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetLayoutHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnBuildStart(context.Context, int) {}

func (m *Metrics) OnBuildComplete(_ context.Context, nodeCount int, d time.Duration, err error) {
	m.buildDuration.Observe(d.Seconds())
	if err != nil {
		m.builds.WithLabelValues("error").Inc()
		return
	}
	m.builds.WithLabelValues("ok").Inc()
	m.nodes.Set(float64(nodeCount))
}

func (m *Metrics) OnBuildRejected(context.Context) { m.rejected.Inc() }

func (m *Metrics) OnPhase(_ context.Context, phase string, d time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.LayoutHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)
