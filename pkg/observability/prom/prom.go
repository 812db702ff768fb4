// Package prom implements the observability hooks with Prometheus
// collectors.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/qtikit/pkg/observability"
)

const namespace = "qtikit"

var (
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)

// Hooks records pipeline, cache and HTTP events.
type Hooks struct {
	cntLoads      *prometheus.CounterVec
	histLoadDur   prometheus.Histogram
	histLoadSize  prometheus.Histogram
	cntRenders    *prometheus.CounterVec
	histRenderDur prometheus.Histogram

	cntCacheOps   *prometheus.CounterVec
	cntCacheBytes *prometheus.CounterVec

	gaugeInFlight prometheus.Gauge
	cntRequests   *prometheus.CounterVec
	histReqDur    *prometheus.HistogramVec
}

// NewHooks creates the collectors and registers them with reg. It panics
// if any of them is already registered.
func NewHooks(reg prometheus.Registerer) *Hooks {
	h := &Hooks{
		cntLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_loaded_total",
			Help:      "Count of document loads by result",
		}, []string{"result"}),
		histLoadDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Histogram of document load times",
			Buckets:   []float64{0.001, 0.01, 0.1, 1.0, 10.0},
		}),
		histLoadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_components",
			Help:      "Histogram of the number of components in loaded documents",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 7),
		}),
		cntRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Count of rendered artifacts by format and result",
		}, []string{"format", "result"}),
		histRenderDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Histogram of render times",
			Buckets:   []float64{0.001, 0.01, 0.1, 1.0, 10.0},
		}),
		cntCacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Count of cache operations by key type and outcome",
		}, []string{"key_type", "op"}),
		cntCacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		gaugeInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		}),
		cntRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		histReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request latencies",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		h.cntLoads, h.histLoadDur, h.histLoadSize,
		h.cntRenders, h.histRenderDur,
		h.cntCacheOps, h.cntCacheBytes,
		h.gaugeInFlight, h.cntRequests, h.histReqDur,
	)
	return h
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (h *Hooks) OnLoadStart(context.Context, string) {}

func (h *Hooks) OnLoadComplete(_ context.Context, components int, d time.Duration, err error) {
	h.cntLoads.WithLabelValues(result(err)).Inc()
	h.histLoadDur.Observe(d.Seconds())
	if err == nil {
		h.histLoadSize.Observe(float64(components))
	}
}

func (h *Hooks) OnRenderStart(context.Context, []string) {}

func (h *Hooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	for _, f := range formats {
		h.cntRenders.WithLabelValues(f, result(err)).Inc()
	}
	h.histRenderDur.Observe(d.Seconds())
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cntCacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cntCacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cntCacheOps.WithLabelValues(keyType, "set").Inc()
	h.cntCacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string) {
	h.gaugeInFlight.Inc()
}

func (h *Hooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.gaugeInFlight.Dec()
	h.cntRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.histReqDur.WithLabelValues(method, route).Observe(d.Seconds())
}
