// Package metrics exposes Prometheus collectors for the store, the workflow
// and the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "admitportal"

// Metrics owns a private registry and every collector the portal reports.
// It implements docstore.Observer and workflow.Recorder.
type Metrics struct {
	Registry *prometheus.Registry

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	storeRecords  *prometheus.GaugeVec

	created     prometheus.Counter
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry. Runtime collectors are
// included only when withRuntime is set.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "operations_total",
			Help:      "Collection file reads and writes.",
		}, []string{"collection", "op", "result"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "operation_duration_seconds",
			Help:      "Duration of collection file reads and writes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}, []string{"collection", "op"}),
		storeRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "docstore",
			Name:      "records",
			Help:      "Records in each collection as of its last write.",
		}, []string{"collection"}),

		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "applications_created_total",
			Help:      "Applications opened.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Applied status transitions.",
		}, []string{"from", "to"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_rejected_total",
			Help:      "Status transitions refused before any write.",
		}, []string{"reason"}),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}, []string{"method", "route"}),
	}

	m.Registry.MustRegister(
		m.storeOps, m.storeDuration, m.storeRecords,
		m.created, m.transitions, m.rejections,
		m.httpInFlight, m.httpRequests, m.httpDuration,
	)
	if withRuntime {
		m.Registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveRead records one collection load.
func (m *Metrics) ObserveRead(collection string, d time.Duration, err error) {
	m.storeOps.WithLabelValues(collection, "read", result(err)).Inc()
	m.storeDuration.WithLabelValues(collection, "read").Observe(d.Seconds())
}

// ObserveWrite records one collection write.
func (m *Metrics) ObserveWrite(collection string, d time.Duration, records int, err error) {
	m.storeOps.WithLabelValues(collection, "write", result(err)).Inc()
	m.storeDuration.WithLabelValues(collection, "write").Observe(d.Seconds())
	if err == nil {
		m.storeRecords.WithLabelValues(collection).Set(float64(records))
	}
}

// ApplicationCreated counts a new application.
func (m *Metrics) ApplicationCreated() { m.created.Inc() }

// TransitionApplied counts a committed status change.
func (m *Metrics) TransitionApplied(from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

// TransitionRejected counts a refused status change.
func (m *Metrics) TransitionRejected(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Instrument records request counts and latency. Requests are labeled with
// the chi route pattern so ids do not explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
