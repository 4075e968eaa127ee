package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "careermate"

// MetricsManager manages Prometheus metrics
type MetricsManager struct {
	logger   *zap.SugaredLogger
	registry *prometheus.Registry

	uptime         prometheus.Gauge
	serving        prometheus.Gauge
	probes         *prometheus.CounterVec
	probeDuration  *prometheus.HistogramVec
	transitions    *prometheus.CounterVec
	triggers       *prometheus.CounterVec
	spawnFailures  prometheus.Counter
	backendCrashes prometheus.Counter
	httpRequests   *prometheus.CounterVec
}

// NewMetricsManager creates a new metrics manager
func NewMetricsManager(logger *zap.SugaredLogger) *MetricsManager {
	mm := &MetricsManager{
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	mm.initMetrics()
	mm.registerMetrics()

	return mm
}

func (mm *MetricsManager) initMetrics() {
	mm.uptime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Time since the shell started",
	})

	mm.serving = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "serving",
		Help:      "1 while the window shows content from an endpoint",
	})

	mm.probes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Probe attempts by endpoint tier and outcome",
		},
		[]string{"tier", "outcome"},
	)

	mm.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Probe latency in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"tier"},
	)

	mm.transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Connectivity state transitions",
		},
		[]string{"from", "to"},
	)

	mm.triggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_triggers_total",
			Help:      "Scheduler loop iterations by trigger",
		},
		[]string{"trigger"},
	)

	mm.spawnFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_spawn_failures_total",
		Help:      "Failed attempts to start the local backend",
	})

	mm.backendCrashes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_crashes_total",
		Help:      "Unrequested exits of the local backend",
	})

	mm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_requests_total",
			Help:      "Requests served by the diagnostics endpoint",
		},
		[]string{"method", "path", "status"},
	)
}

func (mm *MetricsManager) registerMetrics() {
	mm.registry.MustRegister(
		mm.uptime,
		mm.serving,
		mm.probes,
		mm.probeDuration,
		mm.transitions,
		mm.triggers,
		mm.spawnFailures,
		mm.backendCrashes,
		mm.httpRequests,
	)

	mm.registry.MustRegister(collectors.NewGoCollector())
	mm.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler returns an HTTP handler for the /metrics endpoint
func (mm *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying registry
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// SetUptime updates the uptime gauge
func (mm *MetricsManager) SetUptime(startTime time.Time) {
	mm.uptime.Set(time.Since(startTime).Seconds())
}

// ObserveProbe records a probe attempt
func (mm *MetricsManager) ObserveProbe(tier, kind string, latency time.Duration) {
	mm.probes.WithLabelValues(tier, kind).Inc()
	mm.probeDuration.WithLabelValues(tier).Observe(latency.Seconds())
}

// RecordTransition counts a state transition
func (mm *MetricsManager) RecordTransition(from, to string) {
	mm.transitions.WithLabelValues(from, to).Inc()
}

// SetServing sets the serving gauge
func (mm *MetricsManager) SetServing(serving bool) {
	if serving {
		mm.serving.Set(1)
		return
	}
	mm.serving.Set(0)
}

// IncSpawnFailures counts a failed backend start
func (mm *MetricsManager) IncSpawnFailures() {
	mm.spawnFailures.Inc()
}

// IncTrigger counts a scheduler loop iteration
func (mm *MetricsManager) IncTrigger(kind string) {
	mm.triggers.WithLabelValues(kind).Inc()
}

// IncBackendCrashes counts an unrequested backend exit
func (mm *MetricsManager) IncBackendCrashes() {
	mm.backendCrashes.Inc()
}

// HTTPMiddleware counts diagnostics requests
func (mm *MetricsManager) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)
			mm.httpRequests.WithLabelValues(r.Method, r.URL.Path, http.StatusText(rw.statusCode)).Inc()
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
