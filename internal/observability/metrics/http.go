package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	reviewMutationsTotal *prometheus.CounterVec
	exportsTotal         *prometheus.CounterVec
	exportBytes          *prometheus.HistogramVec
	duplicateFilenames   *prometheus.GaugeVec
	retriesTotal         *prometheus.CounterVec
	breakerTransitions   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autonamer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "autonamer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "autonamer",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	reviewMutationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autonamer",
			Subsystem: "review",
			Name:      "mutations_total",
			Help:      "Total review mutations by operation and status.",
		},
		[]string{"service", "operation", "status"},
	)
	exportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autonamer",
			Subsystem: "export",
			Name:      "requests_total",
			Help:      "Total exports by format and status.",
		},
		[]string{"service", "format", "status"},
	)
	exportBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "autonamer",
			Subsystem: "export",
			Name:      "artifact_bytes",
			Help:      "Size of encoded export artifacts.",
			Buckets:   prometheus.ExponentialBuckets(512, 4, 8),
		},
		[]string{"service", "format"},
	)
	duplicateFilenames := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "autonamer",
			Subsystem: "review",
			Name:      "duplicate_filenames",
			Help:      "Duplicate generated filenames in the most recently served snapshot.",
		},
		[]string{"service"},
	)
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autonamer",
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Total retried dependency calls by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autonamer",
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions by operation.",
		},
		[]string{"service", "operation", "from", "to"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		reviewMutationsTotal,
		exportsTotal,
		exportBytes,
		duplicateFilenames,
		retriesTotal,
		breakerTransitions,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		reviewMutationsTotal: reviewMutationsTotal,
		exportsTotal:         exportsTotal,
		exportBytes:          exportBytes,
		duplicateFilenames:   duplicateFilenames,
		retriesTotal:         retriesTotal,
		breakerTransitions:   breakerTransitions,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses session and group ids so label cardinality stays bounded.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/sessions/") {
		return path
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	// v1 sessions {id} [groups {id} [assets {id} ...]]
	for i := 2; i < len(parts); i += 2 {
		switch parts[i-1] {
		case "sessions":
			parts[i] = "{session_id}"
		case "groups":
			parts[i] = "{group_id}"
		case "assets":
			parts[i] = "{asset_id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func (m *HTTPServerMetrics) RecordMutation(service, operation string, err error) {
	if operation == "" {
		operation = "unknown"
	}
	m.reviewMutationsTotal.WithLabelValues(service, operation, statusOf(err)).Inc()
}

func (m *HTTPServerMetrics) RecordExport(service, format string, size int, err error) {
	if format == "" {
		format = "unknown"
	}
	m.exportsTotal.WithLabelValues(service, format, statusOf(err)).Inc()
	if err == nil && size > 0 {
		m.exportBytes.WithLabelValues(service, format).Observe(float64(size))
	}
}

func (m *HTTPServerMetrics) RecordDuplicates(service string, count int) {
	m.duplicateFilenames.WithLabelValues(service).Set(float64(count))
}

// ResilienceObserver adapts the registry to the executor's observer hook.
func (m *HTTPServerMetrics) ResilienceObserver(service string) *ResilienceObserver {
	return &ResilienceObserver{service: service, retries: m.retriesTotal, transitions: m.breakerTransitions}
}

type ResilienceObserver struct {
	service     string
	retries     *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func (o *ResilienceObserver) Retry(operation string, _ int) {
	o.retries.WithLabelValues(o.service, operation).Inc()
}

func (o *ResilienceObserver) BreakerStateChange(operation string, from, to string) {
	o.transitions.WithLabelValues(o.service, operation, from, to).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
