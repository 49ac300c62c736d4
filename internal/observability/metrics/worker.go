package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	runTotal     *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runInFlight  prometheus.Gauge
	queueLag     *prometheus.HistogramVec
	groupsByType *prometheus.CounterVec
	ungrouped    *prometheus.HistogramVec
	retries      *prometheus.CounterVec
	transitions  *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autonamer",
			Subsystem: "worker",
			Name:      "grouping_runs_total",
			Help:      "Total grouping runs by status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "autonamer",
			Subsystem: "worker",
			Name:      "grouping_run_duration_seconds",
			Help:      "Grouping run duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	runInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "autonamer",
			Subsystem: "worker",
			Name:      "grouping_runs_in_flight",
			Help:      "Number of in-flight grouping runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "autonamer",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between request receipt and grouping start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	groupsByType := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autonamer",
			Subsystem: "worker",
			Name:      "groups_total",
			Help:      "Total groups produced by grouping runs, by group type.",
		},
		[]string{"service", "type"},
	)
	ungrouped := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "autonamer",
			Subsystem: "worker",
			Name:      "ungrouped_assets",
			Help:      "Assets left in the ungrouped pool per run.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"service"},
	)
	retries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autonamer",
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Total retried dependency calls by operation.",
		},
		[]string{"service", "operation"},
	)
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "autonamer",
			Subsystem: "resilience",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions by operation.",
		},
		[]string{"service", "operation", "from", "to"},
	)

	registry.MustRegister(runTotal, runDuration, runInFlight, queueLag, groupsByType, ungrouped, retries, transitions)

	return &WorkerMetrics{
		registry:     registry,
		runTotal:     runTotal,
		runDuration:  runDuration,
		runInFlight:  runInFlight,
		queueLag:     queueLag,
		groupsByType: groupsByType,
		ungrouped:    ungrouped,
		retries:      retries,
		transitions:  transitions,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRun() {
	m.runInFlight.Inc()
}

func (m *WorkerMetrics) FinishRun(service string, duration time.Duration, err error) {
	m.runInFlight.Dec()

	status := statusOf(err)
	m.runTotal.WithLabelValues(service, status).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

// ObserveGroups records the shape of a finished snapshot. counts is keyed by group type.
func (m *WorkerMetrics) ObserveGroups(service string, counts map[string]int, ungrouped int) {
	for groupType, n := range counts {
		if n > 0 {
			m.groupsByType.WithLabelValues(service, groupType).Add(float64(n))
		}
	}
	m.ungrouped.WithLabelValues(service).Observe(float64(ungrouped))
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ResilienceObserver(service string) *ResilienceObserver {
	return &ResilienceObserver{service: service, retries: m.retries, transitions: m.transitions}
}
