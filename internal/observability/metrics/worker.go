package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
)

type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	rescoreTotal     *prometheus.CounterVec
	rescoreDuration  *prometheus.HistogramVec
	rescoreInFlight  prometheus.Gauge
	evaluationsTotal *prometheus.CounterVec
	overallScore     prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	rescoreTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "rescore_total",
			Help:      "Total rescore jobs by status.",
		},
		[]string{"service", "status"},
	)
	rescoreDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "rescore_duration_seconds",
			Help:      "Rescore duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	rescoreInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "rescore_in_flight",
			Help:      "Number of in-flight rescore jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	evaluationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "evaluations_total",
			Help:      "Persisted pack health evaluations by eligibility.",
		},
		[]string{"service", "eligible"},
	)
	overallScore := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "overall",
			Help:      "Distribution of overall pack health scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(rescoreTotal, rescoreDuration, rescoreInFlight, evaluationsTotal, overallScore)

	return &WorkerMetrics{
		service:          service,
		registry:         registry,
		rescoreTotal:     rescoreTotal,
		rescoreDuration:  rescoreDuration,
		rescoreInFlight:  rescoreInFlight,
		evaluationsTotal: evaluationsTotal,
		overallScore:     overallScore,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRescore() {
	m.rescoreInFlight.Inc()
}

func (m *WorkerMetrics) FinishRescore(duration time.Duration, err error) {
	m.rescoreInFlight.Dec()

	status := "success"
	if err != nil {
		status = domain.KindLabel(err)
	}

	m.rescoreTotal.WithLabelValues(m.service, status).Inc()
	m.rescoreDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveEvaluation(report domain.PackHealthReport) {
	m.evaluationsTotal.WithLabelValues(m.service, strconv.FormatBool(report.Score.IsEligibleForIntroductions)).Inc()
	m.overallScore.Observe(float64(report.Score.OverallScore))
}
