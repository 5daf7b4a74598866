package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "holiday_pipeline"

// Metrics holds the pipeline's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	fetchTotal        *prometheus.CounterVec
	fallbackTotal     *prometheus.CounterVec
	collectTotal      *prometheus.CounterVec
	holidaysCollected *prometheus.CounterVec
	collectDuration   prometheus.Histogram
	droppedRecords    prometheus.Counter
	migrationEntries  *prometheus.CounterVec
	lastSuccessTS     *prometheus.GaugeVec
}

// -----------------------------------------------------------------------------

func NewMetrics() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_fetch_total",
		Help:      "Provider fetches by provider and result",
	}, []string{"provider", "result"})
	m.fallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_total",
		Help:      "Failed fetches absorbed by a fallback, by tier",
	}, []string{"tier"})
	m.collectTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collect_total",
		Help:      "Country/year collections by origin (cache, provider, stale) or failed",
	}, []string{"origin"})
	m.holidaysCollected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "holidays_collected_total",
		Help:      "Holidays returned by collections, by country",
	}, []string{"country"})
	m.collectDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "collect_duration_seconds",
		Help:      "Time spent collecting one country/year",
		Buckets:   prometheus.DefBuckets,
	})
	m.droppedRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_dropped_total",
		Help:      "Records dropped by validation",
	})
	m.migrationEntries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migration_entries_total",
		Help:      "Migration entries by outcome",
	}, []string{"outcome"})
	m.lastSuccessTS = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful collection per country",
	}, []string{"country"})

	m.Registry.MustRegister(
		m.fetchTotal,
		m.fallbackTotal,
		m.collectTotal,
		m.holidaysCollected,
		m.collectDuration,
		m.droppedRecords,
		m.migrationEntries,
		m.lastSuccessTS,
	)
	return m
}

// -----------------------------------------------------------------------------

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// -----------------------------------------------------------------------------

func (m *Metrics) ObserveFetch(provider string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetchTotal.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) ObserveFallback(tier string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(tier).Inc()
}

// ObserveCollect records one country/year collection. origin is empty on failure.
func (m *Metrics) ObserveCollect(countryCode, origin string, holidays int, d time.Duration) {
	if m == nil {
		return
	}
	m.collectDuration.Observe(d.Seconds())
	if origin == "" {
		m.collectTotal.WithLabelValues("failed").Inc()
		return
	}
	m.collectTotal.WithLabelValues(origin).Inc()
	m.holidaysCollected.WithLabelValues(countryCode).Add(float64(holidays))
	m.lastSuccessTS.WithLabelValues(countryCode).SetToCurrentTime()
}

func (m *Metrics) ObserveDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedRecords.Add(float64(n))
}

func (m *Metrics) ObserveMigration(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.migrationEntries.WithLabelValues(outcome).Add(float64(n))
}
