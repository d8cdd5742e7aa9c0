package httpapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	domain "kaching-analytics/internal/domain/insights"
)

// apiMetrics 為 API 的 Prometheus 指標。
type apiMetrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	anomalies       *prometheus.CounterVec
	recommendations *prometheus.CounterVec
	briefingScore   prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
}

func newAPIMetrics(reg prometheus.Registerer) *apiMetrics {
	m := &apiMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kaching_http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kaching_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		anomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kaching_anomalies_detected_total",
				Help: "Anomalies returned by type and severity",
			},
			[]string{"type", "severity"},
		),
		recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kaching_recommendations_generated_total",
				Help: "Recommendations returned by type and priority",
			},
			[]string{"type", "priority"},
		),
		briefingScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kaching_briefing_performance_score",
				Help:    "Performance score of composed briefings",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kaching_briefing_cache_lookups_total",
				Help: "Briefing cache lookups by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.anomalies, m.recommendations, m.briefingScore, m.cacheLookups)
	return m
}

func (m *apiMetrics) observeRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *apiMetrics) observeAnomalies(list []domain.Anomaly) {
	for _, a := range list {
		m.anomalies.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	}
}

func (m *apiMetrics) observeRecommendations(list []domain.Recommendation) {
	for _, r := range list {
		m.recommendations.WithLabelValues(string(r.Type), string(r.Priority)).Inc()
	}
}

func (m *apiMetrics) observeBriefing(b domain.ExecutiveBriefing) {
	m.briefingScore.Observe(b.PerformanceScore)
}

func (m *apiMetrics) observeCache(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}
