package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	Recognitions        *prometheus.CounterVec
	RecognitionDuration prometheus.Histogram
	TextFindings        *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on a dedicated registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_gateway_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		}, []string{"route", "status"}),
		Recognitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_gateway_recognitions_total",
			Help: "Document recognitions by data source (upstream or fallback) and reason",
		}, []string{"source", "reason"}),
		RecognitionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "edge_gateway_recognition_duration_seconds",
			Help:    "Time spent acquiring document data, including fallback",
			Buckets: []float64{0.005, 0.05, 0.25, 0.5, 1, 2, 4, 8, 10},
		}),
		TextFindings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edge_gateway_text_findings_total",
			Help: "PII entities masked in free text by entity type",
		}, []string{"entity_type"}),
	}
}

// ObserveHTTPRequest counts a completed request
func (m *Metrics) ObserveHTTPRequest(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveRecognition records where document data came from and how long it took
func (m *Metrics) ObserveRecognition(source, reason string, elapsed time.Duration) {
	m.Recognitions.WithLabelValues(source, reason).Inc()
	m.RecognitionDuration.Observe(elapsed.Seconds())
}

// AddTextFindings counts masked entities of one type
func (m *Metrics) AddTextFindings(entityType string, count int) {
	m.TextFindings.WithLabelValues(entityType).Add(float64(count))
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
