// Package metrics exposes Prometheus metrics for the gateway and the webhook
// sender.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paysign/internal/signing"
)

// ResultAccepted is the verification label for a request that passed.
const ResultAccepted = "accepted"

// Service records paysign metrics on its own registry, so several instances
// can coexist in one process.
type Service struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	verificationsTotal *prometheus.CounterVec
	deliveriesTotal    *prometheus.CounterVec
	deliveryAttempts   *prometheus.HistogramVec
}

// NewService creates a Service with Go runtime and process collectors
// registered.
func NewService() *Service {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Service{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paysign_requests_total",
				Help: "Total number of gateway requests by method and status class",
			},
			[]string{"method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paysign_request_duration_seconds",
				Help:    "Gateway request processing time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status"},
		),
		verificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paysign_signature_verifications_total",
				Help: "Total number of signature verifications by result",
			},
			[]string{"result"},
		),
		deliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paysign_webhook_deliveries_total",
				Help: "Total number of webhook deliveries by event and outcome",
			},
			[]string{"event", "outcome"},
		),
		deliveryAttempts: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paysign_webhook_delivery_attempts",
				Help:    "Attempts needed per webhook delivery",
				Buckets: []float64{1, 2, 3, 4, 6, 8},
			},
			[]string{"event"},
		),
	}
}

// Registry returns the registry metrics are recorded on.
func (s *Service) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts one gateway request. The method is passed through
// MethodLabel.
func (s *Service) RecordRequest(method string, status int, duration time.Duration) {
	method = MethodLabel(method)
	label := StatusLabel(status)
	s.requestsTotal.WithLabelValues(method, label).Inc()
	s.requestDuration.WithLabelValues(method, label).Observe(duration.Seconds())
}

// RecordVerification counts one verification; result is ResultAccepted or
// the rejecting error type.
func (s *Service) RecordVerification(result string) {
	s.verificationsTotal.WithLabelValues(result).Inc()
}

// RecordDelivery counts one webhook delivery.
func (s *Service) RecordDelivery(event, outcome string, attempts int) {
	s.deliveriesTotal.WithLabelValues(event, outcome).Inc()
	s.deliveryAttempts.WithLabelValues(event).Observe(float64(attempts))
}

// MethodLabel keeps the signable verbs plus HEAD and OPTIONS and maps any
// other method to "other", so clients cannot mint new series.
func MethodLabel(method string) string {
	if signing.Method(method).Valid() || method == http.MethodHead || method == http.MethodOptions {
		return method
	}
	return "other"
}

// StatusLabel collapses a status code to its class, e.g. "2xx".
func StatusLabel(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
