package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the settlement service.
type Metrics struct {
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	refundCounter  *prometheus.CounterVec
}

// NewMetrics registers the settlement service metrics.
func NewMetrics() *Metrics {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_service_requests_total",
			Help: "Total number of requests to the settlement service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_service_request_duration_seconds",
			Help:    "Duration of settlement service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	refundCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_service_refunds_total",
			Help: "Refund attempts by outcome",
		},
		[]string{"outcome"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(refundCounter)

	return &Metrics{
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		refundCounter:  refundCounter,
	}
}

// Middleware records count and latency per route template.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		m.requestCounter.WithLabelValues(
			r.Method, endpoint, strconv.Itoa(ww.statusCode),
		).Inc()
		m.requestLatency.WithLabelValues(r.Method, endpoint).
			Observe(time.Since(start).Seconds())
	})
}

// ObserveRefund feeds the refund outcome counter.
func (m *Metrics) ObserveRefund(outcome string) {
	m.refundCounter.WithLabelValues(outcome).Inc()
}
