package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rooted_in_speech"

const (
	BookingConfirmed = "confirmed"
	BookingFailed    = "failed"
	BookingPartial   = "partial"
	BookingRejected  = "rejected"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route.",
		},
		[]string{"route"},
	)

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend REST calls by endpoint and status code (0 for transport failures).",
		},
		[]string{"endpoint", "code"},
	)

	backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Backend REST call latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking submissions by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, backendRequests, backendDuration, bookings)
	})
}

// IncHTTP increments the counter for a route label.
func IncHTTP(route string) {
	httpRequests.WithLabelValues(route).Inc()
}

// ObserveBackend records one backend call.
func ObserveBackend(endpoint string, code int, took time.Duration) {
	backendRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	backendDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// IncBooking counts a booking outcome.
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}
