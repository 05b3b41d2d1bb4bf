package transport

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the request collectors for one registry.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the transport collectors. Register them with
// Collectors; an unregistered Metrics still counts.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gogogate_transport_requests_total",
				Help: "Hub requests by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gogogate_transport_request_duration_seconds",
				Help:    "Hub request latency including retries",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"outcome"},
		),
	}
}

// Collectors returns the collectors to register.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration}
}

// Outcome returns the metrics label for a Send result.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var tErr *Error
	if !errors.As(err, &tErr) {
		return "other"
	}
	switch tErr.Kind {
	case KindTimeout:
		return "timeout"
	case KindConnectionFailed:
		return "connection_failed"
	case KindHTTPStatus:
		return "http_status"
	default:
		return "other"
	}
}

// Instrumented decorates a Transport with request metrics.
type Instrumented struct {
	next    Transport
	metrics *Metrics
}

// Instrument wraps next so every Send is counted and timed.
func Instrument(next Transport, metrics *Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

// Send implements Transport.
func (i *Instrumented) Send(ctx context.Context, baseURL string, params map[string]string) (string, error) {
	start := time.Now()
	body, err := i.next.Send(ctx, baseURL, params)

	outcome := Outcome(err)
	i.metrics.requests.WithLabelValues(outcome).Inc()
	i.metrics.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return body, err
}
