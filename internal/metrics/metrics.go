package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the connector's Prometheus collectors.
type Metrics struct {
	// Standard HTTP metrics, recorded by middleware
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	TriggersTotal   *prometheus.CounterVec
	CallbacksTotal  *prometheus.CounterVec
	DispatchTotal   *prometheus.CounterVec
	CallbackLatency prometheus.Histogram
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),
		TriggersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imonnit_triggers_total",
				Help: "Total number of rule trigger webhooks by outcome",
			},
			[]string{"outcome"},
		),
		CallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twilio_callbacks_total",
				Help: "Total number of delivery status callbacks by outcome",
			},
			[]string{"outcome"},
		),
		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sms_dispatch_total",
				Help: "Total number of SMS dispatch attempts by result",
			},
			[]string{"result"},
		),
		CallbackLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "twilio_callback_latency_seconds",
				Help:    "Time between handing a message to twilio and receiving a status callback for it",
				Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600},
			},
		),
	}
}
