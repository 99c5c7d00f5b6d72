package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels a finished backend call.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeLogical   Outcome = "logical_failure"
	OutcomeTransport Outcome = "transport_failure"
)

// Observer captures telemetry for backend and upload calls.
type Observer interface {
	RecordRequest(endpoint string, duration time.Duration, outcome Outcome)
	RecordUpload(duration time.Duration, sizeBytes int64, err error)
}

// PrometheusObserver exports client call metrics to Prometheus.
type PrometheusObserver struct {
	requestDuration *prometheus.HistogramVec
	requestOutcomes *prometheus.CounterVec
	uploadDuration  prometheus.Histogram
	uploadFailures  prometheus.Counter
	uploadBytes     prometheus.Counter
}

// NewPrometheusObserver registers the client metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "karmatch"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	observer := &PrometheusObserver{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of backend API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		requestOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Latency of profile photo uploads.",
			Buckets:   prometheus.DefBuckets,
		}),
		uploadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_failures_total",
			Help:      "Count of failed profile photo uploads.",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative size of successfully uploaded files.",
		}),
	}
	collectors := []prometheus.Collector{
		observer.requestDuration, observer.requestOutcomes,
		observer.uploadDuration, observer.uploadFailures, observer.uploadBytes,
	}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return nil, fmt.Errorf("register client metric: %w", err)
		}
	}
	return observer, nil
}

// RecordRequest tracks latency and outcome of a backend call.
func (o *PrometheusObserver) RecordRequest(endpoint string, duration time.Duration, outcome Outcome) {
	if o == nil {
		return
	}
	o.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	o.requestOutcomes.WithLabelValues(endpoint, string(outcome)).Inc()
}

// RecordUpload tracks upload duration, size, and failures.
func (o *PrometheusObserver) RecordUpload(duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.uploadDuration.Observe(duration.Seconds())
	if err != nil {
		o.uploadFailures.Inc()
		return
	}
	o.uploadBytes.Add(float64(sizeBytes))
}

type nopObserver struct{}

func (nopObserver) RecordRequest(string, time.Duration, Outcome) {}

func (nopObserver) RecordUpload(time.Duration, int64, error) {}

// NopObserver discards all telemetry.
func NopObserver() Observer {
	return nopObserver{}
}

// OrNop returns o when non-nil, otherwise a no-op observer.
func OrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	if p, ok := o.(*PrometheusObserver); ok && p == nil {
		return nopObserver{}
	}
	return o
}
