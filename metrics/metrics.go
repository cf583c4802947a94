// Package metrics exposes the progress of a fan-out as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OpenZilia/parsemap-test-harness/framework"
	"github.com/OpenZilia/parsemap-test-harness/scenario"
	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

const namespace = "parsemap_harness"

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Observer is a scenario.Observer that updates Prometheus collectors. Each Observer has its own
// registry, so that several runs in one process do not collide.
type Observer struct {
	registry  *prometheus.Registry
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
	created   prometheus.Counter
	sequences *prometheus.CounterVec
}

var _ scenario.Observer = (*Observer)(nil)

// NewObserver creates the collectors. The labels are attached to every metric, for instance
// the stress variant.
func NewObserver(labels prometheus.Labels) *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "operation_duration_seconds",
			Help:        "Duration of service operations issued by the fan-out.",
			Buckets:     prometheus.ExponentialBuckets(0.005, 2, 12),
			ConstLabels: labels,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "operations_total",
			Help:        "Service operations issued by the fan-out, by outcome.",
			ConstLabels: labels,
		}, []string{"operation", "outcome"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "points_created_total",
			Help:        "Points created by the fan-out.",
			ConstLabels: labels,
		}),
		sequences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "sequences_total",
			Help:        "Create-and-attach sequences finished, by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
	}
	o.registry.MustRegister(o.durations, o.results, o.created, o.sequences)
	return o
}

func outcome(err error) string {
	if err != nil {
		return outcomeFailure
	}
	return outcomeSuccess
}

func (o *Observer) OperationFinished(operation string, elapsed time.Duration, err error) {
	o.durations.WithLabelValues(operation).Observe(elapsed.Seconds())
	o.results.WithLabelValues(operation, outcome(err)).Inc()
}

func (o *Observer) PointCreated(servicedef.EntityRef) {
	o.created.Inc()
}

func (o *Observer) SequenceFinished(err error) {
	o.sequences.WithLabelValues(outcome(err)).Inc()
}

// Registry returns the registry holding the collectors.
func (o *Observer) Registry() *prometheus.Registry { return o.registry }

// Handler serves the metrics in the Prometheus text format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics at /metrics on addr until ctx is done.
func (o *Observer) Serve(ctx context.Context, addr string, logger framework.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", o.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	if logger != nil {
		logger.Printf("serving metrics at http://%s/metrics", listener.Addr())
	}
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
