package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/drt/core/metrics"
)

// PromSink records assignment outcomes in Prometheus metrics.
type PromSink struct {
	events  *prometheus.CounterVec
	cost    prometheus.Histogram
	latency prometheus.Histogram
	fleet   prometheus.Gauge
}

// NewPromSink registers the sink metrics on the default registerer. The
// /metrics endpoint is served separately on cfg.PrometheusPort.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var (
		s   PromSink
		err error
	)
	s.events, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_events_total",
		Help: "Requests processed by outcome",
	}, []string{"vehicle_id", "assigned", "reason"}))
	if err != nil {
		return nil, err
	}
	s.cost, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_cost",
		Help:    "Cost of committed insertions",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}))
	if err != nil {
		return nil, err
	}
	s.latency, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assignment_latency_seconds",
		Help:    "Wall time of a dispatch decision including commit",
		Buckets: prometheus.DefBuckets,
	}))
	if err != nil {
		return nil, err
	}
	s.fleet, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assignment_snapshot_vehicles",
		Help: "Vehicles offered in the last snapshot",
	}))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RecordAssignment implements coremetrics.MetricsSink.
func (s *PromSink) RecordAssignment(a coremetrics.Assignment) error {
	s.events.WithLabelValues(a.VehicleID, strconv.FormatBool(a.Assigned), a.Reason).Inc()
	if a.Assigned {
		s.cost.Observe(a.Cost)
	}
	s.latency.Observe(a.Latency.Seconds())
	return nil
}

// RecordSnapshot sets the fleet gauge.
func (s *PromSink) RecordSnapshot(r coremetrics.SnapshotRecord) error {
	s.fleet.Set(float64(r.Vehicles))
	return nil
}
