package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	decisionLatency      *prometheus.HistogramVec
	candidatesEvaluated  prometheus.Counter
	requestsAssigned     prometheus.Counter
	requestsUnassignable *prometheus.CounterVec
	snapshotVehicles     prometheus.Gauge
	pathQueryFailures    prometheus.Counter
)

type collectors struct {
	latency      *prometheus.HistogramVec
	candidates   prometheus.Counter
	assigned     prometheus.Counter
	unassignable *prometheus.CounterVec
	vehicles     prometheus.Gauge
	pathFailures prometheus.Counter
}

// newCollectors creates new metric collectors.
func newCollectors() collectors {
	return collectors{
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insertion_decision_latency_seconds",
				Help:    "Wall time of one insertion decision from search to commit",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"outcome"},
		),
		candidates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "insertion_candidates_evaluated_total",
				Help: "Number of insertion candidates evaluated",
			},
		),
		assigned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "requests_assigned_total",
				Help: "Number of requests committed to a vehicle",
			},
		),
		unassignable: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "requests_unassignable_total",
				Help: "Number of requests no vehicle could serve",
			},
			[]string{"reason"},
		),
		vehicles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fleet_snapshot_vehicles",
				Help: "Number of vehicles in the current fleet snapshot",
			},
		),
		pathFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "path_query_failures_total",
				Help: "Number of path queries that returned no route",
			},
		),
	}
}

func (c collectors) install() {
	decisionLatency = c.latency
	candidatesEvaluated = c.candidates
	requestsAssigned = c.assigned
	requestsUnassignable = c.unassignable
	snapshotVehicles = c.vehicles
	pathQueryFailures = c.pathFailures
}

func init() {
	newCollectors().install()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(decisionLatency, candidatesEvaluated, requestsAssigned,
		requestsUnassignable, snapshotVehicles, pathQueryFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	newCollectors().install()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
