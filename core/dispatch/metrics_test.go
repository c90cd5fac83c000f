package dispatch

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	decisionLatency.WithLabelValues("assigned").Observe(0.001)
	candidatesEvaluated.Add(3)
	requestsAssigned.Inc()
	requestsUnassignable.WithLabelValues(ReasonNoVehicles).Inc()
	snapshotVehicles.Set(2)
	pathQueryFailures.Inc()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, n := range []string{
		"insertion_decision_latency_seconds",
		"insertion_candidates_evaluated_total",
		"requests_assigned_total",
		"requests_unassignable_total",
		"fleet_snapshot_vehicles",
		"path_query_failures_total",
	} {
		assert.True(t, names[n], "metric %s not registered", n)
	}
}

func TestDispatchUpdatesMetrics(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	mgr, _ := newManager(t, lineQuery{}, testConfig(), nil, vehicleAt("v1", "L0"), vehicleAt("v2", "L5"))
	mgr.BeginCycle(0)
	assert.Equal(t, 2.0, testutil.ToFloat64(snapshotVehicles))

	_, err := mgr.Dispatch(context.Background(), request("r1", "L6", "L8"))
	require.NoError(t, err)
	req := request("r2", "L9", "L8")
	req.LatestStartTime = 1
	_, err = mgr.Dispatch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(requestsAssigned))
	assert.Equal(t, 1.0, testutil.ToFloat64(requestsUnassignable.WithLabelValues(ReasonNoFeasibleInsertion)))
	assert.Greater(t, testutil.ToFloat64(candidatesEvaluated), 2.0)
	assert.Equal(t, 2, testutil.CollectAndCount(decisionLatency))
}
