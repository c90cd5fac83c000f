package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/drt/core/metrics"
)

func TestPromSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordAssignment(coremetrics.Assignment{VehicleID: "v1", Assigned: true, Cost: 10, Latency: time.Millisecond}))
	require.NoError(t, sink.RecordAssignment(coremetrics.Assignment{Reason: "no_feasible_insertion"}))
	require.NoError(t, sink.RecordSnapshot(coremetrics.SnapshotRecord{Vehicles: 4}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.events.WithLabelValues("v1", "true", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.events.WithLabelValues("", "false", "no_feasible_insertion")))
	assert.Equal(t, 4.0, testutil.ToFloat64(sink.fleet))

	// registering twice reuses the collectors
	again, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	assert.Same(t, sink.events, again.events)
}
