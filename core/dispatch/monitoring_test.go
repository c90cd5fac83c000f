package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/drt/core/monitoring"
	"github.com/kilianp07/drt/infra/mqtt"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPathFailureCaptured(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	mgr, _ := newManager(t, lineQuery{blocked: "L9"}, testConfig(), nil, vehicleAt("v1", "L0"))
	mgr.BeginCycle(0)
	res, err := mgr.Dispatch(context.Background(), request("r1", "L9", "L2"))
	require.NoError(t, err)
	assert.False(t, res.Assigned)
	assert.Equal(t, ReasonNoFeasibleInsertion, res.Reason)

	require.Error(t, mon.err)
	assert.Equal(t, "dispatch_manager", mon.tags["module"])
	// both the approach and the trip leg touch the blocked link
	assert.Equal(t, "L9", mon.tags["from"])
	assert.Equal(t, "L2", mon.tags["to"])
	assert.Equal(t, 2.0, testutil.ToFloat64(pathQueryFailures))
}

func TestNotifyErrorCaptured(t *testing.T) {
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	pub := mqtt.NewMockPublisher()
	pub.FailIDs["v1"] = true
	mgr, _ := newManager(t, lineQuery{}, testConfig(), nil, vehicleAt("v1", "L0"))
	mgr.SetNotifier(pub)
	mgr.BeginCycle(0)
	_, err := mgr.Dispatch(context.Background(), request("r1", "L1", "L2"))
	require.NoError(t, err)

	require.Error(t, mon.err)
	assert.Equal(t, "v1", mon.tags["vehicle_id"])
	assert.Equal(t, "dispatch_manager", mon.tags["module"])
}
