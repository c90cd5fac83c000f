package mqtt

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/drt/core/monitoring"
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

func TestNotifyErrorCaptured(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail, fail}}
	stubClient(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", AckTopic: "a", MaxRetries: 0, BackoffMS: 1}
	cli, err := NewPahoClient(cfg)
	require.NoError(t, err)
	_, err = cli.Notify(context.Background(), update("veh1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fail)
	require.Error(t, mon.err)
	assert.Equal(t, "veh1", mon.tags["vehicle_id"])
	assert.Equal(t, "mqtt", mon.tags["module"])
	assert.Equal(t, "r1", mon.tags["request_id"])
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	m.FailIDs["veh2"] = true

	id, err := m.Notify(context.Background(), update("veh1"))
	require.NoError(t, err)
	ok, err := m.WaitForAck(id, time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, m.Sent("veh1"), 1)

	_, err = m.Notify(context.Background(), update("veh2"))
	assert.Error(t, err)
	assert.Empty(t, m.Sent("veh2"))

	var _ Notifier = m
	var _ Notifier = (*PahoClient)(nil)
}
