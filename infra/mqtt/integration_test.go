//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremqtt "github.com/kilianp07/drt/core/mqtt"
	"github.com/kilianp07/drt/internal/testutil"
)

// TestScheduleRoundTrip publishes a schedule through a real broker and acks
// it from a simulated vehicle.
func TestScheduleRoundTrip(t *testing.T) {
	if !testutil.DockerAvailable() {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	broker, cleanup, err := testutil.StartMosquitto(ctx)
	require.NoError(t, err)
	defer cleanup()

	vehicle := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("veh1"))
	tok := vehicle.Connect()
	tok.Wait()
	require.NoError(t, tok.Error())
	defer vehicle.Disconnect(100)

	received := make(chan coremqtt.ScheduleUpdate, 1)
	tok = vehicle.Subscribe("drt/vehicle/veh1/schedule", 1, func(c paho.Client, m paho.Message) {
		var u coremqtt.ScheduleUpdate
		if err := json.Unmarshal(m.Payload(), &u); err != nil {
			return
		}
		ack := fmt.Sprintf(`{"message_id":"%s"}`, u.MessageID)
		c.Publish("drt/vehicle/veh1/ack", 1, false, []byte(ack))
		received <- u
	})
	tok.Wait()
	require.NoError(t, tok.Error())

	cli, err := NewPahoClient(Config{
		Broker:   broker,
		ClientID: "dispatcher",
		QoS:      map[string]byte{"schedule": 1, "ack": 1},
	})
	require.NoError(t, err)
	defer cli.Disconnect()
	// let the ack subscription settle
	time.Sleep(200 * time.Millisecond)

	msgID, err := cli.Notify(ctx, update("veh1"))
	require.NoError(t, err)

	select {
	case u := <-received:
		assert.Equal(t, msgID, u.MessageID)
		assert.Len(t, u.Stops, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("schedule not received")
	}
	ok, err := cli.WaitForAck(msgID, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
