package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	coremqtt "github.com/kilianp07/drt/core/mqtt"
)

// Notifier mirrors the core mqtt.Notifier interface.
type Notifier = coremqtt.Notifier

// MockPublisher records schedule updates in memory. It is used in tests and
// by the simulation when no broker is configured.
type MockPublisher struct {
	Messages   map[string][]coremqtt.ScheduleUpdate
	FailIDs    map[string]bool
	AckResults map[string]bool
	mu         sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Messages:   make(map[string][]coremqtt.ScheduleUpdate),
		FailIDs:    make(map[string]bool),
		AckResults: make(map[string]bool),
	}
}

// Notify records the update or returns an error if the vehicle is
// configured to fail.
func (m *MockPublisher) Notify(_ context.Context, u coremqtt.ScheduleUpdate) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := string(u.VehicleID)
	if m.FailIDs[id] {
		return "", fmt.Errorf("publish failed")
	}
	m.Messages[id] = append(m.Messages[id], u)
	msgID := u.MessageID
	if msgID == "" {
		msgID = fmt.Sprintf("msg-%s-%d", id, len(m.Messages[id]))
	}
	m.AckResults[msgID] = true
	return msgID, nil
}

// Sent returns the updates published to a vehicle.
func (m *MockPublisher) Sent(vehicleID string) []coremqtt.ScheduleUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.ScheduleUpdate(nil), m.Messages[vehicleID]...)
}

// WaitForAck simulates an immediate acknowledgment based on the stored result.
func (m *MockPublisher) WaitForAck(messageID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.AckResults[messageID]
	m.mu.Unlock()
	if !exists {
		return false, fmt.Errorf("%w: %s", coremqtt.ErrUnknownMessage, messageID)
	}
	return ok, nil
}
