// Package mqtt defines how committed schedules reach the vehicles.
package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/drt/core/model"
)

// StopUpdate is one stop of the schedule sent to a vehicle.
type StopUpdate struct {
	Link      model.LinkID      `json:"link"`
	BeginTime float64           `json:"begin_time"`
	EndTime   float64           `json:"end_time"`
	Pickups   []model.RequestID `json:"pickups,omitempty"`
	Dropoffs  []model.RequestID `json:"dropoffs,omitempty"`
}

// ScheduleUpdate carries the remaining stops of a vehicle after a request
// was inserted.
type ScheduleUpdate struct {
	MessageID string          `json:"message_id"`
	CycleID   string          `json:"cycle_id"`
	VehicleID model.VehicleID `json:"vehicle_id"`
	RequestID model.RequestID `json:"request_id"`
	Time      float64         `json:"time"`
	Stops     []StopUpdate    `json:"stops"`
}

// Topic returns the topic the update is published on.
func (u ScheduleUpdate) Topic() string {
	return fmt.Sprintf("drt/vehicle/%s/schedule", u.VehicleID)
}

// Notifier publishes schedule updates to vehicles.
type Notifier interface {
	// Notify publishes the update and returns the message identifier used to
	// track the acknowledgment.
	Notify(ctx context.Context, u ScheduleUpdate) (messageID string, err error)

	// WaitForAck waits for the acknowledgment of messageID or until the
	// timeout expires.
	WaitForAck(messageID string, timeout time.Duration) (bool, error)
}
