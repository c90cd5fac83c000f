package events

import (
	"time"

	"github.com/kilianp07/drt/core/model"
)

// AssignmentEvent is published after a request is committed to a vehicle.
type AssignmentEvent struct {
	CycleID     string
	Request     model.Request
	VehicleID   model.VehicleID
	Cost        float64
	PickupTime  float64
	DropoffTime float64
	Candidates  int
	Latency     time.Duration
}

// UnassignableEvent is published when no vehicle of the snapshot can serve a
// request.
type UnassignableEvent struct {
	CycleID    string
	Request    model.Request
	Reason     string
	Candidates int
	Latency    time.Duration
}
