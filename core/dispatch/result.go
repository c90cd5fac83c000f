package dispatch

import (
	"github.com/kilianp07/drt/core/model"
)

// Reasons reported for unassigned requests.
const (
	ReasonNoVehicles          = "no_vehicles"
	ReasonNoFeasibleInsertion = "no_feasible_insertion"
	ReasonStaleSchedule       = "stale_schedule"
	ReasonUnknownVehicle      = "unknown_vehicle"
	ReasonCommitFailed        = "commit_failed"
)

// ProjectedStop is a stop of the assigned vehicle's schedule after the
// insertion.
type ProjectedStop struct {
	Link      model.LinkID      `json:"link"`
	BeginTime float64           `json:"begin_time"`
	EndTime   float64           `json:"end_time"`
	Pickups   []model.RequestID `json:"pickups,omitempty"`
	Dropoffs  []model.RequestID `json:"dropoffs,omitempty"`
}

func projectStops(stops []model.ScheduledStop) []ProjectedStop {
	out := make([]ProjectedStop, len(stops))
	for i, s := range stops {
		out[i] = ProjectedStop{
			Link:      s.Link,
			BeginTime: s.BeginTime,
			EndTime:   s.EndTime,
			Pickups:   requestIDs(s.Pickups),
			Dropoffs:  requestIDs(s.Dropoffs),
		}
	}
	return out
}

func requestIDs(rs []model.Request) []model.RequestID {
	if len(rs) == 0 {
		return nil
	}
	ids := make([]model.RequestID, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

// Result is the outcome of dispatching one request. Unassigned results carry
// a Reason and a zero Cost.
type Result struct {
	RequestID    model.RequestID `json:"request_id"`
	CycleID      string          `json:"cycle_id"`
	Time         float64         `json:"time"`
	Assigned     bool            `json:"assigned"`
	VehicleID    model.VehicleID `json:"vehicle_id,omitempty"`
	PickupIndex  int             `json:"pickup_index"`
	DropoffIndex int             `json:"dropoff_index"`
	Cost         float64         `json:"cost"`
	PickupTime   float64         `json:"pickup_time,omitempty"`
	DropoffTime  float64         `json:"dropoff_time,omitempty"`
	Stops        []ProjectedStop `json:"stops,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	// Candidates is the number of insertions evaluated across the fleet.
	Candidates int    `json:"candidates"`
	MessageID  string `json:"message_id,omitempty"`
}
