// Package schedule holds the authoritative stop sequences of the fleet.
//
// The insertion search never reads a Schedule directly; it works on fleet
// entries built from it. Commits go through ApplyInsertion, which checks the
// version the decision was based on.
package schedule

import (
	"errors"

	"github.com/kilianp07/drt/core/model"
)

var (
	ErrUnknownVehicle = errors.New("unknown vehicle")
	ErrStaleSchedule  = errors.New("stale schedule")
	ErrInvalidSplice  = errors.New("invalid splice")
)

// Position is where and when a vehicle becomes free to divert.
type Position struct {
	Link model.LinkID
	Time float64
}

// Schedule is the plan of one vehicle. Stops excludes the stop the vehicle
// is currently committed to, which is reflected by Position and Occupancy.
type Schedule struct {
	Vehicle   model.Vehicle
	Started   bool
	Position  Position
	Occupancy int
	Stops     []model.ScheduledStop
	Version   uint64
}

func (s Schedule) clone() Schedule {
	s.Stops = append([]model.ScheduledStop(nil), s.Stops...)
	return s
}

// EndTime is the time the schedule completes.
func (s Schedule) EndTime() float64 {
	if n := len(s.Stops); n > 0 {
		return s.Stops[n-1].EndTime
	}
	return s.Position.Time
}

// Splice describes where a request is inserted and how the existing stops
// move. Stops [P, D) are delayed by PickupDelay and stops [D, n) by
// DropoffDelay.
type Splice struct {
	Request      model.Request
	P, D         int
	PickupBegin  float64
	PickupEnd    float64
	DropoffBegin float64
	DropoffEnd   float64
	PickupDelay  float64
	DropoffDelay float64
}

func (sp Splice) apply(stops []model.ScheduledStop) ([]model.ScheduledStop, error) {
	n := len(stops)
	if sp.P < 0 || sp.D < sp.P || sp.D > n {
		return nil, ErrInvalidSplice
	}
	out := make([]model.ScheduledStop, 0, n+2)
	out = append(out, stops[:sp.P]...)
	out = append(out, model.ScheduledStop{
		Link:      sp.Request.FromLink,
		BeginTime: sp.PickupBegin,
		EndTime:   sp.PickupEnd,
		Pickups:   []model.Request{sp.Request},
	})
	for _, s := range stops[sp.P:sp.D] {
		out = append(out, s.Shift(sp.PickupDelay))
	}
	out = append(out, model.ScheduledStop{
		Link:      sp.Request.ToLink,
		BeginTime: sp.DropoffBegin,
		EndTime:   sp.DropoffEnd,
		Dropoffs:  []model.Request{sp.Request},
	})
	for _, s := range stops[sp.D:] {
		out = append(out, s.Shift(sp.DropoffDelay))
	}
	return out, nil
}

// Visit reports a stop a vehicle has committed to.
type Visit struct {
	Vehicle model.VehicleID
	Stop    model.ScheduledStop
}

// Store keeps the authoritative schedules.
type Store interface {
	Add(v model.Vehicle) error
	Remove(id model.VehicleID) error
	Get(id model.VehicleID) (Schedule, bool)
	IDs() []model.VehicleID
	// Advance moves every vehicle forward to now.
	Advance(now float64) []Visit
	// ApplyInsertion splices a request into the schedule if it is still at
	// version.
	ApplyInsertion(id model.VehicleID, version uint64, sp Splice) (Schedule, error)
}
