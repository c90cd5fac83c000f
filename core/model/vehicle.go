package model

import (
	"fmt"
	"math"
)

// VehicleID identifies a vehicle of the fleet.
type VehicleID string

// LinkID identifies a directed link of the road network.
type LinkID string

// Vehicle represents a shared vehicle of the demand-responsive fleet.
type Vehicle struct {
	ID        VehicleID
	Capacity  int    // number of seats
	StartLink LinkID // depot or initial position

	// ServiceBeginTime and ServiceEndTime bound the period during which the
	// vehicle may serve requests, in simulation seconds. A zero
	// ServiceEndTime means the vehicle never goes out of service.
	ServiceBeginTime float64
	ServiceEndTime   float64
}

// Validate checks that the vehicle configuration is sound.
func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if v.Capacity <= 0 {
		return fmt.Errorf("vehicle %s: capacity must be positive", v.ID)
	}
	if v.StartLink == "" {
		return fmt.Errorf("vehicle %s: start link is required", v.ID)
	}
	if v.ServiceEndTime != 0 && v.ServiceEndTime < v.ServiceBeginTime {
		return fmt.Errorf("vehicle %s: service ends before it begins", v.ID)
	}
	return nil
}

// EndTime returns the end of the service window, +Inf when unbounded.
func (v Vehicle) EndTime() float64 {
	if v.ServiceEndTime == 0 {
		return math.Inf(1)
	}
	return v.ServiceEndTime
}

// InService reports whether the vehicle may still be dispatched at time t.
func (v Vehicle) InService(t float64) bool {
	return t < v.EndTime()
}
