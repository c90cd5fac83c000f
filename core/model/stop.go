package model

// ScheduledStop is a stop task of a vehicle's authoritative schedule. The
// vehicle arrives at BeginTime and departs at EndTime after boarding Pickups
// and alighting Dropoffs.
type ScheduledStop struct {
	Link      LinkID
	BeginTime float64
	EndTime   float64
	Pickups   []Request
	Dropoffs  []Request
}

// OccupancyChange returns the number of boarding minus alighting passengers.
func (s ScheduledStop) OccupancyChange() int {
	change := 0
	for _, r := range s.Pickups {
		change += r.Load
	}
	for _, r := range s.Dropoffs {
		change -= r.Load
	}
	return change
}

// Passengers returns the number of requests served at the stop.
func (s ScheduledStop) Passengers() int {
	return len(s.Pickups) + len(s.Dropoffs)
}

// Shift returns a copy of the stop delayed by d seconds.
func (s ScheduledStop) Shift(d float64) ScheduledStop {
	s.BeginTime += d
	s.EndTime += d
	return s
}
