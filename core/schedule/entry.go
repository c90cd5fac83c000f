package schedule

import (
	"math"

	"github.com/kilianp07/drt/core/fleet"
	"github.com/kilianp07/drt/core/model"
)

// EntryFactory builds fleet entries from a Store.
type EntryFactory struct {
	Store Store
}

// CreateEntry implements fleet.EntryFactory. Vehicles past their service
// end with nothing left to do are not offered.
func (f EntryFactory) CreateEntry(id model.VehicleID, now float64) (*fleet.Entry, bool) {
	s, ok := f.Store.Get(id)
	if !ok {
		return nil, false
	}
	start := fleet.Start{
		Kind:      fleet.NotYetStarted,
		Link:      s.Position.Link,
		Time:      math.Max(now, s.Position.Time),
		Occupancy: s.Occupancy,
	}
	if s.Started {
		start = fleet.Started(s.Position.Link, start.Time, s.Occupancy)
	}
	if len(s.Stops) == 0 && start.Time >= s.Vehicle.EndTime() {
		return nil, false
	}
	return fleet.NewEntry(s.Vehicle, start, s.Stops, s.Version, now), true
}
