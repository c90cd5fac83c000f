package schedule

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/drt/core/model"
)

type slot struct {
	mu sync.Mutex
	s  Schedule
}

// MemoryStore is an in-memory Store safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[model.VehicleID]*slot
}

// NewMemoryStore returns a store holding the given vehicles.
func NewMemoryStore(vehicles ...model.Vehicle) (*MemoryStore, error) {
	m := &MemoryStore{slots: make(map[model.VehicleID]*slot)}
	for _, v := range vehicles {
		if err := m.Add(v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add registers a vehicle idle at its start link.
func (m *MemoryStore) Add(v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[v.ID]; ok {
		return fmt.Errorf("vehicle %s already registered", v.ID)
	}
	m.slots[v.ID] = &slot{s: Schedule{
		Vehicle:  v,
		Position: Position{Link: v.StartLink, Time: v.ServiceBeginTime},
	}}
	return nil
}

func (m *MemoryStore) Remove(id model.VehicleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVehicle, id)
	}
	delete(m.slots, id)
	return nil
}

func (m *MemoryStore) slot(id model.VehicleID) (*slot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sl, ok := m.slots[id]
	return sl, ok
}

// Get returns a copy of the vehicle's schedule.
func (m *MemoryStore) Get(id model.VehicleID) (Schedule, bool) {
	sl, ok := m.slot(id)
	if !ok {
		return Schedule{}, false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.s.clone(), true
}

// IDs returns the registered vehicles in order.
func (m *MemoryStore) IDs() []model.VehicleID {
	m.mu.RLock()
	ids := make([]model.VehicleID, 0, len(m.slots))
	for id := range m.slots {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Advance commits every free vehicle to its next stop until it is busy
// beyond now or has nothing left to do.
func (m *MemoryStore) Advance(now float64) []Visit {
	var visits []Visit
	for _, id := range m.IDs() {
		sl, ok := m.slot(id)
		if !ok {
			continue
		}
		sl.mu.Lock()
		s := &sl.s
		if s.Vehicle.ServiceBeginTime <= now {
			for s.Position.Time <= now && len(s.Stops) > 0 {
				next := s.Stops[0]
				s.Stops = append([]model.ScheduledStop(nil), s.Stops[1:]...)
				s.Started = true
				s.Position = Position{Link: next.Link, Time: next.EndTime}
				s.Occupancy += next.OccupancyChange()
				s.Version++
				visits = append(visits, Visit{Vehicle: id, Stop: next})
			}
			if s.Started && s.Position.Time <= now && len(s.Stops) == 0 {
				s.Started = false
				s.Version++
			}
		}
		sl.mu.Unlock()
	}
	return visits
}

// ApplyInsertion implements Store.
func (m *MemoryStore) ApplyInsertion(id model.VehicleID, version uint64, sp Splice) (Schedule, error) {
	sl, ok := m.slot(id)
	if !ok {
		return Schedule{}, fmt.Errorf("%w: %s", ErrUnknownVehicle, id)
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.s.Version != version {
		return Schedule{}, fmt.Errorf("%w: vehicle %s at version %d, decision based on %d",
			ErrStaleSchedule, id, sl.s.Version, version)
	}
	stops, err := sp.apply(sl.s.Stops)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: (%d,%d) into %d stops", err, sp.P, sp.D, len(sl.s.Stops))
	}
	sl.s.Stops = stops
	sl.s.Version++
	return sl.s.clone(), nil
}
