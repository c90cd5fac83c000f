package fleet

import (
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/drt/core/model"
)

// EntryFactory creates the entry of a vehicle at the given time. It returns
// false when the vehicle cannot be offered new requests, for instance when it
// is out of service or no longer part of the fleet.
type EntryFactory interface {
	CreateEntry(id model.VehicleID, now float64) (*Entry, bool)
}

// EntryFactoryFunc adapts a function to the EntryFactory interface.
type EntryFactoryFunc func(id model.VehicleID, now float64) (*Entry, bool)

// CreateEntry calls f(id, now).
func (f EntryFactoryFunc) CreateEntry(id model.VehicleID, now float64) (*Entry, bool) {
	return f(id, now)
}

// Snapshot is a point-in-time view of the fleet. The set of tracked vehicles
// is fixed at build time; each vehicle's entry can be replaced atomically
// without touching the others.
type Snapshot struct {
	time    float64
	factory EntryFactory
	ids     []model.VehicleID
	slots   map[model.VehicleID]*atomic.Pointer[Entry]
}

// Build creates a snapshot by applying factory to every vehicle on a pool of
// at most workers goroutines. Vehicles without an entry are left out.
func Build(now float64, ids []model.VehicleID, factory EntryFactory, workers int) *Snapshot {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sorted := append([]model.VehicleID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	entries := make([]*Entry, len(sorted))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, id := range sorted {
		g.Go(func() error {
			if e, ok := factory.CreateEntry(id, now); ok {
				entries[i] = e
			}
			return nil
		})
	}
	_ = g.Wait()

	s := &Snapshot{
		time:    now,
		factory: factory,
		ids:     sorted,
		slots:   make(map[model.VehicleID]*atomic.Pointer[Entry], len(sorted)),
	}
	for i, id := range sorted {
		slot := &atomic.Pointer[Entry]{}
		slot.Store(entries[i])
		s.slots[id] = slot
	}
	return s
}

// Time returns the decision time the snapshot was taken at.
func (s *Snapshot) Time() float64 { return s.time }

// Size returns the number of vehicles with an entry.
func (s *Snapshot) Size() int {
	n := 0
	for _, id := range s.ids {
		if s.slots[id].Load() != nil {
			n++
		}
	}
	return n
}

// Entry returns the current entry of the vehicle.
func (s *Snapshot) Entry(id model.VehicleID) (*Entry, bool) {
	slot, ok := s.slots[id]
	if !ok {
		return nil, false
	}
	e := slot.Load()
	return e, e != nil
}

// Entries returns the current entries ordered by vehicle id.
func (s *Snapshot) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.ids))
	for _, id := range s.ids {
		if e := s.slots[id].Load(); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Update recomputes the entry of a single vehicle at the snapshot time and
// replaces it. The vehicle is dropped from the snapshot if the factory no
// longer offers it. Update reports whether the vehicle still has an entry.
func (s *Snapshot) Update(id model.VehicleID) bool {
	slot, ok := s.slots[id]
	if !ok {
		return false
	}
	e, ok := s.factory.CreateEntry(id, s.time)
	if !ok {
		slot.Store(nil)
		return false
	}
	slot.Store(e)
	return true
}
