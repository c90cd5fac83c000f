package fleet

import (
	"math"

	"github.com/kilianp07/drt/core/model"
)

// StartKind distinguishes vehicles with and without an active task.
type StartKind int

const (
	// NotYetStarted means the vehicle has no active task yet; it waits at
	// its start link.
	NotYetStarted StartKind = iota
	// InProgress means the vehicle is executing a task and becomes free to
	// divert at Link and Time.
	InProgress
)

func (k StartKind) String() string {
	if k == InProgress {
		return "in_progress"
	}
	return "not_yet_started"
}

// Start is the position from which a vehicle can serve new stops.
type Start struct {
	Kind      StartKind
	Link      model.LinkID
	Time      float64
	Occupancy int
}

// NotStarted returns the start of a vehicle that has no active task at now.
func NotStarted(v model.Vehicle, now float64) Start {
	return Start{Kind: NotYetStarted, Link: v.StartLink, Time: math.Max(now, v.ServiceBeginTime)}
}

// Started returns the start of a vehicle free to divert at link and time.
func Started(link model.LinkID, time float64, occupancy int) Start {
	return Start{Kind: InProgress, Link: link, Time: time, Occupancy: occupancy}
}

// Stop is a scheduled stop enriched with the time and occupancy bounds the
// insertion search must respect.
type Stop struct {
	Task model.ScheduledStop
	// LatestArrivalTime derives from the latest arrival times of the
	// requests alighting here.
	LatestArrivalTime float64
	// LatestDepartureTime derives from the latest start times of the
	// requests boarding here.
	LatestDepartureTime float64
	OccupancyChange     int
	OutgoingOccupancy   int
}

func newStop(task model.ScheduledStop, incoming int) Stop {
	arrival := math.Inf(1)
	for _, r := range task.Dropoffs {
		arrival = math.Min(arrival, r.LatestArrivalTime)
	}
	departure := math.Inf(1)
	for _, r := range task.Pickups {
		departure = math.Min(departure, r.LatestStartTime)
	}
	change := task.OccupancyChange()
	// A stop already delayed beyond a bound only forbids further delay.
	return Stop{
		Task:                task,
		LatestArrivalTime:   math.Max(arrival, task.BeginTime),
		LatestDepartureTime: math.Max(departure, task.EndTime),
		OccupancyChange:     change,
		OutgoingOccupancy:   incoming + change,
	}
}

// Entry is an immutable snapshot of one vehicle's schedule taken at Time.
// Entries and their Stops must not be modified once built.
type Entry struct {
	Vehicle model.Vehicle
	Start   Start
	Stops   []Stop
	// Version is the version of the authoritative schedule the entry was
	// built from.
	Version uint64
	Time    float64
}

// NewEntry builds the entry of v from its remaining stop tasks.
func NewEntry(v model.Vehicle, start Start, tasks []model.ScheduledStop, version uint64, now float64) *Entry {
	stops := make([]Stop, len(tasks))
	occ := start.Occupancy
	for i, t := range tasks {
		stops[i] = newStop(t, occ)
		occ = stops[i].OutgoingOccupancy
	}
	return &Entry{Vehicle: v, Start: start, Stops: stops, Version: version, Time: now}
}

// IncomingOccupancy returns the occupancy on the leg arriving at stop i, or
// after the last stop when i equals the number of stops.
func (e *Entry) IncomingOccupancy(i int) int {
	if i == 0 {
		return e.Start.Occupancy
	}
	return e.Stops[i-1].OutgoingOccupancy
}

// DepartureLink returns the link the vehicle leaves from before stop i.
func (e *Entry) DepartureLink(i int) model.LinkID {
	if i == 0 {
		return e.Start.Link
	}
	return e.Stops[i-1].Task.Link
}

// DepartureTime returns the scheduled time the vehicle leaves for stop i.
func (e *Entry) DepartureTime(i int) float64 {
	if i == 0 {
		return e.Start.Time
	}
	return e.Stops[i-1].Task.EndTime
}

// EndTime returns the time the vehicle completes its current schedule.
func (e *Entry) EndTime() float64 {
	return e.DepartureTime(len(e.Stops))
}

// FreeSeats returns the free seats on the least loaded leg of the schedule,
// the largest load a pickup could board anywhere.
func (e *Entry) FreeSeats() int {
	low := e.Start.Occupancy
	for _, s := range e.Stops {
		if s.OutgoingOccupancy < low {
			low = s.OutgoingOccupancy
		}
	}
	return e.Vehicle.Capacity - low
}
