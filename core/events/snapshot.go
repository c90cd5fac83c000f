package events

// SnapshotEvent is published when a decision cycle begins.
type SnapshotEvent struct {
	CycleID  string
	Time     float64
	Vehicles int
}
