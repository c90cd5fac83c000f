package metrics

import "time"

// Assignment is the outcome of one request, assigned or not.
type Assignment struct {
	CycleID    string
	RequestID  string
	VehicleID  string
	Assigned   bool
	Reason     string
	Cost       float64
	WaitTime   float64
	Candidates int
	Latency    time.Duration
	Time       time.Time
}

// MetricsSink records dispatch outcomes for observability purposes.
type MetricsSink interface {
	RecordAssignment(a Assignment) error
}

// SnapshotRecord describes the fleet snapshot of a decision cycle.
type SnapshotRecord struct {
	CycleID  string
	Vehicles int
	Time     time.Time
}

// SnapshotRecorder is implemented by sinks able to record snapshot sizes.
type SnapshotRecorder interface {
	RecordSnapshot(s SnapshotRecord) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAssignment(Assignment) error   { return nil }
func (NopSink) RecordSnapshot(SnapshotRecord) error { return nil }
