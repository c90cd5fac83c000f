// Package logging persists dispatch decisions for later inspection.
package logging

import (
	"context"
	"time"
)

// Stop is a projected stop of the vehicle a request was assigned to.
type Stop struct {
	Link      string   `json:"link"`
	BeginTime float64  `json:"begin_time"`
	EndTime   float64  `json:"end_time"`
	Pickups   []string `json:"pickups,omitempty"`
	Dropoffs  []string `json:"dropoffs,omitempty"`
}

// LogRecord captures one dispatch decision.
type LogRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	CycleID      string    `json:"cycle_id"`
	DecisionTime float64   `json:"decision_time"`
	RequestID    string    `json:"request_id"`
	Assigned     bool      `json:"assigned"`
	VehicleID    string    `json:"vehicle_id,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Cost         float64   `json:"cost"`
	PickupTime   float64   `json:"pickup_time,omitempty"`
	DropoffTime  float64   `json:"dropoff_time,omitempty"`
	Candidates   int       `json:"candidates"`
	LatencyMS    float64   `json:"latency_ms"`
	Stops        []Stop    `json:"stops,omitempty"`
}

// LogQuery defines filters for retrieving records. Zero fields match
// everything.
type LogQuery struct {
	Start     time.Time
	End       time.Time
	VehicleID string
	RequestID string
	CycleID   string
	Assigned  *bool
}

// Match reports whether r passes every filter of q.
func (q LogQuery) Match(r LogRecord) bool {
	switch {
	case !q.Start.IsZero() && r.Timestamp.Before(q.Start):
		return false
	case !q.End.IsZero() && r.Timestamp.After(q.End):
		return false
	case q.VehicleID != "" && r.VehicleID != q.VehicleID:
		return false
	case q.RequestID != "" && r.RequestID != q.RequestID:
		return false
	case q.CycleID != "" && r.CycleID != q.CycleID:
		return false
	case q.Assigned != nil && r.Assigned != *q.Assigned:
		return false
	}
	return true
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}
