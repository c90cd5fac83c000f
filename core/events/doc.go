// Package events defines the dispatch events emitted on the event bus.
//
// Available event types:
//   - SnapshotEvent: a fleet snapshot was built for a decision cycle
//   - AssignmentEvent: a request was committed to a vehicle
//   - UnassignableEvent: no vehicle can serve a request
package events
