// Package routing defines the path query port used by the insertion search.
package routing

import (
	"errors"

	"github.com/kilianp07/drt/core/model"
)

// ErrNoPath is returned when the destination cannot be reached.
var ErrNoPath = errors.New("no path")

// PathData describes a resolved path between two links.
type PathData struct {
	TravelTime  float64
	ArrivalTime float64
	Links       []model.LinkID
}

// PathQuery resolves paths on the road network. Implementations must be
// deterministic for a fixed network state and safe for concurrent use.
type PathQuery interface {
	Query(from, to model.LinkID, departure float64) (PathData, error)
}

// PathQueryFunc adapts a function to the PathQuery interface.
type PathQueryFunc func(from, to model.LinkID, departure float64) (PathData, error)

// Query calls f(from, to, departure).
func (f PathQueryFunc) Query(from, to model.LinkID, departure float64) (PathData, error) {
	return f(from, to, departure)
}
