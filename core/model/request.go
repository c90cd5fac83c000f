package model

import (
	"errors"
	"fmt"
)

// RequestID identifies a trip request.
type RequestID string

// ErrInvalidRequest is returned for requests that can never be served.
var ErrInvalidRequest = errors.New("invalid request")

// Request is a trip request from a pickup link to a dropoff link.
type Request struct {
	ID             RequestID
	FromLink       LinkID
	ToLink         LinkID
	SubmissionTime float64

	// EarliestStartTime and LatestStartTime bound the pickup time. The
	// latest start encodes the maximum wait time.
	EarliestStartTime float64
	LatestStartTime   float64
	// LatestArrivalTime bounds the dropoff time and encodes the maximum
	// ride time.
	LatestArrivalTime float64

	Load int // number of passengers travelling together
}

// Validate checks the request is internally consistent.
func (r Request) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalidRequest)
	case r.FromLink == "" || r.ToLink == "":
		return fmt.Errorf("%w: %s: pickup and dropoff links are required", ErrInvalidRequest, r.ID)
	case r.Load <= 0:
		return fmt.Errorf("%w: %s: load must be positive", ErrInvalidRequest, r.ID)
	case r.LatestStartTime < r.EarliestStartTime:
		return fmt.Errorf("%w: %s: latest start before earliest start", ErrInvalidRequest, r.ID)
	case r.LatestArrivalTime < r.EarliestStartTime:
		return fmt.Errorf("%w: %s: latest arrival before earliest start", ErrInvalidRequest, r.ID)
	}
	return nil
}
