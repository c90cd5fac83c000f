// Package scenario reads simulation scenarios: a road network, a fleet and a
// list of trip requests.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/infra/network"
)

// Defaults derive missing request time windows.
type Defaults struct {
	// MaxWaitTime bounds the pickup after the earliest start, in seconds.
	MaxWaitTime float64 `yaml:"max_wait_time"`
	// MaxRideTime bounds the dropoff after the latest start, in seconds.
	MaxRideTime float64 `yaml:"max_ride_time"`
}

// Vehicle is the file representation of a fleet vehicle.
type Vehicle struct {
	ID           string  `yaml:"id"`
	Capacity     int     `yaml:"capacity"`
	StartLink    string  `yaml:"start_link"`
	ServiceBegin float64 `yaml:"service_begin"`
	ServiceEnd   float64 `yaml:"service_end"`
}

// Request is the file representation of a trip request. Time windows left
// out are derived from the scenario defaults.
type Request struct {
	ID             string   `yaml:"id"`
	From           string   `yaml:"from"`
	To             string   `yaml:"to"`
	SubmissionTime float64  `yaml:"submission_time"`
	EarliestStart  *float64 `yaml:"earliest_start"`
	LatestStart    *float64 `yaml:"latest_start"`
	LatestArrival  *float64 `yaml:"latest_arrival"`
	Load           int      `yaml:"load"`
}

// Scenario is a parsed scenario file.
type Scenario struct {
	Name     string         `yaml:"name"`
	Defaults Defaults       `yaml:"defaults"`
	Links    []network.Link `yaml:"links"`
	Fleet    []Vehicle      `yaml:"vehicles"`
	Trips    []Request      `yaml:"requests"`
}

// DefaultMaxWaitTime and DefaultMaxRideTime apply when the scenario does not
// set them.
const (
	DefaultMaxWaitTime = 600.0
	DefaultMaxRideTime = 1800.0
)

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if s.Defaults.MaxWaitTime <= 0 {
		s.Defaults.MaxWaitTime = DefaultMaxWaitTime
	}
	if s.Defaults.MaxRideTime <= 0 {
		s.Defaults.MaxRideTime = DefaultMaxRideTime
	}
	if len(s.Links) == 0 {
		return nil, errors.New("scenario has no links")
	}
	return &s, nil
}

// Network builds the road network of the scenario and checks every link
// the fleet and the requests refer to exists.
func (s *Scenario) Network() (*network.Network, error) {
	net, err := network.New(s.Links)
	if err != nil {
		return nil, err
	}
	for _, v := range s.Fleet {
		if !net.HasLink(model.LinkID(v.StartLink)) {
			return nil, fmt.Errorf("vehicle %s: unknown start link %s", v.ID, v.StartLink)
		}
	}
	for _, r := range s.Trips {
		for _, l := range []string{r.From, r.To} {
			if !net.HasLink(model.LinkID(l)) {
				return nil, fmt.Errorf("request %s: unknown link %s", r.ID, l)
			}
		}
	}
	return net, nil
}

// Vehicles returns the fleet.
func (s *Scenario) Vehicles() ([]model.Vehicle, error) {
	out := make([]model.Vehicle, len(s.Fleet))
	for i, v := range s.Fleet {
		out[i] = model.Vehicle{
			ID:               model.VehicleID(v.ID),
			Capacity:         v.Capacity,
			StartLink:        model.LinkID(v.StartLink),
			ServiceBeginTime: v.ServiceBegin,
			ServiceEndTime:   v.ServiceEnd,
		}
		if err := out[i].Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Requests returns the requests ordered by submission time then id, with
// their time windows resolved.
func (s *Scenario) Requests() ([]model.Request, error) {
	out := make([]model.Request, len(s.Trips))
	for i, r := range s.Trips {
		req := model.Request{
			ID:             model.RequestID(r.ID),
			FromLink:       model.LinkID(r.From),
			ToLink:         model.LinkID(r.To),
			SubmissionTime: r.SubmissionTime,
			Load:           r.Load,
		}
		if req.Load == 0 {
			req.Load = 1
		}
		req.EarliestStartTime = valueOr(r.EarliestStart, r.SubmissionTime)
		req.LatestStartTime = valueOr(r.LatestStart, req.EarliestStartTime+s.Defaults.MaxWaitTime)
		req.LatestArrivalTime = valueOr(r.LatestArrival, req.LatestStartTime+s.Defaults.MaxRideTime)
		if err := req.Validate(); err != nil {
			return nil, err
		}
		out[i] = req
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SubmissionTime != out[j].SubmissionTime {
			return out[i].SubmissionTime < out[j].SubmissionTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func valueOr(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}
