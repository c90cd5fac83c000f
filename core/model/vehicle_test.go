package model

import (
	"errors"
	"math"
	"testing"
)

func TestVehicleValidate(t *testing.T) {
	ok := Vehicle{ID: "v1", Capacity: 4, StartLink: "l1", ServiceEndTime: 3600}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []Vehicle{
		{Capacity: 4, StartLink: "l1"},
		{ID: "v1", StartLink: "l1"},
		{ID: "v1", Capacity: 4},
		{ID: "v1", Capacity: 4, StartLink: "l1", ServiceBeginTime: 100, ServiceEndTime: 50},
	}
	for i, v := range bad {
		if err := v.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestVehicleEndTime(t *testing.T) {
	v := Vehicle{ID: "v1", Capacity: 1, StartLink: "l"}
	if !math.IsInf(v.EndTime(), 1) {
		t.Fatalf("expected unbounded end time got %v", v.EndTime())
	}
	v.ServiceEndTime = 100
	if v.InService(100) {
		t.Fatalf("vehicle should be out of service at its end time")
	}
	if !v.InService(99) {
		t.Fatalf("vehicle should be in service before its end time")
	}
}

func TestRequestValidate(t *testing.T) {
	base := Request{ID: "r1", FromLink: "a", ToLink: "b", EarliestStartTime: 0, LatestStartTime: 300, LatestArrivalTime: 900, Load: 1}
	if err := base.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := map[string]func(r *Request){
		"no id":          func(r *Request) { r.ID = "" },
		"no links":       func(r *Request) { r.ToLink = "" },
		"zero load":      func(r *Request) { r.Load = 0 },
		"inverted start": func(r *Request) { r.LatestStartTime = -1 },
		"early arrival":  func(r *Request) { r.LatestArrivalTime = -1 },
	}
	for name, mut := range cases {
		r := base
		mut(&r)
		err := r.Validate()
		if !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest got %v", name, err)
		}
	}
}

func TestScheduledStopOccupancyChange(t *testing.T) {
	s := ScheduledStop{
		Pickups:  []Request{{ID: "a", Load: 2}, {ID: "b", Load: 1}},
		Dropoffs: []Request{{ID: "c", Load: 1}},
	}
	if got := s.OccupancyChange(); got != 2 {
		t.Fatalf("expected 2 got %d", got)
	}
	if got := s.Passengers(); got != 3 {
		t.Fatalf("expected 3 passengers got %d", got)
	}
	shifted := s.Shift(30)
	if shifted.BeginTime != 30 || shifted.EndTime != 30 || s.BeginTime != 0 {
		t.Fatalf("shift must return a delayed copy")
	}
}
