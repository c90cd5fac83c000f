package insertion

import (
	"fmt"
	"math"

	"github.com/kilianp07/drt/core/fleet"
	"github.com/kilianp07/drt/core/model"
)

// InfeasibleCost is returned for infeasible insertions. It is greater than
// every feasible cost.
var InfeasibleCost = math.Inf(1)

// Infeasibility names the constraint an insertion violates.
type Infeasibility string

const (
	Feasible          Infeasibility = ""
	MissingPath       Infeasibility = "missing_path"
	CapacityExceeded  Infeasibility = "capacity"
	PickupTooLate     Infeasibility = "pickup_window"
	StopDeadline      Infeasibility = "stop_deadline"
	DropoffTooLate    Infeasibility = "ride_time"
	ServiceEndReached Infeasibility = "service_end"
)

// Detour quantifies what an insertion imposes on the vehicle and its
// passengers. All values are non-negative seconds.
type Detour struct {
	// VehicleTimeLoss is the extension of the vehicle's schedule end.
	VehicleTimeLoss float64
	// PickupDelay shifts the stops between the pickup and the dropoff.
	PickupDelay float64
	// DropoffDelay shifts the stops after the dropoff.
	DropoffDelay float64
	// PassengerDelay sums the delay of every shifted stop weighted by the
	// number of requests served there.
	PassengerDelay float64
	// WaitTime and RideTime apply to the new passenger.
	WaitTime float64
	RideTime float64
}

// CostFunction turns a detour into a scalar cost. Implementations must be
// deterministic and non-decreasing in VehicleTimeLoss.
type CostFunction interface {
	Cost(d Detour) float64
}

// WeightedCost is a linear combination of the detour components.
type WeightedCost struct {
	VehicleWeight        float64 `json:"vehicle_weight"`
	PassengerDelayWeight float64 `json:"passenger_delay_weight"`
	WaitWeight           float64 `json:"wait_weight"`
	RideWeight           float64 `json:"ride_weight"`
}

// DefaultWeightedCost ranks insertions by vehicle time loss only.
func DefaultWeightedCost() WeightedCost {
	return WeightedCost{VehicleWeight: 1}
}

// Validate checks the weights preserve monotonicity.
func (w WeightedCost) Validate() error {
	if w.VehicleWeight <= 0 {
		return fmt.Errorf("vehicle_weight must be positive")
	}
	if w.PassengerDelayWeight < 0 || w.WaitWeight < 0 || w.RideWeight < 0 {
		return fmt.Errorf("weights must not be negative")
	}
	return nil
}

// Cost implements CostFunction.
func (w WeightedCost) Cost(d Detour) float64 {
	return w.VehicleWeight*d.VehicleTimeLoss +
		w.PassengerDelayWeight*d.PassengerDelay +
		w.WaitWeight*d.WaitTime +
		w.RideWeight*d.RideTime
}

// Evaluation is the projected timeline of an insertion.
type Evaluation struct {
	Violation        Infeasibility
	PickupArrival    float64
	PickupTime       float64 // service begins
	PickupDeparture  float64
	DropoffTime      float64
	DropoffDeparture float64
	Detour           Detour
}

// Feasible reports whether no constraint is violated.
func (e Evaluation) Feasible() bool { return e.Violation == Feasible }

// CostCalculator checks and scores insertions. It holds no mutable state and
// may be shared between goroutines.
type CostCalculator struct {
	stopDuration float64
	fn           CostFunction
}

// NewCostCalculator returns a calculator spending stopDuration seconds at
// each inserted stop. A nil fn uses DefaultWeightedCost.
func NewCostCalculator(stopDuration float64, fn CostFunction) *CostCalculator {
	if fn == nil {
		fn = DefaultWeightedCost()
	}
	return &CostCalculator{stopDuration: stopDuration, fn: fn}
}

// Calculate returns the cost of ins, or InfeasibleCost.
func (c *CostCalculator) Calculate(req model.Request, e *fleet.Entry, ins Insertion) float64 {
	ev := c.Evaluate(req, e, ins)
	if !ev.Feasible() {
		return InfeasibleCost
	}
	return c.cost(ev)
}

func (c *CostCalculator) cost(ev Evaluation) float64 {
	cost := c.fn.Cost(ev.Detour)
	if math.IsNaN(cost) || cost < 0 {
		return InfeasibleCost
	}
	return cost
}

// shift checks stops [from, to) can absorb delay and returns the passenger
// delay it causes.
func shift(stops []fleet.Stop, from, to int, delay float64) (float64, bool) {
	if delay <= 0 {
		return 0, true
	}
	var passengers float64
	for i := from; i < to; i++ {
		s := stops[i]
		if s.Task.BeginTime+delay > s.LatestArrivalTime || s.Task.EndTime+delay > s.LatestDepartureTime {
			return 0, false
		}
		passengers += delay * float64(s.Task.Passengers())
	}
	return passengers, true
}

// Evaluate projects the timeline of ins and checks every constraint.
//
//gocyclo:ignore
func (c *CostCalculator) Evaluate(req model.Request, e *fleet.Entry, ins Insertion) Evaluation {
	var ev Evaluation
	if ins.Missing {
		ev.Violation = MissingPath
		return ev
	}
	n := len(e.Stops)
	p, d := ins.P, ins.D
	if p < 0 || d < p || d > n {
		ev.Violation = MissingPath
		return ev
	}

	capacity := e.Vehicle.Capacity
	if e.IncomingOccupancy(p)+req.Load > capacity {
		ev.Violation = CapacityExceeded
		return ev
	}
	for i := p; i < d; i++ {
		if e.Stops[i].OutgoingOccupancy+req.Load > capacity {
			ev.Violation = CapacityExceeded
			return ev
		}
	}

	ev.PickupArrival = e.DepartureTime(p) + ins.ToPickup.TravelTime
	ev.PickupTime = math.Max(ev.PickupArrival, req.EarliestStartTime)
	if ev.PickupTime > req.LatestStartTime {
		ev.Violation = PickupTooLate
		return ev
	}
	ev.PickupDeparture = ev.PickupTime + c.stopDuration
	ev.Detour.WaitTime = ev.PickupTime - req.EarliestStartTime

	if p == d {
		ev.DropoffTime = ev.PickupDeparture + ins.FromPickup.TravelTime
	} else {
		arrival := ev.PickupDeparture + ins.FromPickup.TravelTime
		ev.Detour.PickupDelay = math.Max(0, arrival-e.Stops[p].Task.BeginTime)
		pd, ok := shift(e.Stops, p, d, ev.Detour.PickupDelay)
		if !ok {
			ev.Violation = StopDeadline
			return ev
		}
		ev.Detour.PassengerDelay += pd
		ev.DropoffTime = e.DepartureTime(d) + ev.Detour.PickupDelay + ins.ToDropoff.TravelTime
	}
	if ev.DropoffTime > req.LatestArrivalTime {
		ev.Violation = DropoffTooLate
		return ev
	}
	ev.DropoffDeparture = ev.DropoffTime + c.stopDuration
	ev.Detour.RideTime = ev.DropoffTime - ev.PickupDeparture

	oldEnd := e.EndTime()
	newEnd := ev.DropoffDeparture
	if d < n {
		arrival := ev.DropoffDeparture + ins.FromDropoff.TravelTime
		ev.Detour.DropoffDelay = math.Max(0, arrival-e.Stops[d].Task.BeginTime)
		dd, ok := shift(e.Stops, d, n, ev.Detour.DropoffDelay)
		if !ok {
			ev.Violation = StopDeadline
			return ev
		}
		ev.Detour.PassengerDelay += dd
		newEnd = oldEnd + ev.Detour.DropoffDelay
	}
	ev.Detour.VehicleTimeLoss = math.Max(0, newEnd-oldEnd)
	if newEnd > math.Max(e.Vehicle.EndTime(), oldEnd) {
		ev.Violation = ServiceEndReached
		return ev
	}
	return ev
}
