package insertion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/kilianp07/drt/core/fleet"
	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/core/routing"
)

// lineQuery places links L0, L1, ... on a line 10 seconds apart.
type lineQuery struct {
	mu      sync.Mutex
	calls   map[[2]model.LinkID]int
	blocked model.LinkID
}

func newLineQuery() *lineQuery {
	return &lineQuery{calls: make(map[[2]model.LinkID]int)}
}

func pos(l model.LinkID) float64 {
	n, err := strconv.Atoi(strings.TrimPrefix(string(l), "L"))
	if err != nil {
		panic(fmt.Sprintf("bad link %s", l))
	}
	return float64(n)
}

func (q *lineQuery) Query(from, to model.LinkID, departure float64) (routing.PathData, error) {
	q.mu.Lock()
	q.calls[[2]model.LinkID{from, to}]++
	q.mu.Unlock()
	if to == q.blocked || from == q.blocked {
		return routing.PathData{}, routing.ErrNoPath
	}
	tt := 10 * math.Abs(pos(to)-pos(from))
	return routing.PathData{TravelTime: tt, ArrivalTime: departure + tt, Links: []model.LinkID{to}}, nil
}

func request(id string, from, to model.LinkID) model.Request {
	return model.Request{
		ID:                model.RequestID(id),
		FromLink:          from,
		ToLink:            to,
		LatestStartTime:   1000,
		LatestArrivalTime: 2000,
		Load:              1,
	}
}

func dropoffStop(link model.LinkID, at, latestArrival float64) model.ScheduledStop {
	r := request("onboard-"+string(link), "L0", link)
	r.LatestArrivalTime = latestArrival
	return model.ScheduledStop{Link: link, BeginTime: at, EndTime: at, Dropoffs: []model.Request{r}}
}

func pickupStop(link model.LinkID, at float64) model.ScheduledStop {
	r := request("waiting-"+string(link), link, "L9")
	return model.ScheduledStop{Link: link, BeginTime: at, EndTime: at, Pickups: []model.Request{r}}
}

func vehicle(capacity int) model.Vehicle {
	return model.Vehicle{ID: "v1", Capacity: capacity, StartLink: "L0"}
}

func newSolver(q routing.PathQuery, fn CostFunction) *Solver {
	return NewSolver(NewDetourProvider(q, nil, nil), NewCostCalculator(0, fn))
}

// twoDropoffs is a vehicle with two passengers onboard alighting at L2 and L6.
func twoDropoffs() *fleet.Entry {
	return fleet.NewEntry(vehicle(4), fleet.Started("L0", 0, 2), []model.ScheduledStop{
		dropoffStop("L2", 20, 100),
		dropoffStop("L6", 60, 200),
	}, 1, 0)
}

type constantCost float64

func (c constantCost) Cost(Detour) float64 { return float64(c) }
