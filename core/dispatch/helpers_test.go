package dispatch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/core/routing"
	"github.com/kilianp07/drt/core/schedule"
	"github.com/kilianp07/drt/infra/logger"
	"github.com/kilianp07/drt/internal/eventbus"
)

// lineQuery places links L0, L1, ... on a line 10 seconds apart.
type lineQuery struct {
	blocked model.LinkID
}

func (q lineQuery) Query(from, to model.LinkID, departure float64) (routing.PathData, error) {
	if to == q.blocked || from == q.blocked {
		return routing.PathData{}, fmt.Errorf("%w: %s -> %s", routing.ErrNoPath, from, to)
	}
	tt := 10 * math.Abs(pos(to)-pos(from))
	return routing.PathData{TravelTime: tt, ArrivalTime: departure + tt, Links: []model.LinkID{to}}, nil
}

func pos(l model.LinkID) float64 {
	n, err := strconv.Atoi(strings.TrimPrefix(string(l), "L"))
	if err != nil {
		panic(fmt.Sprintf("bad link %s", l))
	}
	return float64(n)
}

func vehicleAt(id string, link model.LinkID) model.Vehicle {
	return model.Vehicle{ID: model.VehicleID(id), Capacity: 4, StartLink: link}
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

func testConfig() Config {
	return Config{Workers: 4, StopDuration: Seconds(10)}
}

func newManager(t *testing.T, q routing.PathQuery, cfg Config, bus eventbus.EventBus, vehicles ...model.Vehicle) (*DispatchManager, *schedule.MemoryStore) {
	t.Helper()
	store, err := schedule.NewMemoryStore(vehicles...)
	require.NoError(t, err)
	mgr, err := NewDispatchManager(store, q, cfg, logger.NopLogger{}, nil, bus)
	require.NoError(t, err)
	return mgr, store
}
