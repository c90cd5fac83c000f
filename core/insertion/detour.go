package insertion

import (
	"math"

	"github.com/kilianp07/drt/core/fleet"
	"github.com/kilianp07/drt/core/logger"
	"github.com/kilianp07/drt/core/model"
	"github.com/kilianp07/drt/core/routing"
)

// Insertion is a candidate joined with the paths it requires.
type Insertion struct {
	Candidate
	// ToPickup leads from the node preceding the pickup to the pickup.
	ToPickup routing.PathData
	// FromPickup leads to stop P, or directly to the dropoff when P == D.
	FromPickup routing.PathData
	// ToDropoff leads from stop D-1 to the dropoff. Unused when P == D.
	ToDropoff routing.PathData
	// FromDropoff leads from the dropoff to stop D. Unused when D is the end.
	FromDropoff routing.PathData
	// Missing is set when a required path could not be resolved.
	Missing bool
}

// FailureHook is notified once per unresolvable link pair.
type FailureHook func(from, to model.LinkID, err error)

// DetourProvider resolves the detour paths of insertions.
type DetourProvider struct {
	query  routing.PathQuery
	log    logger.Logger
	onFail FailureHook
}

// NewDetourProvider returns a provider issuing queries to q. log and hook may
// be nil.
func NewDetourProvider(q routing.PathQuery, log logger.Logger, hook FailureHook) *DetourProvider {
	return &DetourProvider{query: q, log: log, onFail: hook}
}

type pathKey struct{ from, to model.LinkID }

type pathResult struct {
	data routing.PathData
	err  error
}

// DetourDataSet caches the paths needed to evaluate the insertions of one
// request into one vehicle. A link pair is queried at most once, at the
// first departure asking for it; later departures reuse its travel time. A set is
// not safe for concurrent use; each solver worker owns its own.
type DetourDataSet struct {
	provider *DetourProvider
	req      model.Request
	entry    *fleet.Entry
	paths    map[pathKey]pathResult
	queries  int
}

// DetourDataSet returns an empty set for req and entry. Paths are resolved
// lazily as insertions are requested.
func (p *DetourProvider) DetourDataSet(req model.Request, entry *fleet.Entry) *DetourDataSet {
	return &DetourDataSet{
		provider: p,
		req:      req,
		entry:    entry,
		paths:    make(map[pathKey]pathResult),
	}
}

// Queries returns the number of path queries issued so far.
func (s *DetourDataSet) Queries() int { return s.queries }

func (s *DetourDataSet) path(from, to model.LinkID, departure float64) (routing.PathData, bool) {
	if from == to {
		return routing.PathData{ArrivalTime: departure}, true
	}
	k := pathKey{from, to}
	if r, ok := s.paths[k]; ok {
		// travel times are reused across departures, arrivals are not
		data := r.data
		data.ArrivalTime = departure + data.TravelTime
		return data, r.err == nil
	}
	s.queries++
	data, err := s.provider.query.Query(from, to, departure)
	s.paths[k] = pathResult{data: data, err: err}
	if err != nil {
		if s.provider.log != nil {
			s.provider.log.Warnf("path query %s -> %s for request %s failed: %v", from, to, s.req.ID, err)
		}
		if s.provider.onFail != nil {
			s.provider.onFail(from, to, err)
		}
		return data, false
	}
	return data, true
}

// Insertion resolves the paths of c. Departure times are estimated from the
// unshifted schedule.
func (s *DetourDataSet) Insertion(c Candidate) Insertion {
	e := s.entry
	n := len(e.Stops)
	ins := Insertion{Candidate: c}
	ok := true
	resolve := func(from, to model.LinkID, dep float64) routing.PathData {
		d, found := s.path(from, to, dep)
		ok = ok && found
		return d
	}

	pickupDep := e.DepartureTime(c.P)
	ins.ToPickup = resolve(e.DepartureLink(c.P), s.req.FromLink, pickupDep)
	pickupEst := math.Max(s.req.EarliestStartTime, pickupDep)
	if c.P == c.D {
		ins.FromPickup = resolve(s.req.FromLink, s.req.ToLink, pickupEst)
	} else {
		ins.FromPickup = resolve(s.req.FromLink, e.Stops[c.P].Task.Link, pickupEst)
		ins.ToDropoff = resolve(e.DepartureLink(c.D), s.req.ToLink, e.DepartureTime(c.D))
	}
	if c.D < n {
		ins.FromDropoff = resolve(s.req.ToLink, e.Stops[c.D].Task.Link, e.DepartureTime(c.D))
	}
	ins.Missing = !ok
	return ins
}
