package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/drt/core/dispatch/logging"
	"github.com/kilianp07/drt/core/events"
	"github.com/kilianp07/drt/core/fleet"
	"github.com/kilianp07/drt/core/insertion"
	"github.com/kilianp07/drt/core/logger"
	"github.com/kilianp07/drt/core/metrics"
	"github.com/kilianp07/drt/core/model"
	coremon "github.com/kilianp07/drt/core/monitoring"
	"github.com/kilianp07/drt/core/mqtt"
	"github.com/kilianp07/drt/core/routing"
	"github.com/kilianp07/drt/core/schedule"
	"github.com/kilianp07/drt/internal/eventbus"
)

// DispatchManager assigns requests to vehicles by cheapest insertion.
//
// A decision cycle starts with BeginCycle, which freezes a fleet snapshot.
// Each Dispatch searches every vehicle of the snapshot in parallel, commits
// the winner into the schedule store and refreshes that vehicle's entry. A
// winner whose commit is refused falls back to the next cheapest vehicle.
type DispatchManager struct {
	store   schedule.Store
	factory schedule.EntryFactory
	solver  *insertion.Solver
	cfg     Config

	logger   logger.Logger
	metrics  metrics.MetricsSink
	bus      eventbus.EventBus
	logStore logging.LogStore
	notifier mqtt.Notifier

	mu      sync.Mutex
	snap    *fleet.Snapshot
	cycleID string
	history []Result

	// commitMu serializes commits; searches run without it.
	commitMu sync.Mutex
	acks     sync.WaitGroup
}

// NewDispatchManager creates a new manager.
// sink and bus may be nil.
func NewDispatchManager(store schedule.Store, paths routing.PathQuery, cfg Config, log logger.Logger, sink metrics.MetricsSink, bus eventbus.EventBus) (*DispatchManager, error) {
	if store == nil || paths == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewDispatchManager")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	fn, err := insertion.NewCostFunction(cfg.Cost)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	provider := insertion.NewDetourProvider(paths, log, func(from, to model.LinkID, err error) {
		pathQueryFailures.Inc()
		coremon.CaptureException(err, map[string]string{
			"module": "dispatch_manager",
			"from":   string(from),
			"to":     string(to),
		})
	})
	return &DispatchManager{
		store:   store,
		factory: schedule.EntryFactory{Store: store},
		solver:  insertion.NewSolver(provider, insertion.NewCostCalculator(cfg.StopSeconds(), fn)),
		cfg:     cfg,
		logger:  log,
		metrics: sink,
		bus:     bus,
	}, nil
}

// SetLogStore configures the store used to persist dispatch decisions.
func (m *DispatchManager) SetLogStore(store logging.LogStore) {
	m.mu.Lock()
	m.logStore = store
	m.mu.Unlock()
}

// SetNotifier configures how committed schedules are sent to vehicles.
func (m *DispatchManager) SetNotifier(n mqtt.Notifier) {
	m.mu.Lock()
	m.notifier = n
	m.mu.Unlock()
}

// BeginCycle builds the fleet snapshot every following Dispatch is evaluated
// against and returns the cycle identifier.
func (m *DispatchManager) BeginCycle(now float64) string {
	start := time.Now()
	snap := fleet.Build(now, m.store.IDs(), m.factory, m.cfg.Workers)
	id := uuid.NewString()

	m.mu.Lock()
	m.snap = snap
	m.cycleID = id
	m.mu.Unlock()

	size := snap.Size()
	snapshotVehicles.Set(float64(size))
	if sr, ok := m.metrics.(metrics.SnapshotRecorder); ok {
		if err := sr.RecordSnapshot(metrics.SnapshotRecord{CycleID: id, Vehicles: size, Time: time.Now()}); err != nil {
			m.logger.Errorf("snapshot metrics error: %v", err)
		}
	}
	if m.bus != nil {
		m.bus.Publish(events.SnapshotEvent{CycleID: id, Time: now, Vehicles: size})
	}
	m.logger.Debugw("cycle started", map[string]any{
		"cycle_id": id,
		"time":     now,
		"vehicles": size,
		"build_ms": float64(time.Since(start).Microseconds()) / 1000,
	})
	return id
}

// Snapshot returns the snapshot of the current cycle, or nil before the
// first cycle.
func (m *DispatchManager) Snapshot() *fleet.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *DispatchManager) cycle() (*fleet.Snapshot, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, m.cycleID
}

// History returns the most recent results, oldest first.
func (m *DispatchManager) History() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Result(nil), m.history...)
}

// Dispatch searches the cheapest feasible insertion of req across the fleet
// snapshot and commits it. A request no vehicle can serve is reported through
// an unassigned Result, not an error. Invalid requests return an error. A
// cycle is started at the submission time when none was begun.
func (m *DispatchManager) Dispatch(ctx context.Context, req model.Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, fmt.Errorf("dispatch: %w", err)
	}
	snap, cycleID := m.cycle()
	if snap == nil {
		m.BeginCycle(req.SubmissionTime)
		snap, cycleID = m.cycle()
	}
	start := time.Now()
	res := Result{RequestID: req.ID, CycleID: cycleID, Time: snap.Time()}

	var entries []*fleet.Entry
	for _, e := range snap.Entries() {
		if e.FreeSeats() >= req.Load {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		res.Reason = ReasonNoVehicles
		m.finish(ctx, req, res, insertion.Evaluation{}, start)
		return res, nil
	}

	outcomes, err := m.search(ctx, req, entries)
	if err != nil {
		return Result{}, err
	}
	var ranked []insertion.BestInsertion
	for _, o := range outcomes {
		res.Candidates += o.Evaluated
		if o.Found {
			ranked = append(ranked, o.Best)
		}
	}
	pl := m.place(snap, req, ranked)
	res.Candidates += pl.evaluated
	candidatesEvaluated.Add(float64(res.Candidates))
	if !pl.ok {
		res.Reason = pl.reason
		m.finish(ctx, req, res, insertion.Evaluation{}, start)
		return res, nil
	}
	best, sched := pl.best, pl.sched
	res.VehicleID = best.Entry.Vehicle.ID
	res.PickupIndex = best.P
	res.DropoffIndex = best.D
	res.Assigned = true
	res.Cost = best.Cost
	res.PickupTime = best.Evaluation.PickupTime
	res.DropoffTime = best.Evaluation.DropoffTime
	res.Stops = projectStops(sched.Stops)
	res = m.finish(ctx, req, res, best.Evaluation, start)
	return res, nil
}

// maxResolves bounds how often one vehicle is searched again after its
// schedule moved on during a single Dispatch.
const maxResolves = 3

type placement struct {
	best      insertion.BestInsertion
	sched     schedule.Schedule
	evaluated int
	reason    string
	ok        bool
}

// rank orders insertions by cost then vehicle id.
func rank(ranked []insertion.BestInsertion) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Cost != ranked[j].Cost {
			return ranked[i].Cost < ranked[j].Cost
		}
		return ranked[i].Entry.Vehicle.ID < ranked[j].Entry.Vehicle.ID
	})
}

// place commits the cheapest insertion of ranked. A vehicle whose commit
// fails is refreshed in the snapshot and leaves the ranking; when its
// schedule only moved on, its current entry is searched again and the
// result ranked with the others.
func (m *DispatchManager) place(snap *fleet.Snapshot, req model.Request, ranked []insertion.BestInsertion) placement {
	pl := placement{reason: ReasonNoFeasibleInsertion}
	resolves := make(map[model.VehicleID]int)
	for len(ranked) > 0 {
		rank(ranked)
		best := ranked[0]
		ranked = ranked[1:]
		id := best.Entry.Vehicle.ID

		sched, err := m.commit(snap, req, best)
		if err == nil {
			pl.best, pl.sched, pl.ok = best, sched, true
			return pl
		}
		pl.reason = commitReason(err)
		m.logger.Warnf("commit of request %s to vehicle %s failed: %v", req.ID, id, err)
		switch pl.reason {
		case ReasonCommitFailed:
			coremon.CaptureException(err, map[string]string{
				"module":     "dispatch_manager",
				"vehicle_id": string(id),
				"request_id": string(req.ID),
			})
		case ReasonStaleSchedule:
			if resolves[id] >= maxResolves {
				continue
			}
			resolves[id]++
			e, ok := snap.Entry(id)
			if !ok || e.FreeSeats() < req.Load {
				continue
			}
			o := m.solver.Solve(req, e, insertion.Generate(len(e.Stops)))
			pl.evaluated += o.Evaluated
			if o.Found {
				ranked = append(ranked, o.Best)
			}
		}
	}
	return pl
}

// search runs the solver on every entry on the worker pool. Outcomes are in
// entry order.
func (m *DispatchManager) search(ctx context.Context, req model.Request, entries []*fleet.Entry) ([]insertion.Outcome, error) {
	outcomes := make([]insertion.Outcome, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for i, e := range entries {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("search vehicle %s: panic: %v", e.Vehicle.ID, r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = m.solver.Solve(req, e, insertion.Generate(len(e.Stops)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() == nil {
			coremon.CaptureException(err, map[string]string{"module": "dispatch_manager", "request_id": string(req.ID)})
		}
		return nil, fmt.Errorf("dispatch %s: %w", req.ID, err)
	}
	return outcomes, nil
}

// commit splices the winning insertion into the authoritative schedule and
// refreshes the vehicle's entry. The entry is refreshed on failure too so the
// next request sees the current schedule.
func (m *DispatchManager) commit(snap *fleet.Snapshot, req model.Request, best insertion.BestInsertion) (schedule.Schedule, error) {
	ev := best.Evaluation
	sp := schedule.Splice{
		Request:      req,
		P:            best.P,
		D:            best.D,
		PickupBegin:  ev.PickupTime,
		PickupEnd:    ev.PickupDeparture,
		DropoffBegin: ev.DropoffTime,
		DropoffEnd:   ev.DropoffDeparture,
		PickupDelay:  ev.Detour.PickupDelay,
		DropoffDelay: ev.Detour.DropoffDelay,
	}
	id := best.Entry.Vehicle.ID

	m.commitMu.Lock()
	defer m.commitMu.Unlock()
	sched, err := m.store.ApplyInsertion(id, best.Entry.Version, sp)
	snap.Update(id)
	return sched, err
}

func commitReason(err error) string {
	switch {
	case errors.Is(err, schedule.ErrStaleSchedule):
		return ReasonStaleSchedule
	case errors.Is(err, schedule.ErrUnknownVehicle):
		return ReasonUnknownVehicle
	default:
		return ReasonCommitFailed
	}
}

// finish records the result everywhere it is observed and returns it with
// the notification message id when one was sent.
func (m *DispatchManager) finish(ctx context.Context, req model.Request, res Result, ev insertion.Evaluation, start time.Time) Result {
	latency := time.Since(start)
	outcome := "assigned"
	if res.Assigned {
		requestsAssigned.Inc()
	} else {
		outcome = "unassignable"
		requestsUnassignable.WithLabelValues(res.Reason).Inc()
	}
	decisionLatency.WithLabelValues(outcome).Observe(latency.Seconds())

	if err := m.metrics.RecordAssignment(metrics.Assignment{
		CycleID:    res.CycleID,
		RequestID:  string(res.RequestID),
		VehicleID:  string(res.VehicleID),
		Assigned:   res.Assigned,
		Reason:     res.Reason,
		Cost:       res.Cost,
		WaitTime:   ev.Detour.WaitTime,
		Candidates: res.Candidates,
		Latency:    latency,
		Time:       time.Now(),
	}); err != nil {
		m.logger.Errorf("metrics error: %v", err)
	}

	if m.bus != nil {
		if res.Assigned {
			m.bus.Publish(events.AssignmentEvent{
				CycleID:     res.CycleID,
				Request:     req,
				VehicleID:   res.VehicleID,
				Cost:        res.Cost,
				PickupTime:  res.PickupTime,
				DropoffTime: res.DropoffTime,
				Candidates:  res.Candidates,
				Latency:     latency,
			})
		} else {
			m.bus.Publish(events.UnassignableEvent{
				CycleID:    res.CycleID,
				Request:    req,
				Reason:     res.Reason,
				Candidates: res.Candidates,
				Latency:    latency,
			})
		}
	}

	if res.Assigned {
		m.logger.Infof("request %s assigned to %s at (%d,%d) cost %.1f", res.RequestID, res.VehicleID, res.PickupIndex, res.DropoffIndex, res.Cost)
		res.MessageID = m.notify(ctx, res)
	} else {
		m.logger.Infof("request %s unassignable: %s", res.RequestID, res.Reason)
	}

	m.mu.Lock()
	m.history = append(m.history, res)
	if over := len(m.history) - m.cfg.HistorySize; over > 0 {
		m.history = append([]Result(nil), m.history[over:]...)
	}
	store := m.logStore
	m.mu.Unlock()

	if store != nil {
		if err := store.Append(ctx, logRecord(res, latency)); err != nil {
			m.logger.Errorf("dispatch log error: %v", err)
		}
	}
	return res
}

func logRecord(res Result, latency time.Duration) logging.LogRecord {
	rec := logging.LogRecord{
		Timestamp:    time.Now(),
		CycleID:      res.CycleID,
		DecisionTime: res.Time,
		RequestID:    string(res.RequestID),
		Assigned:     res.Assigned,
		VehicleID:    string(res.VehicleID),
		Reason:       res.Reason,
		Cost:         res.Cost,
		PickupTime:   res.PickupTime,
		DropoffTime:  res.DropoffTime,
		Candidates:   res.Candidates,
		LatencyMS:    float64(latency.Microseconds()) / 1000,
	}
	for _, s := range res.Stops {
		st := logging.Stop{Link: string(s.Link), BeginTime: s.BeginTime, EndTime: s.EndTime}
		for _, id := range s.Pickups {
			st.Pickups = append(st.Pickups, string(id))
		}
		for _, id := range s.Dropoffs {
			st.Dropoffs = append(st.Dropoffs, string(id))
		}
		rec.Stops = append(rec.Stops, st)
	}
	return rec
}

// notify publishes the new schedule to the vehicle. Acknowledgments are
// awaited in the background when an ack timeout is configured.
func (m *DispatchManager) notify(ctx context.Context, res Result) string {
	m.mu.Lock()
	n := m.notifier
	m.mu.Unlock()
	if n == nil {
		return ""
	}
	u := mqtt.ScheduleUpdate{
		CycleID:   res.CycleID,
		VehicleID: res.VehicleID,
		RequestID: res.RequestID,
		Time:      res.Time,
		Stops:     make([]mqtt.StopUpdate, len(res.Stops)),
	}
	for i, s := range res.Stops {
		u.Stops[i] = mqtt.StopUpdate(s)
	}
	msgID, err := n.Notify(ctx, u)
	if err != nil {
		m.logger.Errorf("notify vehicle %s: %v", res.VehicleID, err)
		coremon.CaptureException(err, map[string]string{
			"module":     "dispatch_manager",
			"vehicle_id": string(res.VehicleID),
		})
		return ""
	}
	if m.cfg.AckTimeoutSeconds > 0 {
		timeout := time.Duration(m.cfg.AckTimeoutSeconds) * time.Second
		m.acks.Add(1)
		go func() {
			defer m.acks.Done()
			defer coremon.Recover()
			ok, err := n.WaitForAck(msgID, timeout)
			if err != nil || !ok {
				m.logger.Warnf("vehicle %s did not acknowledge schedule %s: %v", res.VehicleID, msgID, err)
			}
		}()
	}
	return msgID
}

// Close waits for pending acknowledgments and releases resources held by the
// manager.
func (m *DispatchManager) Close() error {
	m.acks.Wait()
	if m.bus != nil {
		m.bus.Close()
	}
	m.mu.Lock()
	store := m.logStore
	m.logStore = nil
	m.mu.Unlock()
	if store != nil {
		return store.Close()
	}
	return nil
}
