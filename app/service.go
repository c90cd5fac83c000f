// Package app wires the dispatcher from configuration and drives it through a
// scenario.
package app

import (
	"context"
	"fmt"
	"math"
	"sort"

	apidispatch "github.com/kilianp07/drt/api/dispatch"
	"github.com/kilianp07/drt/config"
	"github.com/kilianp07/drt/core/dispatch"
	"github.com/kilianp07/drt/core/dispatch/logging"
	"github.com/kilianp07/drt/core/events"
	coremetrics "github.com/kilianp07/drt/core/metrics"
	"github.com/kilianp07/drt/core/model"
	coremon "github.com/kilianp07/drt/core/monitoring"
	"github.com/kilianp07/drt/core/routing"
	"github.com/kilianp07/drt/core/schedule"
	"github.com/kilianp07/drt/infra/logger"
	"github.com/kilianp07/drt/infra/metrics"
	"github.com/kilianp07/drt/infra/mqtt"
	"github.com/kilianp07/drt/internal/eventbus"
)

// Service orchestrates the schedule store, the dispatch manager and its
// adapters.
type Service struct {
	Manager *dispatch.DispatchManager
	Store   *schedule.MemoryStore

	bus      *eventbus.Bus
	client   *mqtt.PahoClient
	log      logger.Logger
	promPort string
	api      config.APIConfig
	logStore logging.LogStore
}

// Summary aggregates the outcome of a run.
type Summary struct {
	Requests     int               `json:"requests"`
	Assigned     int               `json:"assigned"`
	Unassigned   map[string]int    `json:"unassigned"`
	Visits       int               `json:"visits"`
	TotalCost    float64           `json:"total_cost"`
	MeanWaitTime float64           `json:"mean_wait_time"`
	Results      []dispatch.Result `json:"-"`
}

// OpenLogStore opens the decision log store selected by cfg, or nil for the
// "none" backend.
func OpenLogStore(cfg config.LoggingConfig) (logging.LogStore, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendSQLite:
		return logging.NewSQLiteStore(cfg.Path)
	case config.BackendJSONL:
		if cfg.MaxSizeMB > 0 {
			return logging.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return logging.NewJSONLStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown log backend %s", cfg.Backend)
	}
}

// New creates a Service from the configuration for the given fleet.
func New(cfg *config.Config, paths routing.PathQuery, vehicles []model.Vehicle) (*Service, error) {
	if err := logger.Configure(cfg.Log); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logg := logger.New("service")
	coremon.Init(coremon.NewLoggingMonitor(logger.New("monitoring")))

	store, err := schedule.NewMemoryStore(vehicles...)
	if err != nil {
		return nil, fmt.Errorf("fleet: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New(eventbus.WithBuffer(64))
	manager, err := dispatch.NewDispatchManager(store, paths, cfg.Dispatch, logger.New("dispatch"), sink, bus)
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}
	svc := &Service{Manager: manager, Store: store, bus: bus, log: logg, promPort: cfg.Metrics.PrometheusPort, api: cfg.API}

	logStore, err := OpenLogStore(cfg.Logging)
	if err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("log store: %w", err)
	}
	if logStore != nil {
		manager.SetLogStore(logStore)
		svc.logStore = logStore
	}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = manager.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		manager.SetNotifier(client)
		svc.client = client
	}
	return svc, nil
}

// watch logs bus events until the subscription closes.
func (s *Service) watch(ch <-chan eventbus.Event, done chan<- struct{}) {
	defer close(done)
	for ev := range ch {
		switch e := ev.(type) {
		case events.SnapshotEvent:
			s.log.Debugw("snapshot", map[string]any{"cycle_id": e.CycleID, "time": e.Time, "vehicles": e.Vehicles})
		case events.AssignmentEvent:
			s.log.Debugw("assigned", map[string]any{"request_id": e.Request.ID, "vehicle_id": e.VehicleID, "cost": e.Cost})
		case events.UnassignableEvent:
			s.log.Debugw("unassignable", map[string]any{"request_id": e.Request.ID, "reason": e.Reason})
		}
	}
}

// Run dispatches the requests in submission order. Before each request the
// fleet is advanced to its submission time and a new cycle begins.
func (s *Service) Run(ctx context.Context, requests []model.Request) (Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.promPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.api.Address != "" && s.logStore != nil {
		go func() {
			if err := apidispatch.Serve(ctx, s.api.Address, s.logStore, s.api.Token); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	ch := s.bus.Subscribe()
	done := make(chan struct{})
	go s.watch(ch, done)
	defer func() {
		s.bus.Unsubscribe(ch)
		<-done
	}()

	ordered := append([]model.Request(nil), requests...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SubmissionTime < ordered[j].SubmissionTime })

	sum := Summary{Unassigned: map[string]int{}}
	var waits float64
	for _, req := range ordered {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		visits := s.Store.Advance(req.SubmissionTime)
		sum.Visits += len(visits)
		s.Manager.BeginCycle(req.SubmissionTime)
		res, err := s.Manager.Dispatch(ctx, req)
		if err != nil {
			return sum, err
		}
		sum.Requests++
		sum.Results = append(sum.Results, res)
		if res.Assigned {
			sum.Assigned++
			sum.TotalCost += res.Cost
			waits += res.PickupTime - req.EarliestStartTime
		} else {
			sum.Unassigned[res.Reason]++
		}
	}
	// let the fleet finish its schedules
	sum.Visits += len(s.Store.Advance(math.Inf(1)))
	if sum.Assigned > 0 {
		sum.MeanWaitTime = waits / float64(sum.Assigned)
	}
	s.log.Infof("dispatched %d requests: %d assigned", sum.Requests, sum.Assigned)
	return sum, nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	err := s.Manager.Close()
	if s.client != nil {
		s.client.Disconnect()
	}
	return err
}
