package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/drt/config"
	"github.com/kilianp07/drt/core/dispatch"
	"github.com/kilianp07/drt/core/dispatch/logging"
	"github.com/kilianp07/drt/core/model"
	coremon "github.com/kilianp07/drt/core/monitoring"
	"github.com/kilianp07/drt/infra/logger"
	"github.com/kilianp07/drt/infra/network"
)

func ring(t *testing.T) *network.Network {
	t.Helper()
	n, err := network.New([]network.Link{
		{ID: "ab", From: "a", To: "b", Time: 60},
		{ID: "bc", From: "b", To: "c", Time: 60},
		{ID: "cd", From: "c", To: "d", Time: 60},
		{ID: "da", From: "d", To: "a", Time: 60},
	})
	require.NoError(t, err)
	return n
}

func req(id string, from, to model.LinkID, at, latestStart float64) model.Request {
	return model.Request{
		ID:                model.RequestID(id),
		FromLink:          from,
		ToLink:            to,
		SubmissionTime:    at,
		EarliestStartTime: at,
		LatestStartTime:   latestStart,
		LatestArrivalTime: latestStart + 1800,
		Load:              1,
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Dispatch.StopDuration = dispatch.Seconds(30)
	cfg.Logging.Path = filepath.Join(t.TempDir(), "decisions.jsonl")
	return cfg
}

func TestServiceRun(t *testing.T) {
	cfg := testConfig(t)
	vehicles := []model.Vehicle{
		{ID: "v1", Capacity: 4, StartLink: "da"},
		{ID: "v2", Capacity: 4, StartLink: "bc"},
	}
	svc, err := New(cfg, ring(t), vehicles)
	require.NoError(t, err)

	sum, err := svc.Run(context.Background(), []model.Request{
		req("r2", "cd", "da", 100, 700),
		req("r1", "ab", "bc", 0, 600),
		req("r3", "cd", "ab", 200, 201),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Requests)
	assert.Equal(t, 2, sum.Assigned)
	assert.Equal(t, map[string]int{dispatch.ReasonNoFeasibleInsertion: 1}, sum.Unassigned)
	// every assigned request is picked up and dropped off
	assert.Equal(t, 2*sum.Assigned, sum.Visits)
	assert.Positive(t, sum.TotalCost)
	require.Len(t, sum.Results, 3)
	assert.Equal(t, model.RequestID("r1"), sum.Results[0].RequestID)
	// v1 waits at the end of da, the start of ab
	assert.Equal(t, model.VehicleID("v1"), sum.Results[0].VehicleID)
	assert.Equal(t, 60.0, sum.Results[0].PickupTime)

	require.NoError(t, svc.Close())
	store, err := logging.NewJSONLStore(cfg.Logging.Path)
	require.NoError(t, err)
	recs, err := store.Query(context.Background(), logging.LogQuery{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestOpenLogStore(t *testing.T) {
	dir := t.TempDir()
	for _, c := range []struct {
		cfg  config.LoggingConfig
		nilS bool
	}{
		{config.LoggingConfig{Backend: "none"}, true},
		{config.LoggingConfig{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")}, false},
		{config.LoggingConfig{Backend: "jsonl", Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 1}, false},
		{config.LoggingConfig{Backend: "sqlite", Path: filepath.Join(dir, "c.db")}, false},
	} {
		s, err := OpenLogStore(c.cfg)
		require.NoError(t, err, c.cfg.Backend)
		if c.nilS {
			assert.Nil(t, s)
			continue
		}
		require.NotNil(t, s)
		assert.NoError(t, s.Close())
	}
	_, err := OpenLogStore(config.LoggingConfig{Backend: "csv"})
	assert.Error(t, err)
}

func TestNewRejectsInvalidFleet(t *testing.T) {
	cfg := testConfig(t)
	_, err := New(cfg, ring(t), []model.Vehicle{{ID: "v1"}})
	assert.Error(t, err)
}
