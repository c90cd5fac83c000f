package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/drt/core/monitoring"
	"github.com/kilianp07/drt/infra/logger"
)

const testScenario = `name: ring
links:
  - {id: ab, from: a, to: b, travel_time: 60}
  - {id: bc, from: b, to: c, travel_time: 60}
  - {id: cd, from: c, to: d, travel_time: 60}
  - {id: da, from: d, to: a, travel_time: 60}
vehicles:
  - {id: v1, capacity: 4, start_link: da}
requests:
  - {id: r1, from: ab, to: bc, submission_time: 0}
  - {id: r2, from: cd, to: ab, submission_time: 10, latest_start: 11}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	logger.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { coremon.Init(coremon.NopMonitor{}) })
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func files(t *testing.T) (cfg, sc string) {
	t.Helper()
	dir := t.TempDir()
	cfg = filepath.Join(dir, "config.yaml")
	sc = filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("logging:\n  backend: none\nlog:\n  level: error\n"), 0o644))
	require.NoError(t, os.WriteFile(sc, []byte(testScenario), 0o644))
	return cfg, sc
}

func TestSimulateCommand(t *testing.T) {
	cfg, sc := files(t)
	jsonOutput = false
	out, err := execute(t, "simulate", "--config", cfg, "--scenario", sc)
	require.NoError(t, err)
	assert.Contains(t, out, "scenario ring")
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "-> v1")
	assert.Contains(t, out, "r2           unassigned (no_feasible_insertion)")
	assert.Contains(t, out, "requests 2, assigned 1, stop visits 2")
}

func TestSimulateCommandJSON(t *testing.T) {
	cfg, sc := files(t)
	out, err := execute(t, "simulate", "-c", cfg, "-s", sc, "--json")
	jsonOutput = false
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"request_id":"r1"`)
	assert.Contains(t, lines[0], `"assigned":true`)
	assert.Contains(t, lines[2], `"assigned":1`)
}

func TestSimulateRequiresScenario(t *testing.T) {
	scenarioPath = ""
	_, err := execute(t, "simulate")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}
