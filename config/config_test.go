package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  ack_topic: "drt/vehicle/+/ack"
  use_tls: false
  qos:
    schedule: 1
dispatch:
  workers: 3
  stop_duration_seconds: 30
  ack_timeout_seconds: 3
  cost:
    type: weighted
    conf:
      vehicle_weight: 1
      wait_weight: 0.5
metrics:
  prometheus_port: ":9100"
  sinks:
    - type: "nop"
api:
  address: ":8081"
  token: secret
logging:
  backend: sqlite
  path: decisions.db
log:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"password", cfg.MQTT.Password, "pass"},
		{"ack_topic", cfg.MQTT.AckTopic, "drt/vehicle/+/ack"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"qos", cfg.MQTT.QoS["schedule"], byte(1)},
		{"max_retries default", cfg.MQTT.MaxRetries, 3},
		{"workers", cfg.Dispatch.Workers, 3},
		{"stop_duration", cfg.Dispatch.StopSeconds(), 30.0},
		{"ack_timeout_seconds", cfg.Dispatch.AckTimeoutSeconds, 3},
		{"history default", cfg.Dispatch.HistorySize, 1000},
		{"cost type", cfg.Dispatch.Cost.Type, "weighted"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":9100"},
		{"api.address", cfg.API.Address, ":8081"},
		{"api.token", cfg.API.Token, "secret"},
		{"logging.backend", cfg.Logging.Backend, "sqlite"},
		{"logging.path", cfg.Logging.Path, "decisions.db"},
		{"log.level", cfg.Log.Level, "debug"},
		{"log.format", cfg.Log.Format, "console"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
	assert.Equal(t, 0.5, cfg.Dispatch.Cost.Conf["wait_weight"])
}

func TestLoadJSONDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{"dispatch": {"stop_duration_seconds": 45}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45.0, cfg.Dispatch.StopSeconds())
	assert.Equal(t, "jsonl", cfg.Logging.Backend)
	assert.Equal(t, "decisions.jsonl", cfg.Logging.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Positive(t, cfg.Dispatch.Workers)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", "dispatch:\n  workers: 2\n")
	t.Setenv("K_DISPATCH__WORKERS", "7")
	t.Setenv("K_LOGGING__BACKEND", "none")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Dispatch.Workers)
	assert.Equal(t, "none", cfg.Logging.Backend)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", ""))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.yaml", "logging:\n  backend: csv\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.yaml", "mqtt:\n  enabled: true\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "config.yaml", "log:\n  level: loud\n"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60.0, cfg.Dispatch.StopSeconds())
}

func TestLoadKeepsZeroStopDuration(t *testing.T) {
	cfg, err := Load(writeFile(t, "config.yaml", "dispatch:\n  stop_duration_seconds: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Dispatch.StopDuration)
	assert.Equal(t, 0.0, cfg.Dispatch.StopSeconds())

	cfg, err = Load(writeFile(t, "config.yaml", "dispatch:\n  workers: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 60.0, cfg.Dispatch.StopSeconds())
}
