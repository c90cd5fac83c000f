package dispatch

import (
	"fmt"
	"runtime"

	"github.com/kilianp07/drt/core/factory"
)

// DefaultStopDuration is the dwell time of inserted stops in seconds.
const DefaultStopDuration = 60.0

// DefaultHistorySize bounds the number of results kept in memory.
const DefaultHistorySize = 1000

// Config defines dispatch-related settings.
type Config struct {
	// Workers bounds the goroutines used for snapshot builds and searches.
	Workers int `json:"workers"`
	// StopDuration is the dwell time of inserted stops in seconds. Unset
	// means DefaultStopDuration; an explicit 0 is kept.
	StopDuration *float64 `json:"stop_duration_seconds"`
	// Cost selects the cost function ranking feasible insertions.
	Cost factory.ModuleConfig `json:"cost"`
	// AckTimeoutSeconds enables waiting for vehicle acknowledgments of
	// published schedules when positive.
	AckTimeoutSeconds int `json:"ack_timeout_seconds"`
	HistorySize       int `json:"history_size"`
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.StopDuration == nil {
		d := DefaultStopDuration
		c.StopDuration = &d
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.StopDuration != nil && *c.StopDuration < 0 {
		return fmt.Errorf("dispatch.stop_duration_seconds must not be negative")
	}
	if c.AckTimeoutSeconds < 0 {
		return fmt.Errorf("dispatch.ack_timeout_seconds must not be negative")
	}
	return nil
}

// StopSeconds returns the configured dwell time, or DefaultStopDuration when
// unset.
func (c Config) StopSeconds() float64 {
	if c.StopDuration == nil {
		return DefaultStopDuration
	}
	return *c.StopDuration
}

// Seconds returns a pointer to v for optional duration fields.
func Seconds(v float64) *float64 { return &v }
