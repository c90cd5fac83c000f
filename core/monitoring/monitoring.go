// Package monitoring reports unexpected errors raised while dispatching.
// A process wide Monitor is installed with Init; the default discards
// everything.
package monitoring

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kilianp07/drt/core/logger"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

// LoggingMonitor writes captured errors to a logger and counts them.
type LoggingMonitor struct {
	log      logger.Logger
	captured atomic.Int64
}

// NewLoggingMonitor returns a monitor logging to log.
func NewLoggingMonitor(log logger.Logger) *LoggingMonitor {
	return &LoggingMonitor{log: log}
}

// CaptureException logs err with its tags sorted by key.
func (m *LoggingMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	m.captured.Add(1)
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, tags[k])
	}
	m.log.Errorf("captured: %v%s", err, b.String())
}

// Recover captures a panic of the calling goroutine. It must be deferred.
func (m *LoggingMonitor) Recover() {
	if r := recover(); r != nil {
		m.CaptureException(fmt.Errorf("panic: %v", r), map[string]string{"kind": "panic"})
	}
}

// Flush is a no-op; logs are written synchronously.
func (m *LoggingMonitor) Flush(time.Duration) {}

// Captured returns the number of errors captured so far.
func (m *LoggingMonitor) Captured() int64 { return m.captured.Load() }

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if current != nil {
		current.CaptureException(err, tags)
	}
}

// Recover captures panics in goroutines.
func Recover() {
	if r := recover(); r != nil {
		CaptureException(fmt.Errorf("panic: %v", r), map[string]string{"kind": "panic"})
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
