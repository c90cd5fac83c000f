package monitoring

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordLogger struct {
	mu   sync.Mutex
	errs []string
}

func (r *recordLogger) Debugf(string, ...any)         {}
func (r *recordLogger) Debugw(string, map[string]any) {}
func (r *recordLogger) Infof(string, ...any)          {}
func (r *recordLogger) Warnf(string, ...any)          {}
func (r *recordLogger) Errorf(format string, args ...any) {
	r.mu.Lock()
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func TestLoggingMonitorCapture(t *testing.T) {
	log := &recordLogger{}
	m := NewLoggingMonitor(log)
	m.CaptureException(errors.New("boom"), map[string]string{"vehicle_id": "v1", "module": "dispatch"})
	m.CaptureException(nil, nil)

	assert.Equal(t, int64(1), m.Captured())
	assert.Equal(t, []string{"captured: boom module=dispatch vehicle_id=v1"}, log.errs)
}

func TestGlobalRecover(t *testing.T) {
	log := &recordLogger{}
	m := NewLoggingMonitor(log)
	Init(m)
	defer Init(NopMonitor{})

	func() {
		defer Recover()
		panic("worker crashed")
	}()
	assert.Equal(t, int64(1), m.Captured())
	assert.Contains(t, log.errs[0], "panic: worker crashed")
	assert.Contains(t, log.errs[0], "kind=panic")
}

func TestInitIgnoresNil(t *testing.T) {
	m := NewLoggingMonitor(&recordLogger{})
	Init(m)
	defer Init(NopMonitor{})
	Init(nil)
	CaptureException(errors.New("x"), nil)
	assert.Equal(t, int64(1), m.Captured())
}
