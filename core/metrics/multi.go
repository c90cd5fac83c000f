package metrics

import "errors"

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignment forwards the record to every sink and joins their errors.
func (m *MultiSink) RecordAssignment(a Assignment) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordAssignment(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordSnapshot forwards to the sinks supporting it.
func (m *MultiSink) RecordSnapshot(r SnapshotRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(SnapshotRecorder); ok {
			if err := rec.RecordSnapshot(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
