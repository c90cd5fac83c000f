// Package metrics provides the Prometheus and InfluxDB metrics sinks. Both
// register themselves with the core metrics factory on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/drt/core/factory"
	coremetrics "github.com/kilianp07/drt/core/metrics"
)

func init() {
	_ = coremetrics.RegisterMetricsSink("prometheus", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		if err := factory.Decode(conf, &struct{}{}); err != nil {
			return nil, err
		}
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
