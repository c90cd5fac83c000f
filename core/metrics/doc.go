// Package metrics defines the sinks recording dispatch outcomes. Sinks are
// built from configuration through a factory registry; the Prometheus and
// InfluxDB implementations register themselves from infra/metrics. Several
// configured sinks are combined into a MultiSink.
package metrics
