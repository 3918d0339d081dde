// Package metrics defines the sinks that record planning activity: optimizer
// runs, demand forecasts, fleet metrics and reschedules. Concrete sinks such
// as the Prometheus and InfluxDB ones live in infra/metrics and register
// themselves in the factory registry; NewMetricsSink builds a MultiSink
// automatically when several sinks are configured.
package metrics
