// Package infra groups the adapters behind the core interfaces: the MQTT
// schedule publisher, the Prometheus and InfluxDB sinks, Sentry reporting
// and the zerolog logger. Its packages import core, never the reverse.
package infra
