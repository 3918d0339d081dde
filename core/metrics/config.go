package metrics

import (
	"errors"

	"github.com/kilianp07/rakeplan/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr is where the /metrics endpoint listens. Empty disables
	// the standalone server; the API server always exposes /metrics.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
	// EventBuffer is the number of events queued for the collector before
	// further events are dropped. Zero keeps the bus default.
	EventBuffer int `json:"event_buffer" yaml:"event_buffer"`
}

func (c Config) Validate() error {
	if c.EventBuffer < 0 {
		return errors.New("metrics: event_buffer must not be negative")
	}
	return nil
}
