// Package monitoring reports planner errors to an external tracker.
package monitoring

import (
	"errors"
	"sync"
	"time"
)

// Config selects the error tracker. An empty DSN disables reporting.
type Config struct {
	DSN              string  `json:"dsn" yaml:"dsn"`
	Environment      string  `json:"environment" yaml:"environment"`
	Release          string  `json:"release" yaml:"release"`
	TracesSampleRate float64 `json:"traces_sample_rate" yaml:"traces_sample_rate"`
}

func (c Config) Enabled() bool { return c.DSN != "" }

func (c Config) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return errors.New("monitoring: traces_sample_rate must be within [0,1]")
	}
	return nil
}

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover must be deferred directly; it reports the panic and re-panics.
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// Current returns the global monitor.
func Current() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	Current().CaptureException(err, tags)
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	Current().Flush(d)
}
