// Package planlog keeps an audit trail of optimizer runs: the period planned,
// the routes considered and the schedules created, with the fleet metrics
// measured afterwards.
package planlog

import (
	"context"
	"time"

	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/scheduler"
)

// Record captures one optimizer run.
type Record struct {
	RunID     string            `json:"run_id"`
	Timestamp time.Time         `json:"timestamp"`
	Period    model.TimeWindow  `json:"period"`
	Routes    []string          `json:"routes"`
	Created   []model.Schedule  `json:"created"`
	Metrics   scheduler.Metrics `json:"metrics"`
}

// Involves reports whether the run created a schedule for rakeID.
func (r Record) Involves(rakeID string) bool {
	for _, s := range r.Created {
		if s.RakeID == rakeID {
			return true
		}
	}
	return false
}

// Query defines filters for retrieving records. Zero values match everything.
type Query struct {
	Start  time.Time
	End    time.Time
	RakeID string
}

// Match reports whether r satisfies q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RakeID != "" && !r.Involves(q.RakeID) {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
