package model

import (
	"fmt"
	"time"
)

// ScheduleStatus tracks the lifecycle of a schedule.
type ScheduleStatus string

const (
	ScheduleScheduled  ScheduleStatus = "scheduled"
	ScheduleInProgress ScheduleStatus = "in-progress"
	ScheduleCompleted  ScheduleStatus = "completed"
	ScheduleDelayed    ScheduleStatus = "delayed"
	ScheduleCancelled  ScheduleStatus = "cancelled"
)

// ScheduleStatuses lists every status in display order.
var ScheduleStatuses = []ScheduleStatus{ScheduleScheduled, ScheduleInProgress, ScheduleCompleted, ScheduleDelayed, ScheduleCancelled}

func (s ScheduleStatus) String() string { return string(s) }

// Valid reports whether s is a known schedule status.
func (s ScheduleStatus) Valid() bool {
	for _, st := range ScheduleStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Cargo describes the load carried by a scheduled run.
type Cargo struct {
	Type       string  `json:"type" yaml:"type"`
	WeightTons float64 `json:"weight" yaml:"weight"`
	Value      float64 `json:"value" yaml:"value"`
}

// Schedule assigns a rake to a route for a departure/arrival interval.
type Schedule struct {
	ID        string         `json:"id" yaml:"id"`
	RakeID    string         `json:"rakeId" yaml:"rakeId"`
	RouteID   string         `json:"routeId" yaml:"routeId"`
	Departure time.Time      `json:"departureTime" yaml:"departureTime"`
	Arrival   time.Time      `json:"arrivalTime" yaml:"arrivalTime"`
	Status    ScheduleStatus `json:"status" yaml:"status"`
	Cargo     *Cargo         `json:"cargo,omitempty" yaml:"cargo,omitempty"`

	// ActualArrival is recorded once a run has completed. It is only read by
	// the on-time metric.
	ActualArrival *time.Time `json:"actualArrival,omitempty" yaml:"actualArrival,omitempty"`
}

// Window returns the occupied interval [Departure, Arrival).
func (s Schedule) Window() TimeWindow {
	return TimeWindow{Start: s.Departure, End: s.Arrival}
}

// Duration returns the scheduled running time.
func (s Schedule) Duration() time.Duration {
	return s.Arrival.Sub(s.Departure)
}

// Validate checks interval ordering, status and, when rake is non-nil, that
// the cargo fits the rake.
func (s Schedule) Validate(rake *Rake) error {
	if s.ID == "" {
		return fmt.Errorf("schedule id is required")
	}
	if !s.Arrival.After(s.Departure) {
		return fmt.Errorf("schedule %s: arrival must be after departure", s.ID)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("schedule %s: unknown status %q", s.ID, s.Status)
	}
	if rake != nil && s.Cargo != nil && s.Cargo.WeightTons > rake.CapacityTons {
		return fmt.Errorf("schedule %s: cargo %.1ft exceeds rake %s capacity %.1ft",
			s.ID, s.Cargo.WeightTons, rake.ID, rake.CapacityTons)
	}
	return nil
}

// CloneSchedules returns a copy of the slice. Cargo and ActualArrival
// pointers are duplicated so callers can mutate the copy freely.
func CloneSchedules(in []Schedule) []Schedule {
	if in == nil {
		return nil
	}
	out := make([]Schedule, len(in))
	for i, s := range in {
		if s.Cargo != nil {
			c := *s.Cargo
			s.Cargo = &c
		}
		if s.ActualArrival != nil {
			a := *s.ActualArrival
			s.ActualArrival = &a
		}
		out[i] = s
	}
	return out
}
