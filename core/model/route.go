package model

import (
	"fmt"
	"time"
)

// Priority ranks routes for assignment.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) String() string { return string(p) }

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Route is an origin/destination pair served by rakes. Routes are read-only
// inputs to the engines.
type Route struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Origin          string   `json:"origin" yaml:"origin"`
	Destination     string   `json:"destination" yaml:"destination"`
	DistanceKm      float64  `json:"distance" yaml:"distance"`
	TravelTimeHours float64  `json:"estimatedTravelTime" yaml:"estimatedTravelTime"`
	Priority        Priority `json:"priority" yaml:"priority"`
}

// TravelTime returns the estimated travel time as a duration.
func (r Route) TravelTime() time.Duration {
	return time.Duration(r.TravelTimeHours * float64(time.Hour))
}

// Validate checks distances, travel time and priority.
func (r Route) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("route id is required")
	}
	if r.DistanceKm <= 0 {
		return fmt.Errorf("route %s: distance must be positive", r.ID)
	}
	if r.TravelTimeHours <= 0 {
		return fmt.Errorf("route %s: travel time must be positive", r.ID)
	}
	if !r.Priority.Valid() {
		return fmt.Errorf("route %s: unknown priority %q", r.ID, r.Priority)
	}
	return nil
}
