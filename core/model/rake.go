package model

import (
	"fmt"
	"time"
)

// RakeType classifies the consist.
type RakeType string

const (
	RakeFreight   RakeType = "freight"
	RakePassenger RakeType = "passenger"
	RakeExpress   RakeType = "express"
)

// RakeStatus is the operational state of a rake. Exactly one holds at a time.
type RakeStatus string

const (
	RakeAvailable   RakeStatus = "available"
	RakeInTransit   RakeStatus = "in-transit"
	RakeMaintenance RakeStatus = "maintenance"
	RakeLoading     RakeStatus = "loading"
	RakeUnloading   RakeStatus = "unloading"
)

// RakeStatuses lists every status in display order.
var RakeStatuses = []RakeStatus{RakeAvailable, RakeInTransit, RakeMaintenance, RakeLoading, RakeUnloading}

// Rake is a train consist treated as the schedulable unit of capacity.
type Rake struct {
	ID              string     `json:"id" yaml:"id"`
	Type            RakeType   `json:"type" yaml:"type"`
	CapacityTons    float64    `json:"capacity" yaml:"capacity"` // tons
	CurrentLocation string     `json:"currentLocation" yaml:"currentLocation"`
	Status          RakeStatus `json:"status" yaml:"status"`
	LastMaintenance time.Time  `json:"lastMaintenance" yaml:"lastMaintenance"`
	NextMaintenance time.Time  `json:"nextMaintenance" yaml:"nextMaintenance"`
}

func (t RakeType) String() string { return string(t) }

// Valid reports whether t is a known rake type.
func (t RakeType) Valid() bool {
	switch t {
	case RakeFreight, RakePassenger, RakeExpress:
		return true
	}
	return false
}

func (s RakeStatus) String() string { return string(s) }

// Valid reports whether s is a known rake status.
func (s RakeStatus) Valid() bool {
	for _, st := range RakeStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Validate checks that the rake description is sound.
func (r Rake) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rake id is required")
	}
	if r.CapacityTons <= 0 {
		return fmt.Errorf("rake %s: capacity must be positive", r.ID)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("rake %s: unknown type %q", r.ID, r.Type)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("rake %s: unknown status %q", r.ID, r.Status)
	}
	if r.NextMaintenance.Before(r.LastMaintenance) {
		return fmt.Errorf("rake %s: next maintenance before last maintenance", r.ID)
	}
	return nil
}

// HoursSinceMaintenance returns the elapsed hours between the last
// maintenance and now.
func (r Rake) HoursSinceMaintenance(now time.Time) float64 {
	return now.Sub(r.LastMaintenance).Hours()
}
