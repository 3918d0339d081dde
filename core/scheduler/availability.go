package scheduler

import (
	"time"

	"github.com/kilianp07/rakeplan/core/model"
)

// Reasons reported when a rake is unavailable.
const (
	ReasonMaintenanceRequired = "Maintenance required"
	ReasonInMaintenance       = "Currently in maintenance"
	ReasonAlreadyScheduled    = "Already scheduled"
)

// Availability is the outcome of a rake availability check.
type Availability struct {
	Available     bool      `json:"available"`
	NextAvailable time.Time `json:"nextAvailable"`
	Reason        string    `json:"reason,omitempty"`
}

// RakeAvailability checks, in order, the maintenance interval, the
// maintenance status and overlapping schedules of the rake. The first failing
// check decides the result.
func (s *Scheduler) RakeAvailability(cfg Constraints, rake model.Rake, existing []model.Schedule, window model.TimeWindow) Availability {
	now := s.now()
	if rake.HoursSinceMaintenance(now) >= cfg.MinMaintenanceIntervalHours {
		return Availability{
			NextAvailable: now.Add(cfg.maintenanceDuration()),
			Reason:        ReasonMaintenanceRequired,
		}
	}
	if rake.Status == model.RakeMaintenance {
		return Availability{NextAvailable: rake.NextMaintenance, Reason: ReasonInMaintenance}
	}
	for _, sch := range existing {
		if sch.RakeID != rake.ID {
			continue
		}
		if sch.Window().Overlaps(window) {
			return Availability{NextAvailable: sch.Arrival, Reason: ReasonAlreadyScheduled}
		}
	}
	return Availability{Available: true, NextAvailable: window.Start}
}

// RoutePriority scores a route: priority weight x predicted demand x
// confidence. Higher is more urgent.
func RoutePriority(cfg Constraints, route model.Route, forecast model.DemandForecast) float64 {
	return cfg.Weight(route.Priority) * float64(forecast.PredictedDemand) * forecast.Confidence
}

// IsRakeSuitable reports whether rake may serve route: high priority routes
// reject freight rakes and long routes need more capacity.
func IsRakeSuitable(cfg Constraints, rake model.Rake, route model.Route) bool {
	if route.Priority == model.PriorityHigh && rake.Type == model.RakeFreight {
		return false
	}
	minCap := cfg.MinCapacity
	if route.DistanceKm > cfg.LongRouteKm {
		minCap = cfg.LongRouteMinCapacity
	}
	return rake.CapacityTons >= minCap
}
