package scheduler

import (
	"time"

	"github.com/kilianp07/rakeplan/core/model"
)

// FleetSummary counts rakes per status. Every status is present.
func FleetSummary(rakes []model.Rake) map[model.RakeStatus]int {
	out := make(map[model.RakeStatus]int, len(model.RakeStatuses))
	for _, st := range model.RakeStatuses {
		out[st] = 0
	}
	for _, r := range rakes {
		out[r.Status]++
	}
	return out
}

// StatusBreakdown counts schedules per status. Every status is present.
func StatusBreakdown(schedules []model.Schedule) map[model.ScheduleStatus]int {
	out := make(map[model.ScheduleStatus]int, len(model.ScheduleStatuses))
	for _, st := range model.ScheduleStatuses {
		out[st] = 0
	}
	for _, s := range schedules {
		out[s.Status]++
	}
	return out
}

// MaintenanceDue returns the rakes whose maintenance interval has elapsed or
// whose next maintenance date has passed, in input order.
func MaintenanceDue(cfg Constraints, rakes []model.Rake, now time.Time) []model.Rake {
	var due []model.Rake
	for _, r := range rakes {
		if r.HoursSinceMaintenance(now) >= cfg.MinMaintenanceIntervalHours || r.NextMaintenance.Before(now) {
			due = append(due, r)
		}
	}
	return due
}
