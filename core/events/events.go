package events

import (
	"time"

	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/scheduler"
)

// ForecastEvent is published after forecasts are generated.
type ForecastEvent struct {
	Forecasts []model.DemandForecast
	Time      time.Time
}

// PlanEvent is published after an optimizer run.
type PlanEvent struct {
	RunID   string
	Period  model.TimeWindow
	Routes  []model.Route
	Created []model.Schedule
	Time    time.Time
}

// RescheduleEvent is published when schedules are shifted for RouteID.
type RescheduleEvent struct {
	RouteID     string
	Rescheduled int
	Time        time.Time
}

// MetricsEvent carries a fleet performance snapshot.
type MetricsEvent struct {
	Metrics scheduler.Metrics
	Time    time.Time
}
