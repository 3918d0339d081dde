package metrics

import (
	"time"

	"github.com/kilianp07/rakeplan/core/model"
)

// Assignment is one schedule created by an optimizer run.
type Assignment struct {
	ScheduleID string
	RakeID     string
	RouteID    string
	Priority   model.Priority
	CargoTons  float64
	Departure  time.Time
}

// PlanEvent summarises an optimizer run.
type PlanEvent struct {
	RunID       string
	Period      model.TimeWindow
	Routes      int
	Assignments []Assignment
	Time        time.Time
}

// MetricsSink records optimizer runs.
type MetricsSink interface {
	RecordPlan(ev PlanEvent) error
}

// ForecastRecorder records demand forecasts.
type ForecastRecorder interface {
	RecordForecasts(forecasts []model.DemandForecast) error
}

// ScheduleMetricsEvent is a snapshot of the fleet performance metrics.
type ScheduleMetricsEvent struct {
	UtilizationRate       float64
	OnTimePerformance     float64
	TotalScheduledRakes   int
	AverageRouteTimeHours float64
	OverUtilized          bool
	Time                  time.Time
}

// MetricsRecorder records fleet performance snapshots.
type MetricsRecorder interface {
	RecordScheduleMetrics(ev ScheduleMetricsEvent) error
}

// RescheduleEvent records schedules pushed back for a priority route.
type RescheduleEvent struct {
	RouteID     string
	Rescheduled int
	Time        time.Time
}

// RescheduleRecorder records reschedule operations.
type RescheduleRecorder interface {
	RecordReschedule(ev RescheduleEvent) error
}

// DroppedEventsRecorder records how many events the metrics collector
// missed because its event bus buffer was full. total is cumulative.
type DroppedEventsRecorder interface {
	RecordDroppedEvents(total uint64) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlan(PlanEvent) error                       { return nil }
func (NopSink) RecordForecasts([]model.DemandForecast) error     { return nil }
func (NopSink) RecordScheduleMetrics(ScheduleMetricsEvent) error { return nil }
func (NopSink) RecordReschedule(RescheduleEvent) error           { return nil }
func (NopSink) RecordDroppedEvents(uint64) error                 { return nil }
