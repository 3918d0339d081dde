// Package events defines the planning events emitted on the event bus.
//
// Available event types:
//   - ForecastEvent: demand forecasts generated for a target date
//   - PlanEvent: schedules created by an optimizer run
//   - RescheduleEvent: schedules shifted for a priority route
//   - MetricsEvent: fleet performance snapshot
package events
