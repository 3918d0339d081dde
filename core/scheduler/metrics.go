package scheduler

import (
	"time"

	"github.com/kilianp07/rakeplan/core/model"
)

// Metrics aggregates schedule performance.
type Metrics struct {
	UtilizationRate       float64 `json:"utilizationRate"`
	OnTimePerformance     float64 `json:"onTimePerformance"`
	TotalScheduledRakes   int     `json:"totalScheduledRakes"`
	AverageRouteTimeHours float64 `json:"averageRouteTime"`

	// CompletedRuns counts completed schedules; MeasuredRuns those of them
	// with a recorded actual arrival.
	CompletedRuns int `json:"completedRuns"`
	MeasuredRuns  int `json:"measuredRuns"`
	// OverUtilized is set when UtilizationRate exceeds MaxRakeUtilization.
	OverUtilized bool `json:"overUtilized"`
}

// ScheduleMetrics computes fleet utilization, on-time performance and the
// mean scheduled running time.
//
// On-time performance only considers completed schedules carrying an
// ActualArrival; a run is on time when it arrived no later than its
// scheduled arrival plus OnTimeToleranceMinutes. Without any such run it is
// 1.
func ScheduleMetrics(cfg Constraints, schedules []model.Schedule, rakes []model.Rake) Metrics {
	var m Metrics
	scheduled := make(map[string]struct{}, len(schedules))
	var total time.Duration
	for _, s := range schedules {
		scheduled[s.RakeID] = struct{}{}
		total += s.Duration()
	}
	m.TotalScheduledRakes = len(scheduled)
	if len(rakes) > 0 {
		m.UtilizationRate = float64(m.TotalScheduledRakes) / float64(len(rakes))
	}
	m.OverUtilized = m.UtilizationRate > cfg.MaxRakeUtilization
	if len(schedules) > 0 {
		m.AverageRouteTimeHours = total.Hours() / float64(len(schedules))
	}

	tolerance := time.Duration(cfg.OnTimeToleranceMinutes * float64(time.Minute))
	onTime := 0
	for _, s := range schedules {
		if s.Status != model.ScheduleCompleted {
			continue
		}
		m.CompletedRuns++
		if s.ActualArrival == nil {
			continue
		}
		m.MeasuredRuns++
		if !s.ActualArrival.After(s.Arrival.Add(tolerance)) {
			onTime++
		}
	}
	m.OnTimePerformance = 1
	if m.MeasuredRuns > 0 {
		m.OnTimePerformance = float64(onTime) / float64(m.MeasuredRuns)
	}
	return m
}
