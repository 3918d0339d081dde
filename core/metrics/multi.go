package metrics

import "github.com/kilianp07/rakeplan/core/model"

// MultiSink fans out events to multiple sinks. Optional recorders are only
// called on sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPlan forwards the run to all sinks, returning the first error encountered.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPlan(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordForecasts forwards forecasts.
func (m *MultiSink) RecordForecasts(f []model.DemandForecast) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ForecastRecorder); ok {
			if err := rec.RecordForecasts(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordScheduleMetrics forwards metric snapshots.
func (m *MultiSink) RecordScheduleMetrics(ev ScheduleMetricsEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(MetricsRecorder); ok {
			if err := rec.RecordScheduleMetrics(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordReschedule forwards reschedule events.
func (m *MultiSink) RecordReschedule(ev RescheduleEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RescheduleRecorder); ok {
			if err := rec.RecordReschedule(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDroppedEvents forwards the dropped event total.
func (m *MultiSink) RecordDroppedEvents(total uint64) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DroppedEventsRecorder); ok {
			if err := rec.RecordDroppedEvents(total); err != nil {
				return err
			}
		}
	}
	return nil
}
