package metrics

import (
	"context"

	"github.com/kilianp07/rakeplan/core/events"
	coremetrics "github.com/kilianp07/rakeplan/core/metrics"
	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/infra/logger"
	"github.com/kilianp07/rakeplan/internal/eventbus"
)

type dropCounter interface {
	Dropped() uint64
}

// StartEventCollector subscribes to the event bus and records metrics for
// planning events. It stops when the context is canceled or the bus closes.
// The returned channel is closed once the collector has exited.
//
// When the bus counts dropped deliveries and the sink implements
// DroppedEventsRecorder, the total is reported after each event and on exit.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	counter, _ := bus.(dropCounter)
	dropRec, _ := sink.(coremetrics.DroppedEventsRecorder)
	var reported uint64
	reportDropped := func() {
		if counter == nil || dropRec == nil {
			return
		}
		n := counter.Dropped()
		if n == reported {
			return
		}
		if err := dropRec.RecordDroppedEvents(n); err != nil {
			log.Errorf("record dropped events: %v", err)
			return
		}
		reported = n
	}
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		defer reportDropped()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Errorf("record %T: %v", ev, err)
				}
				reportDropped()
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.PlanEvent:
		return sink.RecordPlan(planEvent(e))
	case events.ForecastEvent:
		if r, ok := sink.(coremetrics.ForecastRecorder); ok {
			return r.RecordForecasts(e.Forecasts)
		}
	case events.MetricsEvent:
		if r, ok := sink.(coremetrics.MetricsRecorder); ok {
			return r.RecordScheduleMetrics(coremetrics.ScheduleMetricsEvent{
				UtilizationRate:       e.Metrics.UtilizationRate,
				OnTimePerformance:     e.Metrics.OnTimePerformance,
				TotalScheduledRakes:   e.Metrics.TotalScheduledRakes,
				AverageRouteTimeHours: e.Metrics.AverageRouteTimeHours,
				OverUtilized:          e.Metrics.OverUtilized,
				Time:                  e.Time,
			})
		}
	case events.RescheduleEvent:
		if r, ok := sink.(coremetrics.RescheduleRecorder); ok {
			return r.RecordReschedule(coremetrics.RescheduleEvent{RouteID: e.RouteID, Rescheduled: e.Rescheduled, Time: e.Time})
		}
	}
	return nil
}

func planEvent(e events.PlanEvent) coremetrics.PlanEvent {
	priorities := make(map[string]model.Priority, len(e.Routes))
	for _, r := range e.Routes {
		priorities[r.ID] = r.Priority
	}
	out := coremetrics.PlanEvent{RunID: e.RunID, Period: e.Period, Routes: len(e.Routes), Time: e.Time}
	for _, s := range e.Created {
		a := coremetrics.Assignment{
			ScheduleID: s.ID,
			RakeID:     s.RakeID,
			RouteID:    s.RouteID,
			Priority:   priorities[s.RouteID],
			Departure:  s.Departure,
		}
		if s.Cargo != nil {
			a.CargoTons = s.Cargo.WeightTons
		}
		out.Assignments = append(out.Assignments, a)
	}
	return out
}
