package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/rakeplan/core/metrics"
	"github.com/kilianp07/rakeplan/core/model"
)

// PromSink exposes planning activity as Prometheus metrics.
type PromSink struct {
	runs        prometheus.Counter
	created     *prometheus.CounterVec
	cargo       *prometheus.CounterVec
	demand      *prometheus.GaugeVec
	confidence  *prometheus.GaugeVec
	utilization prometheus.Gauge
	onTime      prometheus.Gauge
	scheduled   prometheus.Gauge
	routeTime   prometheus.Gauge
	rescheduled *prometheus.CounterVec
	dropped     prometheus.Gauge
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rakeplan_plan_runs_total",
		Help: "Number of optimizer runs",
	})); err != nil {
		return nil, err
	}
	if s.created, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rakeplan_schedules_created_total",
		Help: "Schedules created by the optimizer",
	}, []string{"route_id", "priority"})); err != nil {
		return nil, err
	}
	if s.cargo, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rakeplan_planned_cargo_tons_total",
		Help: "Cargo weight assigned by the optimizer",
	}, []string{"route_id"})); err != nil {
		return nil, err
	}
	if s.demand, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rakeplan_forecast_demand",
		Help: "Latest predicted demand per route",
	}, []string{"route_id"})); err != nil {
		return nil, err
	}
	if s.confidence, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rakeplan_forecast_confidence_ratio",
		Help: "Confidence of the latest forecast per route",
	}, []string{"route_id"})); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rakeplan_fleet_utilization_ratio",
		Help: "Distinct rakes with at least one schedule divided by the fleet size",
	})); err != nil {
		return nil, err
	}
	if s.onTime, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rakeplan_on_time_performance_ratio",
		Help: "Share of completed runs arriving on time",
	})); err != nil {
		return nil, err
	}
	if s.scheduled, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rakeplan_scheduled_rakes",
		Help: "Distinct rakes with at least one schedule",
	})); err != nil {
		return nil, err
	}
	if s.routeTime, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rakeplan_average_route_time_hours",
		Help: "Mean planned duration over all schedules",
	})); err != nil {
		return nil, err
	}
	if s.rescheduled, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rakeplan_rescheduled_total",
		Help: "Schedules shifted to free capacity for a priority route",
	}, []string{"route_id"})); err != nil {
		return nil, err
	}
	if s.dropped, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rakeplan_eventbus_dropped_events",
		Help: "Events the metrics collector missed because its buffer was full",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordPlan counts the run and its assignments.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.runs.Inc()
	for _, a := range ev.Assignments {
		s.created.WithLabelValues(a.RouteID, string(a.Priority)).Inc()
		s.cargo.WithLabelValues(a.RouteID).Add(a.CargoTons)
	}
	return nil
}

// RecordForecasts sets the demand and confidence gauges. For each route the
// forecast with the latest date wins.
func (s *PromSink) RecordForecasts(forecasts []model.DemandForecast) error {
	seen := make(map[string]bool)
	for _, f := range forecasts {
		if seen[f.RouteID] {
			continue
		}
		seen[f.RouteID] = true
		latest, _ := model.LatestForRoute(forecasts, f.RouteID)
		s.demand.WithLabelValues(f.RouteID).Set(float64(latest.PredictedDemand))
		s.confidence.WithLabelValues(f.RouteID).Set(latest.Confidence)
	}
	return nil
}

// RecordScheduleMetrics sets the fleet gauges.
func (s *PromSink) RecordScheduleMetrics(ev coremetrics.ScheduleMetricsEvent) error {
	s.utilization.Set(ev.UtilizationRate)
	s.onTime.Set(ev.OnTimePerformance)
	s.scheduled.Set(float64(ev.TotalScheduledRakes))
	s.routeTime.Set(ev.AverageRouteTimeHours)
	return nil
}

// RecordReschedule counts shifted schedules.
func (s *PromSink) RecordReschedule(ev coremetrics.RescheduleEvent) error {
	s.rescheduled.WithLabelValues(ev.RouteID).Add(float64(ev.Rescheduled))
	return nil
}

// RecordDroppedEvents sets the dropped events gauge.
func (s *PromSink) RecordDroppedEvents(total uint64) error {
	s.dropped.Set(float64(total))
	return nil
}
