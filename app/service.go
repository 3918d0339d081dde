package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/rakeplan/app/plugins"
	"github.com/kilianp07/rakeplan/auth"
	"github.com/kilianp07/rakeplan/config"
	"github.com/kilianp07/rakeplan/core/events"
	coremetrics "github.com/kilianp07/rakeplan/core/metrics"
	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/monitoring"
	coremqtt "github.com/kilianp07/rakeplan/core/mqtt"
	"github.com/kilianp07/rakeplan/core/planlog"
	"github.com/kilianp07/rakeplan/core/prediction"
	"github.com/kilianp07/rakeplan/core/scheduler"
	"github.com/kilianp07/rakeplan/dataset"
	"github.com/kilianp07/rakeplan/infra/logger"
	"github.com/kilianp07/rakeplan/infra/metrics"
	"github.com/kilianp07/rakeplan/infra/mqtt"
	"github.com/kilianp07/rakeplan/internal/eventbus"
	"github.com/kilianp07/rakeplan/pkg/export"
)

// ErrUnknownRoute is returned when an operation names a route that is not
// part of the dataset.
var ErrUnknownRoute = errors.New("unknown route")

// PlanningHorizon is the period planned when no explicit period is given.
const PlanningHorizon = 7 * 24 * time.Hour

// PlanResult is the outcome of a planning run.
type PlanResult struct {
	RunID     string                 `json:"runId"`
	Period    model.TimeWindow       `json:"period"`
	Forecasts []model.DemandForecast `json:"forecasts"`
	Created   []model.Schedule       `json:"created"`
	Metrics   scheduler.Metrics      `json:"metrics"`
	// PublishFailures counts created schedules that could not be sent to
	// their rake.
	PublishFailures int `json:"publishFailures"`
}

// Service holds the fleet and runs forecasting and scheduling against it.
// It is safe for concurrent use.
type Service struct {
	cfg       *config.Config
	engine    prediction.ForecastEngine
	sched     *scheduler.Scheduler
	sink      coremetrics.MetricsSink
	bus       *eventbus.Bus
	store     planlog.Store
	publisher coremqtt.Publisher
	log       logger.Logger
	monitor   monitoring.Monitor
	now       func() time.Time

	mu   sync.RWMutex
	data *dataset.Dataset

	cancel    context.CancelFunc
	collector <-chan struct{}
	closeOnce sync.Once
}

// Option customizes a Service built by New.
type Option func(*Service)

// WithDataset uses ds instead of loading the configured dataset.
func WithDataset(ds *dataset.Dataset) Option { return func(s *Service) { s.data = ds } }

// WithPublisher replaces the publisher selected from the MQTT settings.
func WithPublisher(p coremqtt.Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithEngine replaces the configured forecast engine.
func WithEngine(e prediction.ForecastEngine) Option { return func(s *Service) { s.engine = e } }

// WithSink replaces the metrics sinks built from the configuration.
func WithSink(sink coremetrics.MetricsSink) Option { return func(s *Service) { s.sink = sink } }

// WithClock sets the time source used for planning periods and forecasts.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger replaces the service logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithMonitor reports plan log and publish failures to m instead of the
// global monitor.
func WithMonitor(m monitoring.Monitor) Option { return func(s *Service) { s.monitor = m } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{cfg: cfg, now: time.Now, log: logger.New("service")}
	for _, o := range opts {
		o(s)
	}
	if s.monitor == nil {
		s.monitor = monitoring.Current()
	}

	if s.data == nil {
		ds, err := loadDataset(cfg.Dataset, s.now())
		if err != nil {
			return nil, err
		}
		s.data = ds
	}
	if path := cfg.Dataset.HistoryCSV; path != "" {
		if err := loadHistory(s.data, path); err != nil {
			return nil, err
		}
	}
	if s.engine == nil {
		eng, err := newEngine(cfg)
		if err != nil {
			return nil, fmt.Errorf("forecast engine: %w", err)
		}
		s.engine = eng
	}
	if s.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		s.sink = sink
	}
	store, err := planlog.NewStore(cfg.PlanLog)
	if err != nil {
		return nil, err
	}
	s.store = store
	if s.publisher == nil {
		pub, err := newPublisher(cfg.MQTT)
		if err != nil {
			if store != nil {
				_ = store.Close()
			}
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		s.publisher = pub
	}

	s.sched = scheduler.New(logger.New("scheduler"))
	s.sched.Now = s.now
	s.sched.NewID = func() string { return "schedule_" + uuid.NewString() }

	s.bus = eventbus.New()
	if n := cfg.Metrics.EventBuffer; n > 0 {
		s.bus = eventbus.NewWithBuffer(n)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.collector = metrics.StartEventCollector(ctx, s.bus, s.sink)
	return s, nil
}

// DatasetTimeout bounds the download of a remote dataset.
const DatasetTimeout = 30 * time.Second

func loadDataset(cfg config.DatasetConfig, now time.Time) (*dataset.Dataset, error) {
	switch {
	case cfg.URL != "":
		var authz dataset.Authorizer
		if cfg.Auth.Enabled() {
			authz = auth.NewClientCred(cfg.Auth)
		}
		ctx, cancel := context.WithTimeout(context.Background(), DatasetTimeout)
		defer cancel()
		return dataset.Fetch(ctx, &http.Client{Timeout: DatasetTimeout}, cfg.URL, authz)
	case cfg.Path != "":
		return dataset.Load(cfg.Path)
	default:
		return dataset.Demo(now), nil
	}
}

// loadHistory merges the series of a historical demand CSV into ds. Columns
// naming no route of ds fail validation.
func loadHistory(ds *dataset.Dataset, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("history csv: %w", err)
	}
	defer func() { _ = f.Close() }()
	hist, err := export.ReadHistoricalDemand(f, ds.Routes)
	if err != nil {
		return fmt.Errorf("history csv %s: %w", path, err)
	}
	if ds.HistoricalDemand == nil {
		ds.HistoricalDemand = make(map[string][]float64, len(hist))
	}
	for id, series := range hist {
		ds.HistoricalDemand[id] = series
	}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("history csv %s: %w", path, err)
	}
	return nil
}

func newEngine(cfg *config.Config) (prediction.ForecastEngine, error) {
	ec := cfg.ForecastEngine
	if (ec.Type == "" || ec.Type == "weighted") && len(ec.Conf) == 0 {
		return prediction.NewEngine(cfg.Forecast), nil
	}
	return plugins.NewEngine(ec)
}

func newPublisher(cfg mqtt.Config) (coremqtt.Publisher, error) {
	if !cfg.Enabled {
		return coremqtt.NopPublisher{}, nil
	}
	p, err := mqtt.NewPahoPublisher(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config { return s.cfg }

// Dataset returns a snapshot of the fleet including every schedule planned
// so far.
func (s *Service) Dataset() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds := *s.data
	ds.Schedules = model.CloneSchedules(s.data.Schedules)
	return &ds
}

// Schedules returns a copy of the current schedules.
func (s *Service) Schedules() []model.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneSchedules(s.data.Schedules)
}

// DefaultPeriod returns the period planned when none is given: the next
// PlanningHorizon from now.
func (s *Service) DefaultPeriod() model.TimeWindow {
	now := s.now()
	return model.TimeWindow{Start: now, End: now.Add(PlanningHorizon)}
}

// Forecast predicts the demand of every route for date, in route order.
func (s *Service) Forecast(date time.Time) []model.DemandForecast {
	s.mu.RLock()
	inputs := s.data.RouteSeries(s.cfg.Dataset.Factors)
	s.mu.RUnlock()

	forecasts := s.engine.BatchForecast(inputs, date)
	s.bus.Publish(events.ForecastEvent{Forecasts: forecasts, Time: s.now()})
	return forecasts
}

// ForecastHorizon predicts the demand of routeID for each of the given days
// starting at start. Only the weighted engine supports horizons; other
// engines repeat their single-date forecast.
func (s *Service) ForecastHorizon(routeID string, start time.Time, days int) ([]model.DemandForecast, error) {
	s.mu.RLock()
	_, ok := s.data.Route(routeID)
	series := s.data.Series(routeID)
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, routeID)
	}
	factors := s.cfg.Dataset.Factors
	if eng, ok := s.engine.(prediction.Engine); ok {
		return eng.ForecastHorizon(routeID, series, start, days, factors), nil
	}
	out := make([]model.DemandForecast, 0, days)
	for d := 0; d < days; d++ {
		out = append(out, s.engine.GenerateDemandForecast(routeID, series, start.AddDate(0, 0, d), factors))
	}
	return out, nil
}

// Plan forecasts demand for the start of period, assigns rakes to the routes
// and merges the created schedules into the fleet. The run is appended to
// the plan log and each created schedule is published to its rake.
//
// A plan log failure is returned after the schedules were merged; publish
// failures are only counted in the result.
func (s *Service) Plan(ctx context.Context, period model.TimeWindow) (PlanResult, error) {
	if period.Start.IsZero() {
		if !period.End.IsZero() {
			return PlanResult{}, fmt.Errorf("plan period has an end but no start")
		}
		period = s.DefaultPeriod()
	}
	if !period.End.IsZero() && period.End.Before(period.Start) {
		return PlanResult{}, fmt.Errorf("plan period ends before it starts")
	}
	forecasts := s.Forecast(period.Start)

	s.mu.Lock()
	created := s.sched.OptimizeSchedule(s.cfg.Scheduling, s.data.Rakes, s.data.Routes, forecasts, s.data.Schedules, period)
	s.data.Schedules = append(s.data.Schedules, created...)
	m := scheduler.ScheduleMetrics(s.cfg.Scheduling, s.data.Schedules, s.data.Rakes)
	routes := append([]model.Route(nil), s.data.Routes...)
	s.mu.Unlock()

	res := PlanResult{
		RunID:     uuid.NewString(),
		Period:    period,
		Forecasts: forecasts,
		Created:   created,
		Metrics:   m,
	}
	s.log.Infof("plan %s: %d schedules created for %d routes", res.RunID, len(created), len(routes))

	var logErr error
	if s.store != nil {
		ids := make([]string, len(routes))
		for i, r := range routes {
			ids[i] = r.ID
		}
		rec := planlog.Record{
			RunID: res.RunID, Timestamp: s.now(), Period: period,
			Routes: ids, Created: created, Metrics: m,
		}
		if err := s.store.Append(ctx, rec); err != nil {
			logErr = fmt.Errorf("plan log: %w", err)
			s.log.Errorf("append plan %s: %v", res.RunID, err)
			s.monitor.CaptureException(logErr, map[string]string{"run_id": res.RunID})
		}
	}

	for _, sch := range created {
		if err := s.publisher.PublishSchedule(sch); err != nil {
			res.PublishFailures++
			s.log.Warnf("publish %s to %s: %v", sch.ID, sch.RakeID, err)
			s.monitor.CaptureException(err, map[string]string{"rake_id": sch.RakeID, "schedule_id": sch.ID})
		}
	}

	now := s.now()
	s.bus.Publish(events.PlanEvent{RunID: res.RunID, Period: period, Routes: routes, Created: created, Time: now})
	s.bus.Publish(events.MetricsEvent{Metrics: m, Time: now})
	return res, logErr
}

// Reschedule shifts low priority schedules to free capacity for routeID.
// Shifted schedules are published again to their rakes.
func (s *Service) Reschedule(routeID string) (scheduler.RescheduleResult, error) {
	s.mu.Lock()
	route, ok := s.data.Route(routeID)
	if !ok {
		s.mu.Unlock()
		return scheduler.RescheduleResult{}, fmt.Errorf("%w: %s", ErrUnknownRoute, routeID)
	}
	before := s.data.Schedules
	res := s.sched.RescheduleForPriority(s.cfg.Scheduling, before, route, s.data.Routes)
	s.data.Schedules = res.Updated
	var shifted []model.Schedule
	for i, sch := range res.Updated {
		if !sch.Departure.Equal(before[i].Departure) {
			shifted = append(shifted, sch)
		}
	}
	s.mu.Unlock()

	for _, sch := range shifted {
		if err := s.publisher.PublishSchedule(sch); err != nil {
			s.log.Warnf("publish shifted %s to %s: %v", sch.ID, sch.RakeID, err)
			s.monitor.CaptureException(err, map[string]string{"rake_id": sch.RakeID, "schedule_id": sch.ID})
		}
	}
	s.log.Infof("reschedule for %s: %d schedules shifted", routeID, res.Rescheduled)
	s.bus.Publish(events.RescheduleEvent{RouteID: routeID, Rescheduled: res.Rescheduled, Time: s.now()})
	return res, nil
}

// Metrics computes the fleet performance over the current schedules.
func (s *Service) Metrics() scheduler.Metrics {
	s.mu.RLock()
	m := scheduler.ScheduleMetrics(s.cfg.Scheduling, s.data.Schedules, s.data.Rakes)
	s.mu.RUnlock()
	s.bus.Publish(events.MetricsEvent{Metrics: m, Time: s.now()})
	return m
}

// MaintenanceDue lists the rakes past their next maintenance date or the
// minimum maintenance interval.
func (s *Service) MaintenanceDue() []model.Rake {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scheduler.MaintenanceDue(s.cfg.Scheduling, s.data.Rakes, s.now())
}

// PlanLog queries past planning runs. Without a plan log it returns nothing.
func (s *Service) PlanLog(ctx context.Context, q planlog.Query) ([]planlog.Record, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Query(ctx, q)
}

// Close stops the metrics collector and releases the plan log and the
// broker connection.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.bus.Close()
		<-s.collector
		s.cancel()
		if d, ok := s.publisher.(interface{ Disconnect() }); ok {
			d.Disconnect()
		}
		if s.store != nil {
			err = s.store.Close()
		}
	})
	return err
}
