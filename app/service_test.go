package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rakeplan/auth"
	"github.com/kilianp07/rakeplan/config"
	"github.com/kilianp07/rakeplan/core/factory"
	coremetrics "github.com/kilianp07/rakeplan/core/metrics"
	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/monitoring"
	"github.com/kilianp07/rakeplan/core/planlog"
	"github.com/kilianp07/rakeplan/core/prediction"
	"github.com/kilianp07/rakeplan/dataset"
	"github.com/kilianp07/rakeplan/infra/logger"
	"github.com/kilianp07/rakeplan/infra/mqtt"
	"github.com/kilianp07/rakeplan/pkg/export"
)

var now = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu         sync.Mutex
	plans      []coremetrics.PlanEvent
	metrics    []coremetrics.ScheduleMetricsEvent
	reschedule []coremetrics.RescheduleEvent
}

func (r *recordingSink) RecordPlan(ev coremetrics.PlanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, ev)
	return nil
}

func (r *recordingSink) RecordScheduleMetrics(ev coremetrics.ScheduleMetricsEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, ev)
	return nil
}

func (r *recordingSink) RecordReschedule(ev coremetrics.RescheduleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reschedule = append(r.reschedule, ev)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.PlanLog = planlog.Config{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "planlog.jsonl")}
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config, opts ...Option) (*Service, *mqtt.MockPublisher) {
	t.Helper()
	pub := mqtt.NewMockPublisher()
	base := []Option{
		WithDataset(dataset.Demo(now)),
		WithPublisher(pub),
		WithClock(func() time.Time { return now }),
		WithLogger(logger.NopLogger{}),
	}
	svc, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, pub
}

func TestForecastFollowsRouteOrder(t *testing.T) {
	svc, _ := newTestService(t, testConfig(t))
	out := svc.Forecast(now)
	routes := svc.Dataset().Routes
	require.Len(t, out, len(routes))
	for i, f := range out {
		assert.Equal(t, routes[i].ID, f.RouteID)
		assert.Equal(t, now, f.Date)
		assert.Equal(t, []string{"seasonal", "economic"}, f.Factors)
		assert.Greater(t, f.PredictedDemand, 0)
	}
}

func TestForecastHorizon(t *testing.T) {
	svc, _ := newTestService(t, testConfig(t))
	out, err := svc.ForecastHorizon("route_001", now, 3)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, now.AddDate(0, 0, 2), out[2].Date)

	_, err = svc.ForecastHorizon("route_999", now, 3)
	assert.ErrorIs(t, err, ErrUnknownRoute)
}

func TestPlanPublishesAndLogs(t *testing.T) {
	sink := &recordingSink{}
	svc, pub := newTestService(t, testConfig(t), WithSink(sink))
	before := len(svc.Schedules())

	res, err := svc.Plan(context.Background(), model.TimeWindow{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Created)
	assert.Equal(t, svc.DefaultPeriod(), res.Period)
	assert.Len(t, res.Forecasts, 6)
	assert.Zero(t, res.PublishFailures)
	assert.Len(t, svc.Schedules(), before+len(res.Created))
	assert.Equal(t, res.Created, pub.Schedules())
	for _, s := range res.Created {
		assert.Equal(t, model.ScheduleScheduled, s.Status)
		assert.False(t, s.Departure.Before(now))
	}

	recs, err := svc.PlanLog(context.Background(), planlog.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.RunID, recs[0].RunID)
	assert.Len(t, recs[0].Routes, 6)
	assert.Len(t, recs[0].Created, len(res.Created))

	require.NoError(t, svc.Close())
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.plans, 1)
	assert.Equal(t, res.RunID, sink.plans[0].RunID)
	assert.Len(t, sink.plans[0].Assignments, len(res.Created))
	require.Len(t, sink.metrics, 1)
	assert.Equal(t, res.Metrics.UtilizationRate, sink.metrics[0].UtilizationRate)
}

func TestPlanCountsPublishFailures(t *testing.T) {
	rec := &monitoring.Recorder{}
	svc, pub := newTestService(t, testConfig(t), WithMonitor(rec))
	for _, r := range svc.Dataset().Rakes {
		pub.FailRakes[r.ID] = true
	}
	res, err := svc.Plan(context.Background(), svc.DefaultPeriod())
	require.NoError(t, err)
	require.NotEmpty(t, res.Created)
	assert.Equal(t, len(res.Created), res.PublishFailures)
	assert.Empty(t, pub.Schedules())

	captured := rec.Captured()
	require.Len(t, captured, len(res.Created))
	assert.Equal(t, res.Created[0].RakeID, captured[0].Tags["rake_id"])
	assert.Equal(t, res.Created[0].ID, captured[0].Tags["schedule_id"])
}

func TestPlanWithoutDemandCreatesNothing(t *testing.T) {
	svc, pub := newTestService(t, testConfig(t), WithEngine(prediction.MockEngine{}))
	res, err := svc.Plan(context.Background(), svc.DefaultPeriod())
	require.NoError(t, err)
	assert.Empty(t, res.Created)
	assert.Empty(t, pub.Schedules())
}

func TestPlanRejectsInvertedPeriod(t *testing.T) {
	svc, _ := newTestService(t, testConfig(t))
	_, err := svc.Plan(context.Background(), model.TimeWindow{Start: now, End: now.Add(-time.Hour)})
	assert.Error(t, err)

	_, err = svc.Plan(context.Background(), model.TimeWindow{End: now.Add(24 * time.Hour)})
	assert.ErrorContains(t, err, "no start")
	assert.Len(t, svc.Schedules(), len(dataset.Demo(now).Schedules))
}

func TestPlanWithoutPlanLog(t *testing.T) {
	cfg := testConfig(t)
	cfg.PlanLog = planlog.Config{Backend: "none"}
	svc, _ := newTestService(t, cfg)
	_, err := svc.Plan(context.Background(), svc.DefaultPeriod())
	require.NoError(t, err)
	recs, err := svc.PlanLog(context.Background(), planlog.Query{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestReschedule(t *testing.T) {
	sink := &recordingSink{}
	svc, pub := newTestService(t, testConfig(t), WithSink(sink))

	res, err := svc.Reschedule("route_001")
	require.NoError(t, err)
	// Only schedule_003 departs after the notice period and is still scheduled.
	assert.Equal(t, 1, res.Rescheduled)
	published := pub.Schedules()
	require.Len(t, published, 1)
	assert.Equal(t, "schedule_003", published[0].ID)
	assert.Equal(t, now.Add(16*time.Hour), published[0].Departure)

	for _, s := range svc.Schedules() {
		if s.ID == "schedule_003" {
			assert.Equal(t, now.Add(16*time.Hour), s.Departure)
		}
	}

	require.NoError(t, svc.Close())
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.reschedule, 1)
	assert.Equal(t, "route_001", sink.reschedule[0].RouteID)
}

func TestRescheduleUnknownRoute(t *testing.T) {
	svc, _ := newTestService(t, testConfig(t))
	_, err := svc.Reschedule("route_999")
	assert.ErrorIs(t, err, ErrUnknownRoute)
}

func TestMetrics(t *testing.T) {
	svc, _ := newTestService(t, testConfig(t))
	m := svc.Metrics()
	assert.Equal(t, 4, m.TotalScheduledRakes)
	assert.InDelta(t, 0.5, m.UtilizationRate, 1e-9)
	assert.Equal(t, 1, m.CompletedRuns)
}

func TestMaintenanceDue(t *testing.T) {
	svc, _ := newTestService(t, testConfig(t))
	due := svc.MaintenanceDue()
	ids := make([]string, len(due))
	for i, r := range due {
		ids[i] = r.ID
	}
	assert.NotContains(t, ids, "rake_003")
}

func TestNewWithFixedEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.ForecastEngine.Type = "fixed"
	cfg.ForecastEngine.Conf = map[string]any{"demand": map[string]any{"route_001": 150}}
	svc, _ := newTestService(t, cfg)
	out := svc.Forecast(now)
	assert.Equal(t, 150, out[0].PredictedDemand)
	assert.Equal(t, 0, out[1].PredictedDemand)
}

func TestNewFetchesRemoteDataset(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/fleet", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(dataset.Demo(now))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Dataset.URL = srv.URL + "/fleet"
	cfg.Dataset.Auth = auth.Conf{ClientID: "planner", ClientSecret: "s", TokenURL: srv.URL + "/oauth/token"}
	svc, err := New(cfg, WithPublisher(mqtt.NewMockPublisher()), WithLogger(logger.NopLogger{}))
	require.NoError(t, err)
	defer svc.Close()
	assert.Len(t, svc.Dataset().Rakes, 8)
}

func TestNewErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.ForecastEngine.Type = "arima"
	_, err := New(cfg, WithDataset(dataset.Demo(now)))
	assert.ErrorContains(t, err, "forecast engine")

	cfg = testConfig(t)
	cfg.Dataset.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Metrics.Sinks = append(cfg.Metrics.Sinks, factory.ModuleConfig{Type: "graphite"})
	_, err = New(cfg, WithDataset(dataset.Demo(now)))
	assert.ErrorContains(t, err, "metrics sink")
}

func TestNewMergesHistoryCSV(t *testing.T) {
	demo := dataset.Demo(now)
	route := demo.Routes[0]
	path := filepath.Join(t.TempDir(), export.HistoricalDemandFile)
	csv := "Day," + export.DemandColumn(route) + "\n1,10\n2,20\n3,30\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	cfg := testConfig(t)
	cfg.Dataset.HistoryCSV = path
	svc, _ := newTestService(t, cfg, WithDataset(demo))
	hist := svc.Dataset().HistoricalDemand
	assert.Equal(t, []float64{10, 20, 30}, hist[route.ID])
	assert.Equal(t, dataset.Demo(now).HistoricalDemand[demo.Routes[1].ID], hist[demo.Routes[1].ID])
}

func TestNewRejectsBadHistoryCSV(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.csv")
	require.NoError(t, os.WriteFile(unknown, []byte("Day,Route_999_Nowhere\n1,5\n"), 0o644))
	malformed := filepath.Join(dir, "malformed.csv")
	require.NoError(t, os.WriteFile(malformed, []byte("Day,x\n1,many\n"), 0o644))

	cfg := testConfig(t)
	cfg.Dataset.HistoryCSV = unknown
	_, err := New(cfg, WithDataset(dataset.Demo(now)))
	assert.ErrorIs(t, err, dataset.ErrInvalidDataset)

	cfg.Dataset.HistoryCSV = malformed
	_, err = New(cfg, WithDataset(dataset.Demo(now)))
	assert.ErrorIs(t, err, export.ErrMalformedDemand)

	cfg.Dataset.HistoryCSV = filepath.Join(dir, "missing.csv")
	_, err = New(cfg, WithDataset(dataset.Demo(now)))
	assert.ErrorContains(t, err, "history csv")
}

func TestEventBufferFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.EventBuffer = 32
	svc, _ := newTestService(t, cfg)
	sub := svc.bus.Subscribe()
	defer svc.bus.Unsubscribe(sub)
	assert.Equal(t, 32, cap(sub))
}
