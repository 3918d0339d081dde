package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/rakeplan/core/metrics"
	"github.com/kilianp07/rakeplan/core/model"
)

type influxRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *influxRecorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		data, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.bodies = append(r.bodies, strings.TrimSpace(string(data)))
		r.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func lineProtocol(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSinkRecordPlan(t *testing.T) {
	rec := &influxRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Date(2025, 1, 1, 6, 0, 0, 0, time.UTC)
	ev := coremetrics.PlanEvent{
		RunID:  "run-1",
		Period: model.TimeWindow{Start: now, End: now.Add(168 * time.Hour)},
		Routes: 6,
		Assignments: []coremetrics.Assignment{
			{ScheduleID: "s1", RakeID: "rake_003", RouteID: "route_001", Priority: model.PriorityHigh, CargoTons: 400, Departure: now},
		},
		Time: now,
	}
	require.NoError(t, sink.RecordPlan(ev))

	run := write.NewPointWithMeasurement("plan_run").
		AddTag("run_id", "run-1").
		AddTag("component", "scheduler").
		AddField("routes", 6).
		AddField("created", 1).
		AddField("period_hours", 168.0).
		SetTime(now)
	created := write.NewPointWithMeasurement("schedule_created").
		AddTag("run_id", "run-1").
		AddTag("rake_id", "rake_003").
		AddTag("route_id", "route_001").
		AddTag("priority", "high").
		AddField("schedule_id", "s1").
		AddField("cargo_tons", 400.0).
		AddField("departure", now.Unix()).
		SetTime(now)
	require.Len(t, rec.bodies, 2)
	assert.Equal(t, lineProtocol(run), rec.bodies[0])
	assert.Equal(t, lineProtocol(created), rec.bodies[1])
}

func TestInfluxSinkRecordForecasts(t *testing.T) {
	rec := &influxRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	f := model.DemandForecast{RouteID: "route_001", Date: day, PredictedDemand: 92, Confidence: 0.94512, Factors: []string{"seasonal", "economic"}}
	require.NoError(t, sink.RecordForecasts([]model.DemandForecast{f}))

	p := write.NewPointWithMeasurement("demand_forecast").
		AddTag("route_id", "route_001").
		AddTag("component", "forecaster").
		AddField("predicted_demand", 92).
		AddField("confidence", 0.945).
		AddField("factors", "seasonal,economic").
		SetTime(day)
	require.Len(t, rec.bodies, 1)
	assert.Equal(t, lineProtocol(p), rec.bodies[0])
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	_, isInflux := sink.(*InfluxSink)
	assert.False(t, isInflux, "expected NopSink on failing health check")
	assert.True(t, called, "health endpoint not called")
}
