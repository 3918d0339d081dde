package fleet

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rakeplan/app"
	"github.com/kilianp07/rakeplan/config"
	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/planlog"
	"github.com/kilianp07/rakeplan/core/scheduler"
	"github.com/kilianp07/rakeplan/dataset"
	"github.com/kilianp07/rakeplan/infra/logger"
	"github.com/kilianp07/rakeplan/infra/mqtt"
)

var now = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func newService(t *testing.T) *app.Service {
	t.Helper()
	cfg := config.Default()
	cfg.PlanLog = planlog.Config{Backend: "none"}
	svc, err := app.New(cfg,
		app.WithDataset(dataset.Demo(now)),
		app.WithPublisher(mqtt.NewMockPublisher()),
		app.WithClock(func() time.Time { return now }),
		app.WithLogger(logger.NopLogger{}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestForecastHandler(t *testing.T) {
	h := NewForecastHandler(newService(t))

	rr := serve(h, http.MethodGet, "/api/forecasts?date=2024-03-11", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []model.DemandForecast
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 6)
	assert.Equal(t, "route_001", out[0].RouteID)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), out[0].Date)

	rr = serve(h, http.MethodGet, "/api/forecasts?route_id=route_002&days=3", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, now.AddDate(0, 0, 1), out[1].Date)

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/forecasts?date=tomorrow", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodGet, "/api/forecasts?route_id=route_002&days=0", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/api/forecasts?route_id=route_999", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodPost, "/api/forecasts", "").Code)
}

func TestSchedulesHandlerFilters(t *testing.T) {
	h := NewSchedulesHandler(newService(t))

	var out []model.Schedule
	rr := serve(h, http.MethodGet, "/api/schedules", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, 4)

	rr = serve(h, http.MethodGet, "/api/schedules?status=scheduled", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Len(t, out, 2)

	rr = serve(h, http.MethodGet, "/api/schedules?rake_id=rake_004&route_id=route_002", "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "schedule_002", out[0].ID)

	rr = serve(h, http.MethodGet, "/api/schedules?rake_id=rake_404", "")
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestPlanHandler(t *testing.T) {
	svc := newService(t)
	h := NewPlanHandler(svc)

	rr := serve(h, http.MethodPost, "/api/plan", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var res app.PlanResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, svc.Schedules(), 4+len(res.Created))

	body := `{"start":"2024-03-12T00:00:00Z","end":"2024-03-19T00:00:00Z"}`
	rr = serve(h, http.MethodPost, "/api/plan", body)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Period.Start.Equal(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, "/api/plan", "{").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, "/api/plan",
		`{"start":"2024-03-12T00:00:00Z","end":"2024-03-11T00:00:00Z"}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, "/api/plan", "").Code)
}

func TestPlanHandlerEndWithoutStart(t *testing.T) {
	svc := newService(t)
	before := len(svc.Schedules())
	rr := serve(NewPlanHandler(svc), http.MethodPost, "/api/plan", `{"end":"2024-03-19T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "end requires start")
	assert.Len(t, svc.Schedules(), before)
}

func TestRescheduleHandler(t *testing.T) {
	h := NewRescheduleHandler(newService(t))

	rr := serve(h, http.MethodPost, "/api/reschedule", `{"routeId":"route_001"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var res scheduler.RescheduleResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Rescheduled)
	assert.Len(t, res.Updated, 4)

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodPost, "/api/reschedule", `{"routeId":"route_999"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, "/api/reschedule", `{}`).Code)
}

func TestMetricsHandler(t *testing.T) {
	rr := serve(NewMetricsHandler(newService(t)), http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var m scheduler.Metrics
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, 4, m.TotalScheduledRakes)
	assert.InDelta(t, 0.5, m.UtilizationRate, 1e-9)
}

func TestMaintenanceHandler(t *testing.T) {
	rr := serve(NewMaintenanceHandler(newService(t)), http.MethodGet, "/api/maintenance", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []model.Rake
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	for _, r := range out {
		assert.NotEqual(t, "rake_003", r.ID)
	}
}
