// Package fleet exposes forecasting and scheduling over HTTP with JSON bodies.
package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/rakeplan/app"
	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/scheduler"
)

// Service is the part of app.Service used by the handlers.
type Service interface {
	DefaultPeriod() model.TimeWindow
	Forecast(date time.Time) []model.DemandForecast
	ForecastHorizon(routeID string, start time.Time, days int) ([]model.DemandForecast, error)
	Schedules() []model.Schedule
	Plan(ctx context.Context, period model.TimeWindow) (app.PlanResult, error)
	Reschedule(routeID string) (scheduler.RescheduleResult, error)
	Metrics() scheduler.Metrics
	MaintenanceDue() []model.Rake
}

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// NewForecastHandler serves GET /api/forecasts. The date parameter
// (YYYY-MM-DD) defaults to today. With route_id and days it returns a
// multi-day forecast for that route.
func NewForecastHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet) {
			return
		}
		date := svc.DefaultPeriod().Start
		if s := r.URL.Query().Get("date"); s != "" {
			t, err := time.Parse(dateLayout, s)
			if err != nil {
				http.Error(w, "invalid date", http.StatusBadRequest)
				return
			}
			date = t
		}
		routeID := r.URL.Query().Get("route_id")
		if routeID == "" {
			writeJSON(w, http.StatusOK, svc.Forecast(date))
			return
		}
		days := 1
		if s := r.URL.Query().Get("days"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 90 {
				http.Error(w, "days must be between 1 and 90", http.StatusBadRequest)
				return
			}
			days = n
		}
		out, err := svc.ForecastHorizon(routeID, date, days)
		if errors.Is(err, app.ErrUnknownRoute) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
}

// NewSchedulesHandler serves GET /api/schedules, optionally filtered by
// rake_id, route_id and status.
func NewSchedulesHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet) {
			return
		}
		q := r.URL.Query()
		out := []model.Schedule{}
		for _, s := range svc.Schedules() {
			if v := q.Get("rake_id"); v != "" && s.RakeID != v {
				continue
			}
			if v := q.Get("route_id"); v != "" && s.RouteID != v {
				continue
			}
			if v := q.Get("status"); v != "" && string(s.Status) != v {
				continue
			}
			out = append(out, s)
		}
		writeJSON(w, http.StatusOK, out)
	})
}

// PlanRequest is the optional body of POST /api/plan.
type PlanRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPlanHandler serves POST /api/plan. Without a start the default
// planning period is used; an end without a start is rejected.
func NewPlanHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodPost) {
			return
		}
		var req PlanRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		period := model.TimeWindow{Start: req.Start, End: req.End}
		if period.Start.IsZero() && !period.End.IsZero() {
			http.Error(w, "end requires start", http.StatusBadRequest)
			return
		}
		if !period.End.IsZero() && period.End.Before(period.Start) {
			http.Error(w, "end before start", http.StatusBadRequest)
			return
		}
		res, err := svc.Plan(r.Context(), period)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// RescheduleRequest is the body of POST /api/reschedule.
type RescheduleRequest struct {
	RouteID string `json:"routeId"`
}

// NewRescheduleHandler serves POST /api/reschedule.
func NewRescheduleHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodPost) {
			return
		}
		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RouteID == "" {
			http.Error(w, "routeId is required", http.StatusBadRequest)
			return
		}
		res, err := svc.Reschedule(req.RouteID)
		if errors.Is(err, app.ErrUnknownRoute) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// NewMetricsHandler serves GET /api/metrics.
func NewMetricsHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, http.StatusOK, svc.Metrics())
	})
}

// NewMaintenanceHandler serves GET /api/maintenance with the rakes due for
// maintenance.
func NewMaintenanceHandler(svc Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet) {
			return
		}
		due := svc.MaintenanceDue()
		if due == nil {
			due = []model.Rake{}
		}
		writeJSON(w, http.StatusOK, due)
	})
}
