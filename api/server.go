// Package api assembles the HTTP endpoints served by `rakeplan serve`.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/rakeplan/app"
	"github.com/kilianp07/rakeplan/api/fleet"
	"github.com/kilianp07/rakeplan/api/planlog"
	"github.com/kilianp07/rakeplan/infra/logger"
)

// NewMux routes the JSON API and the Prometheus endpoint.
func NewMux(svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/forecasts", fleet.NewForecastHandler(svc))
	mux.Handle("/api/schedules", fleet.NewSchedulesHandler(svc))
	mux.Handle("/api/plan", fleet.NewPlanHandler(svc))
	mux.Handle("/api/reschedule", fleet.NewRescheduleHandler(svc))
	mux.Handle("/api/metrics", fleet.NewMetricsHandler(svc))
	mux.Handle("/api/maintenance", fleet.NewMaintenanceHandler(svc))
	mux.Handle("/api/planlog", planlog.NewLogHandler(svc.PlanLog))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	log := logger.New("api")
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("shutdown: %v", err)
		}
	}()
	log.Infof("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
