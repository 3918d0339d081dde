package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rakeplan/app"
	"github.com/kilianp07/rakeplan/config"
	"github.com/kilianp07/rakeplan/core/planlog"
	"github.com/kilianp07/rakeplan/dataset"
	"github.com/kilianp07/rakeplan/infra/logger"
	"github.com/kilianp07/rakeplan/infra/mqtt"
)

func TestMuxRoutes(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	cfg := config.Default()
	cfg.PlanLog = planlog.Config{Backend: "none"}
	svc, err := app.New(cfg,
		app.WithDataset(dataset.Demo(now)),
		app.WithPublisher(mqtt.NewMockPublisher()),
		app.WithClock(func() time.Time { return now }),
		app.WithLogger(logger.NopLogger{}),
	)
	require.NoError(t, err)
	defer svc.Close()

	srv := httptest.NewServer(NewMux(svc))
	defer srv.Close()

	for path, want := range map[string]int{
		"/api/forecasts":   http.StatusOK,
		"/api/schedules":   http.StatusOK,
		"/api/metrics":     http.StatusOK,
		"/api/maintenance": http.StatusOK,
		"/api/planlog":     http.StatusOK,
		"/metrics":         http.StatusOK,
		"/healthz":         http.StatusOK,
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		resp.Body.Close()
		assert.Equal(t, want, resp.StatusCode, path)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
