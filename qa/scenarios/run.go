package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rakeplan/app"
	"github.com/kilianp07/rakeplan/app/plugins"
	"github.com/kilianp07/rakeplan/config"
	"github.com/kilianp07/rakeplan/core/factory"
	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/planlog"
	"github.com/kilianp07/rakeplan/infra/logger"
	"github.com/kilianp07/rakeplan/infra/metrics"
	"github.com/kilianp07/rakeplan/infra/mqtt"
)

func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	pub := mqtt.NewMockPublisher()
	for _, id := range sc.FailRakes {
		pub.FailRakes[id] = true
	}

	demand := make(map[string]any, len(sc.Demand))
	for route, d := range sc.Demand {
		demand[route] = d
	}
	engine, err := plugins.NewEngine(factory.ModuleConfig{Type: "fixed", Conf: map[string]any{"demand": demand}})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.PlanLog = planlog.Config{Backend: "none"}
	fleet := sc.Fleet
	fleet.Schedules = model.CloneSchedules(sc.Fleet.Schedules)
	svc, err := app.New(cfg,
		app.WithDataset(&fleet),
		app.WithPublisher(pub),
		app.WithEngine(engine),
		app.WithSink(sink),
		app.WithClock(func() time.Time { return sc.Now }),
		app.WithLogger(logger.NopLogger{}),
	)
	require.NoError(t, err)

	res, err := svc.Plan(context.Background(), model.TimeWindow{Start: sc.Now, End: sc.Now.Add(app.PlanningHorizon)})
	require.NoError(t, err)
	assert.Len(t, res.Created, sc.Expected.Created, "created schedules")
	assert.Equal(t, sc.Expected.PublishFailures, res.PublishFailures, "publish failures")
	if sc.Expected.Assignments != nil {
		assert.Equal(t, sc.Expected.Assignments, assignments(res.Created), "rakes per route")
	}

	rescheduled := 0
	for _, route := range sc.Reschedule {
		r, err := svc.Reschedule(route)
		require.NoError(t, err)
		rescheduled += r.Rescheduled
	}
	assert.Equal(t, sc.Expected.Rescheduled, rescheduled, "rescheduled")

	m := svc.Metrics()
	assert.InDelta(t, sc.Expected.Utilization, m.UtilizationRate, 1e-9, "utilization")
	assert.Equal(t, sc.Expected.OverUtilized, m.OverUtilized, "over utilized")

	require.NoError(t, svc.Close())
	assert.Equal(t, float64(sc.Expected.Created), counterSum(t, reg, "rakeplan_schedules_created_total"))
	assert.Equal(t, float64(rescheduled), counterSum(t, reg, "rakeplan_rescheduled_total"))
}

func assignments(created []model.Schedule) map[string]int {
	out := map[string]int{}
	for _, s := range created {
		out[s.RouteID]++
	}
	return out
}

func counterSum(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	sum := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}
