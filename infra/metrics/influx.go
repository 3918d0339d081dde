package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/rakeplan/core/metrics"
	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/infra/logger"
)

// InfluxConfig holds the connection settings of an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes planning events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPlan writes one plan_run point and one schedule_created point per
// assignment.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	run := write.NewPointWithMeasurement("plan_run").
		AddTag("run_id", ev.RunID).
		AddTag("component", "scheduler").
		AddField("routes", ev.Routes).
		AddField("created", len(ev.Assignments)).
		AddField("period_hours", round3(ev.Period.Duration().Hours())).
		SetTime(ev.Time)
	if err := s.writeAPI.WritePoint(ctx, run); err != nil {
		return err
	}
	for _, a := range ev.Assignments {
		p := write.NewPointWithMeasurement("schedule_created").
			AddTag("run_id", ev.RunID).
			AddTag("rake_id", a.RakeID).
			AddTag("route_id", a.RouteID).
			AddTag("priority", string(a.Priority)).
			AddField("schedule_id", a.ScheduleID).
			AddField("cargo_tons", round3(a.CargoTons)).
			AddField("departure", a.Departure.Unix()).
			SetTime(ev.Time)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordForecasts writes a demand_forecast point per forecast, stamped with
// the target date.
func (s *InfluxSink) RecordForecasts(forecasts []model.DemandForecast) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, f := range forecasts {
		p := write.NewPointWithMeasurement("demand_forecast").
			AddTag("route_id", f.RouteID).
			AddTag("component", "forecaster").
			AddField("predicted_demand", f.PredictedDemand).
			AddField("confidence", round3(f.Confidence)).
			AddField("factors", strings.Join(f.Factors, ",")).
			SetTime(f.Date)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordScheduleMetrics writes a fleet_metrics snapshot.
func (s *InfluxSink) RecordScheduleMetrics(ev coremetrics.ScheduleMetricsEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_metrics").
		AddTag("component", "scheduler").
		AddField("utilization_rate", round3(ev.UtilizationRate)).
		AddField("on_time_performance", round3(ev.OnTimePerformance)).
		AddField("scheduled_rakes", ev.TotalScheduledRakes).
		AddField("average_route_time_hours", round3(ev.AverageRouteTimeHours)).
		AddField("over_utilized", ev.OverUtilized).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordReschedule writes a reschedule point.
func (s *InfluxSink) RecordReschedule(ev coremetrics.RescheduleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reschedule").
		AddTag("route_id", ev.RouteID).
		AddTag("component", "scheduler").
		AddField("rescheduled", ev.Rescheduled).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
