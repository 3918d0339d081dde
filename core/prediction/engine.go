package prediction

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/rakeplan/core/model"
)

// ForecastEngine produces demand forecasts for routes.
type ForecastEngine interface {
	// GenerateDemandForecast forecasts a single route for targetDate.
	GenerateDemandForecast(routeID string, series []float64, targetDate time.Time, factors []string) model.DemandForecast

	// BatchForecast forecasts each route independently, preserving input order.
	BatchForecast(inputs []RouteSeries, targetDate time.Time) []model.DemandForecast
}

// RouteSeries is the historical demand of one route.
type RouteSeries struct {
	RouteID string
	Series  []float64
	Factors []string
}

// Engine combines moving average, exponential smoothing, linear trend and
// seasonal forecasts with fixed weights.
type Engine struct {
	Config Config
}

// NewEngine returns an Engine using cfg. Zero fields are defaulted.
func NewEngine(cfg Config) Engine {
	cfg.SetDefaults()
	return Engine{Config: cfg}
}

// GenerateDemandForecast combines the four methods. PredictedDemand is
// rounded, floored at zero and capped at math.MaxInt; Confidence is 1 - stddev/mean clamped to
// [MinConfidence, 1].
func (e Engine) GenerateDemandForecast(routeID string, series []float64, targetDate time.Time, factors []string) model.DemandForecast {
	c := e.Config
	w := c.Weights
	combined := w.SMA*SimpleMovingAverage(series, c.Window) +
		w.Smoothing*ExponentialSmoothing(series, c.Alpha) +
		w.Trend*LinearTrend(series, c.PeriodsAhead) +
		w.Seasonal*SeasonalForecast(series, c.SeasonLength, c.PeriodsAhead)

	demand := math.Round(combined)
	if demand < 0 || math.IsNaN(demand) || math.IsInf(demand, 0) {
		demand = 0
	}
	predicted := math.MaxInt
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold.
	if demand < float64(math.MaxInt) {
		predicted = int(demand)
	}
	if factors == nil {
		factors = []string{}
	}
	return model.DemandForecast{
		RouteID:         routeID,
		Date:            targetDate,
		PredictedDemand: predicted,
		Confidence:      Confidence(series, c.MinConfidence),
		Factors:         factors,
	}
}

// BatchForecast applies GenerateDemandForecast to every route.
func (e Engine) BatchForecast(inputs []RouteSeries, targetDate time.Time) []model.DemandForecast {
	out := make([]model.DemandForecast, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, e.GenerateDemandForecast(in.RouteID, in.Series, targetDate, in.Factors))
	}
	return out
}

// ForecastHorizon forecasts days consecutive dates starting at start. Each
// predicted value is appended to the working series before the next day is
// forecast.
func (e Engine) ForecastHorizon(routeID string, series []float64, start time.Time, days int, factors []string) []model.DemandForecast {
	if days <= 0 {
		return nil
	}
	work := make([]float64, len(series), len(series)+days)
	copy(work, series)
	out := make([]model.DemandForecast, 0, days)
	for i := 0; i < days; i++ {
		f := e.GenerateDemandForecast(routeID, work, start.AddDate(0, 0, i), factors)
		out = append(out, f)
		work = append(work, float64(f.PredictedDemand))
	}
	return out
}

// Confidence derives a confidence score from the coefficient of variation
// of the series. Empty, zero-mean or non-finite inputs return floor.
func Confidence(series []float64, floor float64) float64 {
	if len(series) == 0 {
		return floor
	}
	mean, std := stat.PopMeanStdDev(series, nil)
	if mean <= 0 {
		return floor
	}
	c := 1 - std/mean
	if math.IsNaN(c) || c < floor {
		return floor
	}
	if c > 1 {
		return 1
	}
	return c
}
