package prediction

import (
	"time"

	"github.com/kilianp07/rakeplan/core/model"
)

// MockEngine returns canned forecasts keyed by route.
type MockEngine struct {
	Forecasts map[string]model.DemandForecast
}

// GenerateDemandForecast returns the configured forecast for the route with
// its date set to targetDate, or a zero-demand forecast.
func (m MockEngine) GenerateDemandForecast(routeID string, _ []float64, targetDate time.Time, factors []string) model.DemandForecast {
	if f, ok := m.Forecasts[routeID]; ok {
		f.Date = targetDate
		return f
	}
	return model.DemandForecast{RouteID: routeID, Date: targetDate, Confidence: 0.5, Factors: factors}
}

// BatchForecast returns one forecast per input.
func (m MockEngine) BatchForecast(inputs []RouteSeries, targetDate time.Time) []model.DemandForecast {
	out := make([]model.DemandForecast, len(inputs))
	for i, in := range inputs {
		out[i] = m.GenerateDemandForecast(in.RouteID, in.Series, targetDate, in.Factors)
	}
	return out
}
