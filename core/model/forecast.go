package model

import "time"

// DemandForecast is the predicted volume for one route on one date. The
// engines do not enforce uniqueness per route/date.
type DemandForecast struct {
	RouteID         string    `json:"routeId" yaml:"routeId"`
	Date            time.Time `json:"date" yaml:"date"`
	PredictedDemand int       `json:"predictedDemand" yaml:"predictedDemand"`
	Confidence      float64   `json:"confidence" yaml:"confidence"` // 0..1
	Factors         []string  `json:"factors" yaml:"factors"`
}

// LatestForRoute returns the forecast with the most recent date for the
// route. Ties keep the earliest entry in the slice.
func LatestForRoute(forecasts []DemandForecast, routeID string) (DemandForecast, bool) {
	var (
		best  DemandForecast
		found bool
	)
	for _, f := range forecasts {
		if f.RouteID != routeID {
			continue
		}
		if !found || f.Date.After(best.Date) {
			best = f
			found = true
		}
	}
	return best, found
}
