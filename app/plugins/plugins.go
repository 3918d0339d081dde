// Package plugins registers the forecast engines selectable from the
// forecast_engine configuration section.
package plugins

import (
	"fmt"

	"github.com/kilianp07/rakeplan/core/factory"
	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/prediction"
)

// Engines holds the forecast engine factories by name.
var Engines = factory.NewRegistry[prediction.ForecastEngine]()

// RegisterEngine adds a forecast engine factory.
func RegisterEngine(name string, f factory.Factory[prediction.ForecastEngine]) error {
	return Engines.Register(name, f)
}

// NewEngine builds the engine named by cfg.Type.
func NewEngine(cfg factory.ModuleConfig) (prediction.ForecastEngine, error) {
	return Engines.Create(cfg)
}

// FixedConfig configures the "fixed" engine, which returns the same demand
// for a route on every date.
type FixedConfig struct {
	Demand     map[string]int `json:"demand"`
	Confidence float64        `json:"confidence"`
	Factors    []string       `json:"factors"`
}

func init() {
	_ = RegisterEngine("weighted", func(conf map[string]any) (prediction.ForecastEngine, error) {
		var cfg prediction.Config
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("weighted engine: %w", err)
		}
		return prediction.NewEngine(cfg), nil
	})
	_ = RegisterEngine("fixed", func(conf map[string]any) (prediction.ForecastEngine, error) {
		var fc FixedConfig
		if err := factory.Decode(conf, &fc); err != nil {
			return nil, err
		}
		if fc.Confidence == 0 {
			fc.Confidence = 1
		}
		if fc.Confidence < 0 || fc.Confidence > 1 {
			return nil, fmt.Errorf("fixed engine: confidence must be in [0,1]")
		}
		forecasts := make(map[string]model.DemandForecast, len(fc.Demand))
		for route, demand := range fc.Demand {
			if demand < 0 {
				return nil, fmt.Errorf("fixed engine: negative demand for %s", route)
			}
			forecasts[route] = model.DemandForecast{
				RouteID: route, PredictedDemand: demand, Confidence: fc.Confidence, Factors: fc.Factors,
			}
		}
		return prediction.MockEngine{Forecasts: forecasts}, nil
	})
}
