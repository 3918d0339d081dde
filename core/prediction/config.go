package prediction

import (
	"fmt"
	"math"
)

// Weights sets the share of each method in the combined forecast.
type Weights struct {
	SMA       float64 `json:"sma" yaml:"sma"`
	Smoothing float64 `json:"smoothing" yaml:"smoothing"`
	Trend     float64 `json:"trend" yaml:"trend"`
	Seasonal  float64 `json:"seasonal" yaml:"seasonal"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 { return w.SMA + w.Smoothing + w.Trend + w.Seasonal }

// Config tunes the forecasting engine.
type Config struct {
	Window        int     `json:"window" yaml:"window"`
	Alpha         float64 `json:"alpha" yaml:"alpha"`
	SeasonLength  int     `json:"season_length" yaml:"season_length"`
	PeriodsAhead  int     `json:"periods_ahead" yaml:"periods_ahead"`
	Weights       Weights `json:"weights" yaml:"weights"`
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// DefaultConfig returns the weekly-season configuration used by the
// dashboard.
func DefaultConfig() Config {
	return Config{
		Window:        7,
		Alpha:         DefaultAlpha,
		SeasonLength:  7,
		PeriodsAhead:  1,
		Weights:       Weights{SMA: 0.20, Smoothing: 0.30, Trend: 0.25, Seasonal: 0.25},
		MinConfidence: 0.5,
	}
}

// SetDefaults fills zero fields from DefaultConfig.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.Window == 0 {
		c.Window = d.Window
	}
	if c.Alpha == 0 {
		c.Alpha = d.Alpha
	}
	if c.SeasonLength == 0 {
		c.SeasonLength = d.SeasonLength
	}
	if c.PeriodsAhead == 0 {
		c.PeriodsAhead = d.PeriodsAhead
	}
	if c.Weights == (Weights{}) {
		c.Weights = d.Weights
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = d.MinConfidence
	}
}

// Validate checks that the configuration produces meaningful forecasts.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if c.SeasonLength <= 0 {
		return fmt.Errorf("season_length must be positive")
	}
	if c.PeriodsAhead <= 0 {
		return fmt.Errorf("periods_ahead must be positive")
	}
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0,1], got %v", c.Alpha)
	}
	if math.Abs(c.Weights.Sum()-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1, got %v", c.Weights.Sum())
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1]")
	}
	return nil
}
