package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleMovingAverage(t *testing.T) {
	assert.Equal(t, 35.0, SimpleMovingAverage([]float64{10, 20, 30, 40}, 2))
	assert.Equal(t, 25.0, SimpleMovingAverage([]float64{10, 20, 30, 40}, 4))
	// fewer points than window returns the last point
	assert.Equal(t, 40.0, SimpleMovingAverage([]float64{10, 20, 30, 40}, 7))
	assert.Equal(t, 0.0, SimpleMovingAverage(nil, 3))
	assert.Equal(t, 0.0, SimpleMovingAverage([]float64{1, 2}, 0))
}

func TestSimpleMovingAverageWithinRange(t *testing.T) {
	series := []float64{85, 92, 78, 95, 88, 102, 96, 89, 94, 87}
	for w := 1; w <= len(series); w++ {
		got := SimpleMovingAverage(series, w)
		assert.GreaterOrEqual(t, got, 78.0, "window %d", w)
		assert.LessOrEqual(t, got, 102.0, "window %d", w)
	}
}

func TestExponentialSmoothing(t *testing.T) {
	assert.Equal(t, 15.0, ExponentialSmoothing([]float64{10, 20}, 0.5))
	assert.InDelta(t, 13.0, ExponentialSmoothing([]float64{10, 20}, 0.3), 1e-9)
	assert.Equal(t, 0.0, ExponentialSmoothing(nil, 0.3))
	for _, x := range []float64{-4, 0, 7.25, 1e6} {
		assert.Equal(t, x, ExponentialSmoothing([]float64{x}, 0.3))
	}
}

func TestLinearTrendArithmeticSeries(t *testing.T) {
	cases := []struct{ a, d float64 }{{5, 3}, {100, -2}, {0, 0.5}, {42, 0}}
	for _, c := range cases {
		series := make([]float64, 10)
		for i := range series {
			series[i] = c.a + c.d*float64(i)
		}
		want := c.a + c.d*float64(len(series))
		assert.InDelta(t, want, LinearTrend(series, 1), 1e-9)
	}
}

func TestLinearTrendShortSeries(t *testing.T) {
	assert.Equal(t, 0.0, LinearTrend(nil, 1))
	assert.Equal(t, 9.0, LinearTrend([]float64{9}, 1))
	// two points: exact line through them, three steps ahead
	assert.InDelta(t, 50.0, LinearTrend([]float64{10, 20}, 3), 1e-9)
}

func TestSeasonalForecast(t *testing.T) {
	// pure two-phase pattern with no trend
	assert.InDelta(t, 10.0, SeasonalForecast([]float64{10, 20, 10, 20}, 2, 1), 1e-9)
	assert.InDelta(t, 20.0, SeasonalForecast([]float64{10, 20, 10, 20}, 2, 2), 1e-9)
}

func TestSeasonalForecastFallsBack(t *testing.T) {
	short := []float64{10, 20}
	assert.Equal(t, ExponentialSmoothing(short, DefaultAlpha), SeasonalForecast(short, 7, 1))

	zeros := make([]float64, 14)
	assert.Equal(t, 0.0, SeasonalForecast(zeros, 7, 1))

	// phase 0 is always zero, its index would be zero
	gaps := []float64{0, 10, 0, 10, 0, 10}
	assert.Equal(t, ExponentialSmoothing(gaps, DefaultAlpha), SeasonalForecast(gaps, 2, 1))

	assert.Equal(t, ExponentialSmoothing(short, DefaultAlpha), SeasonalForecast(short, 0, 1))
}
