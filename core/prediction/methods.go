package prediction

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultAlpha is the smoothing factor used when none is configured.
const DefaultAlpha = 0.3

// SimpleMovingAverage returns the mean of the last window points. With fewer
// points than window it returns the last point, and 0 for an empty series.
func SimpleMovingAverage(series []float64, window int) float64 {
	if len(series) == 0 || window <= 0 {
		return 0
	}
	if len(series) < window {
		return series[len(series)-1]
	}
	return floats.Sum(series[len(series)-window:]) / float64(window)
}

// ExponentialSmoothing applies simple exponential smoothing seeded with the
// first value.
func ExponentialSmoothing(series []float64, alpha float64) float64 {
	if len(series) == 0 {
		return 0
	}
	f := series[0]
	for _, v := range series[1:] {
		f = alpha*v + (1-alpha)*f
	}
	return f
}

// LinearTrend fits an ordinary least squares line over x = 1..n and
// extrapolates periodsAhead steps beyond n.
func LinearTrend(series []float64, periodsAhead int) float64 {
	switch len(series) {
	case 0:
		return 0
	case 1:
		return series[0]
	}
	n := len(series)
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i + 1)
	}
	intercept, slope := stat.LinearRegression(x, series, nil, false)
	return intercept + slope*float64(n+periodsAhead)
}

// SeasonalForecast deseasonalizes the series with per-phase indices, fits a
// linear trend and reapplies the index of the target phase. Series shorter
// than two full seasons, and series whose seasonal indices cannot be formed
// (zero mean or a zero phase), fall back to exponential smoothing.
func SeasonalForecast(series []float64, seasonLength, periodsAhead int) float64 {
	n := len(series)
	if seasonLength <= 0 || n < 2*seasonLength {
		return ExponentialSmoothing(series, DefaultAlpha)
	}

	sums := make([]float64, seasonLength)
	counts := make([]float64, seasonLength)
	for i, v := range series {
		sums[i%seasonLength] += v
		counts[i%seasonLength]++
	}
	mean := stat.Mean(series, nil)
	if mean == 0 {
		return ExponentialSmoothing(series, DefaultAlpha)
	}
	indices := make([]float64, seasonLength)
	for i := range indices {
		indices[i] = (sums[i] / counts[i]) / mean
		if indices[i] == 0 {
			return ExponentialSmoothing(series, DefaultAlpha)
		}
	}

	deseasonalized := make([]float64, n)
	for i, v := range series {
		deseasonalized[i] = v / indices[i%seasonLength]
	}
	trend := LinearTrend(deseasonalized, periodsAhead)
	phase := (n + periodsAhead - 1) % seasonLength
	return trend * indices[phase]
}
