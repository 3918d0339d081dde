// Package prediction forecasts route demand from historical series. The
// single-series methods are pure functions; Engine combines them with fixed
// weights into one DemandForecast per route and date. Degenerate inputs
// (empty series, zero mean) yield safe defaults instead of errors.
package prediction
