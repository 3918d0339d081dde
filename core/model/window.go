package model

import "time"

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Overlaps reports whether the two half-open windows intersect. Back-to-back
// windows (one ends exactly when the other starts) do not overlap.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

// Duration returns End - Start.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
