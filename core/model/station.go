package model

// Station is a railway station known to the dashboard.
type Station struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Code       string   `json:"code" yaml:"code"`
	Lat        float64  `json:"lat" yaml:"lat"`
	Lng        float64  `json:"lng" yaml:"lng"`
	Capacity   int      `json:"capacity" yaml:"capacity"`
	Facilities []string `json:"facilities" yaml:"facilities"`
}
