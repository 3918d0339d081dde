// Package dataset loads the fleet the planner works on: stations, rakes,
// routes, existing schedules and the daily demand history of each route.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/core/prediction"
)

// ErrInvalidDataset is wrapped by every Validate failure.
var ErrInvalidDataset = errors.New("invalid dataset")

// FallbackSeries is forecast for routes without recorded history.
var FallbackSeries = []float64{50, 60, 45, 70, 55, 80, 65}

// DefaultFactors label forecasts generated from the dataset.
var DefaultFactors = []string{"seasonal", "economic"}

// Dataset is the planner's view of the fleet.
type Dataset struct {
	Stations         []model.Station      `json:"stations" yaml:"stations"`
	Rakes            []model.Rake         `json:"rakes" yaml:"rakes"`
	Routes           []model.Route        `json:"routes" yaml:"routes"`
	Schedules        []model.Schedule     `json:"schedules" yaml:"schedules"`
	HistoricalDemand map[string][]float64 `json:"historicalDemand" yaml:"historicalDemand"`
}

// Load reads a dataset from a .yaml, .yml or .json file and validates it.
func Load(path string) (*Dataset, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	ds, err := Decode(f, ext)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Decode reads a dataset in the given format ("yaml" or "json") and
// validates it.
func Decode(r io.Reader, format string) (*Dataset, error) {
	var ds Dataset
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&ds); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml dataset: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&ds); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dataset format: %q", format)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks each entity and the references between them. All
// problems are reported together.
func (d *Dataset) Validate() error {
	var errs []error
	codes := make(map[string]bool, len(d.Stations))
	for _, s := range d.Stations {
		if s.Code == "" {
			errs = append(errs, fmt.Errorf("station %s: code is required", s.ID))
			continue
		}
		if codes[s.Code] {
			errs = append(errs, fmt.Errorf("station code %s is duplicated", s.Code))
		}
		codes[s.Code] = true
	}
	knownStation := func(code string) bool { return len(codes) == 0 || codes[code] }

	rakes := make(map[string]*model.Rake, len(d.Rakes))
	for i := range d.Rakes {
		r := &d.Rakes[i]
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if rakes[r.ID] != nil {
			errs = append(errs, fmt.Errorf("rake %s is duplicated", r.ID))
		}
		if r.CurrentLocation != "" && !knownStation(r.CurrentLocation) {
			errs = append(errs, fmt.Errorf("rake %s: unknown station %s", r.ID, r.CurrentLocation))
		}
		rakes[r.ID] = r
	}

	routes := make(map[string]bool, len(d.Routes))
	for _, r := range d.Routes {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if routes[r.ID] {
			errs = append(errs, fmt.Errorf("route %s is duplicated", r.ID))
		}
		for _, code := range []string{r.Origin, r.Destination} {
			if !knownStation(code) {
				errs = append(errs, fmt.Errorf("route %s: unknown station %s", r.ID, code))
			}
		}
		routes[r.ID] = true
	}

	for _, s := range d.Schedules {
		rake, ok := rakes[s.RakeID]
		if !ok {
			errs = append(errs, fmt.Errorf("schedule %s: unknown rake %s", s.ID, s.RakeID))
		}
		if !routes[s.RouteID] {
			errs = append(errs, fmt.Errorf("schedule %s: unknown route %s", s.ID, s.RouteID))
		}
		if err := s.Validate(rake); err != nil {
			errs = append(errs, err)
		}
	}

	for id, series := range d.HistoricalDemand {
		if !routes[id] {
			errs = append(errs, fmt.Errorf("historical demand for unknown route %s", id))
		}
		for _, v := range series {
			if v < 0 {
				errs = append(errs, fmt.Errorf("historical demand for %s has negative values", id))
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidDataset, errors.Join(errs...))
}

// Route returns the route with the given id.
func (d *Dataset) Route(id string) (model.Route, bool) {
	for _, r := range d.Routes {
		if r.ID == id {
			return r, true
		}
	}
	return model.Route{}, false
}

// Rake returns the rake with the given id.
func (d *Dataset) Rake(id string) (model.Rake, bool) {
	for _, r := range d.Rakes {
		if r.ID == id {
			return r, true
		}
	}
	return model.Rake{}, false
}

// Series returns the demand history of a route, or FallbackSeries when none
// is recorded.
func (d *Dataset) Series(routeID string) []float64 {
	if s, ok := d.HistoricalDemand[routeID]; ok && len(s) > 0 {
		return s
	}
	return FallbackSeries
}

// RouteSeries returns the forecasting input of every route in route order.
// Nil factors default to DefaultFactors.
func (d *Dataset) RouteSeries(factors []string) []prediction.RouteSeries {
	if factors == nil {
		factors = DefaultFactors
	}
	out := make([]prediction.RouteSeries, 0, len(d.Routes))
	for _, r := range d.Routes {
		out = append(out, prediction.RouteSeries{
			RouteID: r.ID,
			Series:  d.Series(r.ID),
			Factors: append([]string(nil), factors...),
		})
	}
	return out
}
