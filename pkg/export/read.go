package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/dataset"
)

// ErrMalformedDemand is returned when a historical demand file cannot be parsed.
var ErrMalformedDemand = errors.New("malformed historical demand")

// ReadHistoricalDemand parses a file written by WriteHistoricalDemand. Columns
// are mapped back to route IDs through DemandColumn; columns matching no
// route are keyed by their header.
func ReadHistoricalDemand(r io.Reader, routes []model.Route) (map[string][]float64, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformedDemand, err)
	}
	if len(header) == 0 || header[0] != "Day" {
		return nil, fmt.Errorf("%w: first column must be Day", ErrMalformedDemand)
	}
	byColumn := make(map[string]string, len(routes))
	for _, rt := range routes {
		byColumn[DemandColumn(rt)] = rt.ID
	}
	keys := make([]string, len(header))
	for i, col := range header[1:] {
		key, ok := byColumn[col]
		if !ok {
			key = col
		}
		keys[i+1] = key
	}

	out := make(map[string][]float64, len(keys)-1)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedDemand, line, err)
		}
		for i := 1; i < len(rec); i++ {
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", ErrMalformedDemand, line, header[i], err)
			}
			out[keys[i]] = append(out[keys[i]], v)
		}
	}
	return out, nil
}

// WriteDir writes every CSV file of the dataset into dir, creating it when
// needed. The forecast file is skipped when forecasts is empty.
func WriteDir(dir string, ds *dataset.Dataset, forecasts []model.DemandForecast) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := map[string]func(io.Writer) error{
		StationsFile:  func(w io.Writer) error { return WriteStations(w, ds.Stations) },
		RakesFile:     func(w io.Writer) error { return WriteRakes(w, ds.Rakes) },
		RoutesFile:    func(w io.Writer) error { return WriteRoutes(w, ds.Routes) },
		SchedulesFile: func(w io.Writer) error { return WriteSchedules(w, ds.Schedules) },
		HistoricalDemandFile: func(w io.Writer) error {
			return WriteHistoricalDemand(w, ds.HistoricalDemand, ds.Routes)
		},
	}
	if len(forecasts) > 0 {
		files[ForecastsFile] = func(w io.Writer) error { return WriteForecasts(w, forecasts, ds.Routes) }
	}
	for name, write := range files {
		if err := writeFile(filepath.Join(dir, name), write); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
