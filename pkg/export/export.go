// Package export writes the fleet, schedules and forecasts as the CSV files
// offered by the dashboard, and schedules as JSON.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/kilianp07/rakeplan/core/model"
	"github.com/kilianp07/rakeplan/dataset"
)

// File names used when exporting to a directory.
const (
	StationsFile         = "railway_stations.csv"
	RakesFile            = "railway_rakes.csv"
	RoutesFile           = "railway_routes.csv"
	SchedulesFile        = "railway_schedules.csv"
	ForecastsFile        = "demand_forecasts.csv"
	HistoricalDemandFile = "historical_demand_data.csv"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

type stationRow struct {
	ID         string  `csv:"Station_ID"`
	Name       string  `csv:"Station_Name"`
	Code       string  `csv:"Station_Code"`
	Lat        float64 `csv:"Latitude"`
	Lng        float64 `csv:"Longitude"`
	Capacity   int     `csv:"Capacity"`
	Facilities string  `csv:"Facilities"`
}

type rakeRow struct {
	ID              string  `csv:"Rake_ID"`
	Type            string  `csv:"Type"`
	Capacity        float64 `csv:"Capacity_Tons"`
	CurrentLocation string  `csv:"Current_Location"`
	Status          string  `csv:"Status"`
	LastMaintenance string  `csv:"Last_Maintenance"`
	NextMaintenance string  `csv:"Next_Maintenance"`
}

type routeRow struct {
	ID          string  `csv:"Route_ID"`
	Name        string  `csv:"Route_Name"`
	Origin      string  `csv:"Origin"`
	Destination string  `csv:"Destination"`
	Distance    float64 `csv:"Distance_KM"`
	TravelTime  float64 `csv:"Travel_Time_Hours"`
	Priority    string  `csv:"Priority"`
}

type scheduleRow struct {
	ID          string  `csv:"Schedule_ID"`
	RakeID      string  `csv:"Rake_ID"`
	RouteID     string  `csv:"Route_ID"`
	Departure   string  `csv:"Departure_Time"`
	Arrival     string  `csv:"Arrival_Time"`
	Status      string  `csv:"Status"`
	CargoType   string  `csv:"Cargo_Type"`
	CargoWeight float64 `csv:"Cargo_Weight_Tons"`
	CargoValue  float64 `csv:"Cargo_Value_USD"`
}

type forecastRow struct {
	RouteID    string `csv:"Route_ID"`
	RouteName  string `csv:"Route_Name"`
	Date       string `csv:"Date"`
	Demand     int    `csv:"Predicted_Demand"`
	Confidence int    `csv:"Confidence_Percent"`
	Factors    string `csv:"Factors"`
}

func stationRows(stations []model.Station) []stationRow {
	rows := make([]stationRow, 0, len(stations))
	for _, s := range stations {
		rows = append(rows, stationRow{
			ID: s.ID, Name: s.Name, Code: s.Code, Lat: s.Lat, Lng: s.Lng,
			Capacity: s.Capacity, Facilities: strings.Join(s.Facilities, ", "),
		})
	}
	return rows
}

func rakeRows(rakes []model.Rake) []rakeRow {
	rows := make([]rakeRow, 0, len(rakes))
	for _, r := range rakes {
		rows = append(rows, rakeRow{
			ID: r.ID, Type: string(r.Type), Capacity: r.CapacityTons, CurrentLocation: r.CurrentLocation,
			Status:          string(r.Status),
			LastMaintenance: r.LastMaintenance.Format(dateLayout),
			NextMaintenance: r.NextMaintenance.Format(dateLayout),
		})
	}
	return rows
}

func routeRows(routes []model.Route) []routeRow {
	rows := make([]routeRow, 0, len(routes))
	for _, r := range routes {
		rows = append(rows, routeRow{
			ID: r.ID, Name: r.Name, Origin: r.Origin, Destination: r.Destination,
			Distance: r.DistanceKm, TravelTime: r.TravelTimeHours, Priority: string(r.Priority),
		})
	}
	return rows
}

func scheduleRows(schedules []model.Schedule) []scheduleRow {
	rows := make([]scheduleRow, 0, len(schedules))
	for _, s := range schedules {
		row := scheduleRow{
			ID: s.ID, RakeID: s.RakeID, RouteID: s.RouteID,
			Departure: s.Departure.Format(dateTimeLayout),
			Arrival:   s.Arrival.Format(dateTimeLayout),
			Status:    string(s.Status),
			CargoType: "N/A",
		}
		if s.Cargo != nil {
			if s.Cargo.Type != "" {
				row.CargoType = s.Cargo.Type
			}
			row.CargoWeight = s.Cargo.WeightTons
			row.CargoValue = s.Cargo.Value
		}
		rows = append(rows, row)
	}
	return rows
}

func forecastRows(forecasts []model.DemandForecast, routes []model.Route) []forecastRow {
	names := make(map[string]string, len(routes))
	for _, r := range routes {
		names[r.ID] = r.Name
	}
	rows := make([]forecastRow, 0, len(forecasts))
	for _, f := range forecasts {
		name, ok := names[f.RouteID]
		if !ok {
			name = "Unknown"
		}
		rows = append(rows, forecastRow{
			RouteID: f.RouteID, RouteName: name, Date: f.Date.Format(dateLayout),
			Demand:     f.PredictedDemand,
			Confidence: int(math.Round(f.Confidence * 100)),
			Factors:    strings.Join(f.Factors, ", "),
		})
	}
	return rows
}

// writeRows encodes rows with their header. The header is written even when
// rows is empty.
func writeRows[T any](w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := enc.Encode(rows); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStations writes stations with the dashboard's station headers.
func WriteStations(w io.Writer, stations []model.Station) error {
	return writeRows(w, stationRows(stations))
}

// WriteRakes writes rakes; maintenance dates are formatted as days.
func WriteRakes(w io.Writer, rakes []model.Rake) error {
	return writeRows(w, rakeRows(rakes))
}

// WriteRoutes writes routes.
func WriteRoutes(w io.Writer, routes []model.Route) error {
	return writeRows(w, routeRows(routes))
}

// WriteSchedules writes schedules. Schedules without cargo are written with
// cargo type N/A and zero weight and value.
func WriteSchedules(w io.Writer, schedules []model.Schedule) error {
	return writeRows(w, scheduleRows(schedules))
}

// WriteForecasts writes forecasts with the route name looked up in routes
// and the confidence as a rounded percentage.
func WriteForecasts(w io.Writer, forecasts []model.DemandForecast, routes []model.Route) error {
	return writeRows(w, forecastRows(forecasts, routes))
}

var nonLetters = regexp.MustCompile(`[^a-zA-Z]`)

// DemandColumn returns the historical demand column header of a route,
// e.g. Route_001_Delhi_Mumbai_Express.
func DemandColumn(r model.Route) string {
	suffix := r.ID
	if parts := strings.Split(r.ID, "_"); len(parts) > 1 {
		suffix = parts[1]
	}
	return "Route_" + suffix + "_" + nonLetters.ReplaceAllString(r.Name, "_")
}

// WriteHistoricalDemand writes one row per day and one column per route.
// Days missing from a shorter series are written as 0.
func WriteHistoricalDemand(w io.Writer, demand map[string][]float64, routes []model.Route) error {
	cw := csv.NewWriter(w)
	header := []string{"Day"}
	days := 0
	for _, r := range routes {
		header = append(header, DemandColumn(r))
	}
	for _, s := range demand {
		days = max(days, len(s))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for day := 0; day < days; day++ {
		rec := []string{fmt.Sprint(day + 1)}
		for _, r := range routes {
			v := 0.0
			if s := demand[r.ID]; day < len(s) {
				v = s[day]
			}
			rec = append(rec, fmt.Sprint(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAll writes the complete dataset as one file with a section per
// entity. The forecast section is only written when forecasts are given.
func WriteAll(w io.Writer, ds *dataset.Dataset, forecasts []model.DemandForecast, generatedAt time.Time) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Railway Rake Forecasting and Scheduling System - Complete Dataset")
	fmt.Fprintf(bw, "# Generated on: %s\n\n", generatedAt.Format("2006-01-02 15:04:05"))

	type section struct {
		title string
		write func(io.Writer) error
	}
	sections := []section{
		{"STATIONS", func(w io.Writer) error { return WriteStations(w, ds.Stations) }},
		{"RAKES", func(w io.Writer) error { return WriteRakes(w, ds.Rakes) }},
		{"ROUTES", func(w io.Writer) error { return WriteRoutes(w, ds.Routes) }},
		{"SCHEDULES", func(w io.Writer) error { return WriteSchedules(w, ds.Schedules) }},
	}
	if len(forecasts) > 0 {
		sections = append(sections, section{"DEMAND FORECASTS", func(w io.Writer) error { return WriteForecasts(w, forecasts, ds.Routes) }})
	}
	for _, s := range sections {
		fmt.Fprintf(bw, "## %s\n", s.title)
		if err := s.write(bw); err != nil {
			return fmt.Errorf("write %s: %w", strings.ToLower(s.title), err)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
