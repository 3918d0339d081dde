package dataset

import (
	"time"

	"github.com/kilianp07/rakeplan/core/model"
)

// Demo returns the reference fleet: five stations, eight rakes, six routes,
// four schedules and thirty days of demand per route. Maintenance dates and
// schedules are placed relative to now.
func Demo(now time.Time) *Dataset {
	day := 24 * time.Hour
	h := func(n float64) time.Time { return now.Add(time.Duration(n * float64(time.Hour))) }
	d := func(n int) time.Time { return now.Add(time.Duration(n) * day) }

	return &Dataset{
		Stations: []model.Station{
			{ID: "stn_001", Name: "New Delhi Railway Station", Code: "NDLS", Lat: 28.6428, Lng: 77.2197, Capacity: 16, Facilities: []string{"Maintenance", "Refueling", "Loading"}},
			{ID: "stn_002", Name: "Mumbai Central", Code: "BCT", Lat: 18.9690, Lng: 72.8205, Capacity: 12, Facilities: []string{"Maintenance", "Loading", "Passenger"}},
			{ID: "stn_003", Name: "Chennai Central", Code: "MAS", Lat: 13.0827, Lng: 80.2707, Capacity: 10, Facilities: []string{"Refueling", "Loading"}},
			{ID: "stn_004", Name: "Kolkata Howrah", Code: "HWH", Lat: 22.5726, Lng: 88.3639, Capacity: 14, Facilities: []string{"Maintenance", "Refueling", "Loading", "Passenger"}},
			{ID: "stn_005", Name: "Bangalore City", Code: "SBC", Lat: 12.9716, Lng: 77.5946, Capacity: 8, Facilities: []string{"Loading", "Passenger"}},
		},
		Rakes: []model.Rake{
			{ID: "rake_001", Type: model.RakeFreight, CapacityTons: 500, CurrentLocation: "NDLS", Status: model.RakeAvailable, LastMaintenance: d(-5), NextMaintenance: d(2)},
			{ID: "rake_002", Type: model.RakePassenger, CapacityTons: 300, CurrentLocation: "BCT", Status: model.RakeInTransit, LastMaintenance: d(-3), NextMaintenance: d(4)},
			{ID: "rake_003", Type: model.RakeExpress, CapacityTons: 400, CurrentLocation: "MAS", Status: model.RakeAvailable, LastMaintenance: d(-1), NextMaintenance: d(6)},
			{ID: "rake_004", Type: model.RakeFreight, CapacityTons: 600, CurrentLocation: "HWH", Status: model.RakeLoading, LastMaintenance: d(-7), NextMaintenance: d(0)},
			{ID: "rake_005", Type: model.RakePassenger, CapacityTons: 350, CurrentLocation: "SBC", Status: model.RakeAvailable, LastMaintenance: d(-2), NextMaintenance: d(5)},
			{ID: "rake_006", Type: model.RakeExpress, CapacityTons: 450, CurrentLocation: "NDLS", Status: model.RakeMaintenance, LastMaintenance: now, NextMaintenance: h(6)},
			{ID: "rake_007", Type: model.RakeFreight, CapacityTons: 550, CurrentLocation: "BCT", Status: model.RakeAvailable, LastMaintenance: d(-4), NextMaintenance: d(3)},
			{ID: "rake_008", Type: model.RakePassenger, CapacityTons: 320, CurrentLocation: "MAS", Status: model.RakeUnloading, LastMaintenance: d(-6), NextMaintenance: d(1)},
		},
		Routes: []model.Route{
			{ID: "route_001", Name: "Delhi-Mumbai Express", Origin: "NDLS", Destination: "BCT", DistanceKm: 1384, TravelTimeHours: 16, Priority: model.PriorityHigh},
			{ID: "route_002", Name: "Mumbai-Chennai Freight", Origin: "BCT", Destination: "MAS", DistanceKm: 1279, TravelTimeHours: 20, Priority: model.PriorityMedium},
			{ID: "route_003", Name: "Chennai-Kolkata Express", Origin: "MAS", Destination: "HWH", DistanceKm: 1663, TravelTimeHours: 24, Priority: model.PriorityHigh},
			{ID: "route_004", Name: "Kolkata-Bangalore Passenger", Origin: "HWH", Destination: "SBC", DistanceKm: 1871, TravelTimeHours: 28, Priority: model.PriorityLow},
			{ID: "route_005", Name: "Bangalore-Delhi Circuit", Origin: "SBC", Destination: "NDLS", DistanceKm: 2146, TravelTimeHours: 32, Priority: model.PriorityMedium},
			{ID: "route_006", Name: "Delhi-Chennai Direct", Origin: "NDLS", Destination: "MAS", DistanceKm: 2180, TravelTimeHours: 30, Priority: model.PriorityHigh},
		},
		Schedules: []model.Schedule{
			{ID: "schedule_001", RakeID: "rake_002", RouteID: "route_001", Departure: h(2), Arrival: h(18), Status: model.ScheduleScheduled,
				Cargo: &model.Cargo{Type: "passengers", WeightTons: 250, Value: 125000}},
			{ID: "schedule_002", RakeID: "rake_004", RouteID: "route_002", Departure: h(6), Arrival: h(26), Status: model.ScheduleInProgress,
				Cargo: &model.Cargo{Type: "coal", WeightTons: 480, Value: 240000}},
			{ID: "schedule_003", RakeID: "rake_003", RouteID: "route_003", Departure: h(12), Arrival: h(36), Status: model.ScheduleScheduled,
				Cargo: &model.Cargo{Type: "express_cargo", WeightTons: 320, Value: 480000}},
			{ID: "schedule_004", RakeID: "rake_001", RouteID: "route_005", Departure: h(-4), Arrival: h(28), Status: model.ScheduleCompleted,
				Cargo: &model.Cargo{Type: "steel", WeightTons: 450, Value: 675000}},
		},
		HistoricalDemand: map[string][]float64{
			"route_001": {85, 92, 78, 95, 88, 102, 96, 89, 94, 87, 99, 91, 86, 98, 93, 88, 97, 84, 90, 95, 89, 92, 87, 94, 91, 96, 88, 93, 89, 97},
			"route_002": {65, 72, 58, 75, 68, 82, 76, 69, 74, 67, 79, 71, 66, 78, 73, 68, 77, 64, 70, 75, 69, 72, 67, 74, 71, 76, 68, 73, 69, 77},
			"route_003": {95, 102, 88, 105, 98, 112, 106, 99, 104, 97, 109, 101, 96, 108, 103, 98, 107, 94, 100, 105, 99, 102, 97, 104, 101, 106, 98, 103, 99, 107},
			"route_004": {45, 52, 38, 55, 48, 62, 56, 49, 54, 47, 59, 51, 46, 58, 53, 48, 57, 44, 50, 55, 49, 52, 47, 54, 51, 56, 48, 53, 49, 57},
			"route_005": {75, 82, 68, 85, 78, 92, 86, 79, 84, 77, 89, 81, 76, 88, 83, 78, 87, 74, 80, 85, 79, 82, 77, 84, 81, 86, 78, 83, 79, 87},
			"route_006": {105, 112, 98, 115, 108, 122, 116, 109, 114, 107, 119, 111, 106, 118, 113, 108, 117, 104, 110, 115, 109, 112, 107, 114, 111, 116, 108, 113, 109, 117},
		},
	}
}
