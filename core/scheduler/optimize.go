package scheduler

import (
	"math"
	"sort"
	"time"

	"github.com/kilianp07/rakeplan/core/model"
)

// CargoTypeGeneral is the cargo type of schedules created by the optimizer.
const CargoTypeGeneral = "general"

// routeDemand pairs a route with the forecast it is planned against.
type routeDemand struct {
	route    model.Route
	forecast model.DemandForecast
	priority float64
}

// rankRoutes pairs every route with its first matching forecast, or a
// zero-demand default, and orders them by descending priority. Ties keep the
// input order.
func rankRoutes(cfg Constraints, routes []model.Route, forecasts []model.DemandForecast, start time.Time) []routeDemand {
	pairs := make([]routeDemand, 0, len(routes))
	for _, r := range routes {
		f, ok := firstForecast(forecasts, r.ID)
		if !ok {
			f = model.DemandForecast{RouteID: r.ID, Date: start, Confidence: cfg.DefaultConfidence, Factors: []string{}}
		}
		pairs = append(pairs, routeDemand{route: r, forecast: f, priority: RoutePriority(cfg, r, f)})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].priority > pairs[j].priority })
	return pairs
}

func firstForecast(forecasts []model.DemandForecast, routeID string) (model.DemandForecast, bool) {
	for _, f := range forecasts {
		if f.RouteID == routeID {
			return f, true
		}
	}
	return model.DemandForecast{}, false
}

// RequiredRakes returns how many rakes a demand calls for.
func RequiredRakes(cfg Constraints, demand int) int {
	if demand <= 0 || cfg.DemandUnitsPerRake <= 0 {
		return 0
	}
	return int(math.Ceil(float64(demand) / cfg.DemandUnitsPerRake))
}

// OptimizeSchedule assigns rakes to routes for period and returns the new
// schedules only; merging them with existing is up to the caller.
//
// Routes are served in priority order. For each route the rake pool is
// scanned in its given order and every suitable, available rake is assigned
// until the required count is met. The pool is never reduced: a rake already
// assigned in this run stays a candidate and is only rejected by the overlap
// check, so it may serve several non-overlapping runs.
func (s *Scheduler) OptimizeSchedule(cfg Constraints, rakes []model.Rake, routes []model.Route, forecasts []model.DemandForecast, existing []model.Schedule, period model.TimeWindow) []model.Schedule {
	log := s.log()
	var created []model.Schedule

	for _, p := range rankRoutes(cfg, routes, forecasts, period.Start) {
		demand := p.forecast.PredictedDemand
		if demand <= 0 {
			log.Debugw("route skipped: no demand", map[string]any{"route_id": p.route.ID})
			continue
		}
		required := RequiredRakes(cfg, demand)
		departure := OptimalDeparture(cfg, period.Start, existing)
		window := model.TimeWindow{Start: departure, End: departure.Add(p.route.TravelTime())}

		assigned := 0
		for i := 0; i < len(rakes) && assigned < required; i++ {
			rake := rakes[i]
			if !IsRakeSuitable(cfg, rake, p.route) {
				continue
			}
			booked := make([]model.Schedule, 0, len(existing)+len(created))
			booked = append(booked, existing...)
			booked = append(booked, created...)
			if av := s.RakeAvailability(cfg, rake, booked, window); !av.Available {
				log.Debugw("rake unavailable", map[string]any{
					"route_id": p.route.ID, "rake_id": rake.ID, "reason": av.Reason,
				})
				continue
			}
			created = append(created, model.Schedule{
				ID:        s.newID(),
				RakeID:    rake.ID,
				RouteID:   p.route.ID,
				Departure: window.Start,
				Arrival:   window.End,
				Status:    model.ScheduleScheduled,
				Cargo: &model.Cargo{
					Type:       CargoTypeGeneral,
					WeightTons: math.Min(rake.CapacityTons, float64(demand)*cfg.CargoWeightPerUnit),
					Value:      float64(demand) * cfg.CargoValuePerUnit,
				},
			})
			assigned++
		}
		if assigned < required {
			log.Infof("route %s: assigned %d of %d required rakes", p.route.ID, assigned, required)
		}
	}
	return created
}

// OptimalDeparture scans slots of SlotStepHours from earliest up to
// SlotHorizonHours later and returns the one with the fewest existing
// departures closer than ConflictWindowHours. The earliest slot wins ties.
// The choice does not depend on the route being planned.
func OptimalDeparture(cfg Constraints, earliest time.Time, existing []model.Schedule) time.Time {
	step := cfg.slotStep()
	end := earliest.Add(cfg.slotHorizon())
	window := cfg.conflictWindow()

	best := earliest
	bestConflicts := -1
	for slot := earliest; slot.Before(end); slot = slot.Add(step) {
		conflicts := 0
		for _, sch := range existing {
			d := sch.Departure.Sub(slot)
			if d < 0 {
				d = -d
			}
			if d < window {
				conflicts++
			}
		}
		if bestConflicts < 0 || conflicts < bestConflicts {
			best, bestConflicts = slot, conflicts
		}
	}
	return best
}
