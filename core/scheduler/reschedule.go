package scheduler

import (
	"sort"

	"github.com/kilianp07/rakeplan/core/model"
)

// RescheduleResult holds the schedule list after shifting and how many
// schedules moved.
type RescheduleResult struct {
	Updated     []model.Schedule `json:"updatedSchedules"`
	Rescheduled int              `json:"rescheduledCount"`
}

// RescheduleForPriority frees capacity for priorityRoute by pushing back up
// to MaxReschedules low priority schedules by RescheduleShiftHours.
//
// Candidates are schedules still in the scheduled state departing more than
// RescheduleNoticeHours from now. They are tried in ascending order of their
// route's priority weight, looked up in routes; schedules whose route is not
// found weigh as medium, so without a lookup the input order is kept. A
// shift is applied only if no other schedule of the same rake overlaps the
// shifted window. existing is not modified.
func (s *Scheduler) RescheduleForPriority(cfg Constraints, existing []model.Schedule, priorityRoute model.Route, routes []model.Route) RescheduleResult {
	updated := model.CloneSchedules(existing)
	notBefore := s.now().Add(cfg.rescheduleNotice())

	priorities := make(map[string]model.Priority, len(routes))
	for _, r := range routes {
		priorities[r.ID] = r.Priority
	}
	weight := func(sch model.Schedule) float64 {
		p, ok := priorities[sch.RouteID]
		if !ok {
			p = model.PriorityMedium
		}
		return cfg.Weight(p)
	}

	var candidates []int
	for i, sch := range updated {
		if sch.Status == model.ScheduleScheduled && sch.Departure.After(notBefore) {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return weight(updated[candidates[a]]) < weight(updated[candidates[b]])
	})

	shift := cfg.rescheduleShift()
	moved := 0
	for _, idx := range candidates {
		if moved >= cfg.MaxReschedules {
			break
		}
		sch := updated[idx]
		shifted := model.TimeWindow{Start: sch.Departure.Add(shift), End: sch.Arrival.Add(shift)}
		if conflictsWithRake(updated, idx, shifted) {
			continue
		}
		updated[idx].Departure = shifted.Start
		updated[idx].Arrival = shifted.End
		moved++
		s.log().Debugw("schedule shifted", map[string]any{
			"schedule_id": sch.ID, "rake_id": sch.RakeID, "for_route": priorityRoute.ID,
		})
	}
	return RescheduleResult{Updated: updated, Rescheduled: moved}
}

func conflictsWithRake(schedules []model.Schedule, idx int, w model.TimeWindow) bool {
	self := schedules[idx]
	for i, other := range schedules {
		if i == idx || other.ID == self.ID || other.RakeID != self.RakeID {
			continue
		}
		if w.Overlaps(other.Window()) {
			return true
		}
	}
	return false
}
