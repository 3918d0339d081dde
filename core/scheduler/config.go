package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rakeplan/core/model"
)

// PriorityWeights maps route priorities to their scoring weight.
type PriorityWeights struct {
	High   float64 `json:"high" yaml:"high"`
	Medium float64 `json:"medium" yaml:"medium"`
	Low    float64 `json:"low" yaml:"low"`
}

// Constraints are the tuning parameters of the scheduler. Durations are
// expressed in hours so that JSON, YAML and environment overrides decode the
// same way. A zero field means "use the default" (see WithDefaults); zero
// cannot be used to switch a mechanism off.
type Constraints struct {
	MaxRakeUtilization          float64         `json:"max_rake_utilization" yaml:"max_rake_utilization"`
	MinMaintenanceIntervalHours float64         `json:"min_maintenance_interval_hours" yaml:"min_maintenance_interval_hours"`
	MaxContinuousOperationHours float64         `json:"max_continuous_operation_hours" yaml:"max_continuous_operation_hours"`
	PriorityWeights             PriorityWeights `json:"priority_weights" yaml:"priority_weights"`

	// DemandUnitsPerRake is the demand one rake is assumed to absorb.
	DemandUnitsPerRake float64 `json:"demand_units_per_rake" yaml:"demand_units_per_rake"`
	// ConflictWindowHours is the distance under which two departures compete.
	ConflictWindowHours float64 `json:"conflict_window_hours" yaml:"conflict_window_hours"`
	// SlotHorizonHours and SlotStepHours bound the departure slot search.
	SlotHorizonHours float64 `json:"slot_horizon_hours" yaml:"slot_horizon_hours"`
	SlotStepHours    float64 `json:"slot_step_hours" yaml:"slot_step_hours"`

	RescheduleShiftHours  float64 `json:"reschedule_shift_hours" yaml:"reschedule_shift_hours"`
	// MaxReschedules caps the schedules shifted per reschedule. 0 selects
	// the default of 3.
	MaxReschedules        int     `json:"max_reschedules" yaml:"max_reschedules"`
	RescheduleNoticeHours float64 `json:"reschedule_notice_hours" yaml:"reschedule_notice_hours"`

	MaintenanceDurationHours float64 `json:"maintenance_duration_hours" yaml:"maintenance_duration_hours"`

	LongRouteKm          float64 `json:"long_route_km" yaml:"long_route_km"`
	LongRouteMinCapacity float64 `json:"long_route_min_capacity" yaml:"long_route_min_capacity"`
	MinCapacity          float64 `json:"min_capacity" yaml:"min_capacity"`

	CargoWeightPerUnit float64 `json:"cargo_weight_per_unit" yaml:"cargo_weight_per_unit"`
	CargoValuePerUnit  float64 `json:"cargo_value_per_unit" yaml:"cargo_value_per_unit"`

	// DefaultConfidence is used for routes without a forecast.
	DefaultConfidence float64 `json:"default_confidence" yaml:"default_confidence"`

	// OnTimeToleranceMinutes is the lateness still counted as on time.
	OnTimeToleranceMinutes float64 `json:"on_time_tolerance_minutes" yaml:"on_time_tolerance_minutes"`
}

// DefaultConstraints returns the reference tuning.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxRakeUtilization:          0.85,
		MinMaintenanceIntervalHours: 168,
		MaxContinuousOperationHours: 72,
		PriorityWeights:             PriorityWeights{High: 3, Medium: 2, Low: 1},
		DemandUnitsPerRake:          100,
		ConflictWindowHours:         2,
		SlotHorizonHours:            24,
		SlotStepHours:               1,
		RescheduleShiftHours:        4,
		MaxReschedules:              3,
		RescheduleNoticeHours:       2,
		MaintenanceDurationHours:    24,
		LongRouteKm:                 500,
		LongRouteMinCapacity:        200,
		MinCapacity:                 100,
		CargoWeightPerUnit:          10,
		CargoValuePerUnit:           1000,
		DefaultConfidence:           0.5,
	}
}

// WithDefaults returns c with every zero field taken from DefaultConstraints.
// An explicit 0 in a file or an environment override is therefore the same
// as leaving the field out.
func (c Constraints) WithDefaults() Constraints {
	d := DefaultConstraints()
	setF := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	setF(&c.MaxRakeUtilization, d.MaxRakeUtilization)
	setF(&c.MinMaintenanceIntervalHours, d.MinMaintenanceIntervalHours)
	setF(&c.MaxContinuousOperationHours, d.MaxContinuousOperationHours)
	if c.PriorityWeights == (PriorityWeights{}) {
		c.PriorityWeights = d.PriorityWeights
	}
	setF(&c.DemandUnitsPerRake, d.DemandUnitsPerRake)
	setF(&c.ConflictWindowHours, d.ConflictWindowHours)
	setF(&c.SlotHorizonHours, d.SlotHorizonHours)
	setF(&c.SlotStepHours, d.SlotStepHours)
	setF(&c.RescheduleShiftHours, d.RescheduleShiftHours)
	if c.MaxReschedules == 0 {
		c.MaxReschedules = d.MaxReschedules
	}
	setF(&c.RescheduleNoticeHours, d.RescheduleNoticeHours)
	setF(&c.MaintenanceDurationHours, d.MaintenanceDurationHours)
	setF(&c.LongRouteKm, d.LongRouteKm)
	setF(&c.LongRouteMinCapacity, d.LongRouteMinCapacity)
	setF(&c.MinCapacity, d.MinCapacity)
	setF(&c.CargoWeightPerUnit, d.CargoWeightPerUnit)
	setF(&c.CargoValuePerUnit, d.CargoValuePerUnit)
	setF(&c.DefaultConfidence, d.DefaultConfidence)
	return c
}

// Validate rejects settings that would stall or invert the heuristic.
func (c Constraints) Validate() error {
	if c.MaxRakeUtilization <= 0 || c.MaxRakeUtilization > 1 {
		return fmt.Errorf("max_rake_utilization must be in (0,1]")
	}
	if c.MinMaintenanceIntervalHours <= 0 {
		return fmt.Errorf("min_maintenance_interval_hours must be positive")
	}
	if c.DemandUnitsPerRake <= 0 {
		return fmt.Errorf("demand_units_per_rake must be positive")
	}
	if c.SlotStepHours <= 0 || c.SlotHorizonHours < c.SlotStepHours {
		return fmt.Errorf("slot_step_hours must be positive and not exceed slot_horizon_hours")
	}
	if c.MaxReschedules < 0 {
		return fmt.Errorf("max_reschedules must not be negative")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"max_continuous_operation_hours", c.MaxContinuousOperationHours},
		{"conflict_window_hours", c.ConflictWindowHours},
		{"reschedule_shift_hours", c.RescheduleShiftHours},
		{"reschedule_notice_hours", c.RescheduleNoticeHours},
		{"maintenance_duration_hours", c.MaintenanceDurationHours},
		{"long_route_km", c.LongRouteKm},
		{"long_route_min_capacity", c.LongRouteMinCapacity},
		{"min_capacity", c.MinCapacity},
		{"cargo_weight_per_unit", c.CargoWeightPerUnit},
		{"cargo_value_per_unit", c.CargoValuePerUnit},
		{"on_time_tolerance_minutes", c.OnTimeToleranceMinutes},
	} {
		if f.v < 0 {
			return fmt.Errorf("%s must not be negative", f.name)
		}
	}
	if c.DefaultConfidence < 0 || c.DefaultConfidence > 1 {
		return fmt.Errorf("default_confidence must be in [0,1]")
	}
	return nil
}

// Weight returns the weight of priority p. Unknown priorities weigh as medium.
func (c Constraints) Weight(p model.Priority) float64 {
	switch p {
	case model.PriorityHigh:
		return c.PriorityWeights.High
	case model.PriorityLow:
		return c.PriorityWeights.Low
	default:
		return c.PriorityWeights.Medium
	}
}

func (c Constraints) conflictWindow() time.Duration  { return hours(c.ConflictWindowHours) }
func (c Constraints) slotHorizon() time.Duration     { return hours(c.SlotHorizonHours) }
func (c Constraints) rescheduleShift() time.Duration { return hours(c.RescheduleShiftHours) }
func (c Constraints) rescheduleNotice() time.Duration {
	return hours(c.RescheduleNoticeHours)
}
func (c Constraints) maintenanceDuration() time.Duration {
	return hours(c.MaintenanceDurationHours)
}

func (c Constraints) slotStep() time.Duration {
	if c.SlotStepHours <= 0 {
		return time.Hour
	}
	return hours(c.SlotStepHours)
}

func hours(h float64) time.Duration { return time.Duration(h * float64(time.Hour)) }

// LoadConfig loads Constraints from a JSON or YAML file. Missing fields keep
// their default value.
func LoadConfig(path string) (Constraints, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "yaml", "yml", "json":
	default:
		return Constraints{}, fmt.Errorf("unsupported config format: .%s", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return Constraints{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodeConfig(f, ext)
}

// DecodeConfig reads Constraints from r in the given format.
func DecodeConfig(r io.Reader, format string) (Constraints, error) {
	var cfg Constraints
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
			return cfg, fmt.Errorf("decode yaml constraints: %w", err)
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode json constraints: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	return cfg.WithDefaults(), nil
}
