package scheduler

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/rakeplan/core/model"
)

func TestDefaultConstraintsValid(t *testing.T) {
	cfg := DefaultConstraints()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3.0, cfg.Weight(model.PriorityHigh))
	assert.Equal(t, 2.0, cfg.Weight(model.PriorityMedium))
	assert.Equal(t, 1.0, cfg.Weight(model.PriorityLow))
	assert.Equal(t, 2.0, cfg.Weight("unknown"))
	assert.Equal(t, cfg, Constraints{}.WithDefaults())
}

func TestDecodeConfigYAMLKeepsDefaults(t *testing.T) {
	data := "demand_units_per_rake: 50\npriority_weights:\n  high: 5\n  medium: 3\n  low: 1\n"
	cfg, err := DecodeConfig(bytes.NewBufferString(data), "yaml")
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.DemandUnitsPerRake)
	assert.Equal(t, 5.0, cfg.PriorityWeights.High)
	assert.Equal(t, 168.0, cfg.MinMaintenanceIntervalHours)
	assert.Equal(t, 3, cfg.MaxReschedules)
}

func TestDecodeConfigJSON(t *testing.T) {
	cfg, err := DecodeConfig(bytes.NewBufferString(`{"conflict_window_hours":3,"max_reschedules":5}`), "json")
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.ConflictWindowHours)
	assert.Equal(t, 5, cfg.MaxReschedules)
}

func TestDecodeConfigEmptyYAML(t *testing.T) {
	cfg, err := DecodeConfig(bytes.NewBufferString(""), "yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConstraints(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "constraints.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"slot_horizon_hours":12}`), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.SlotHorizonHours)

	yml := filepath.Join(dir, "constraints.yml")
	require.NoError(t, os.WriteFile(yml, []byte("long_route_km: 800\n"), 0o644))
	cfg, err = LoadConfig(yml)
	require.NoError(t, err)
	assert.Equal(t, 800.0, cfg.LongRouteKm)

	_, err = LoadConfig(path + ".txt")
	assert.Error(t, err)
	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeConfig(bytes.NewBufferString("{}"), "toml")
	assert.Error(t, err)
	_, err = DecodeConfig(bytes.NewBufferString("max_reschedules: [1"), "yaml")
	assert.Error(t, err)
	_, err = DecodeConfig(bytes.NewBufferString("{"), "json")
	assert.Error(t, err)
}

func TestConstraintsValidate(t *testing.T) {
	cases := []func(*Constraints){
		func(c *Constraints) { c.MaxRakeUtilization = 1.5 },
		func(c *Constraints) { c.DemandUnitsPerRake = -1 },
		func(c *Constraints) { c.SlotStepHours = 48 },
		func(c *Constraints) { c.MaxReschedules = -1 },
		func(c *Constraints) { c.DefaultConfidence = 2 },
		func(c *Constraints) { c.ConflictWindowHours = -2 },
		func(c *Constraints) { c.RescheduleShiftHours = -4 },
		func(c *Constraints) { c.RescheduleNoticeHours = -1 },
		func(c *Constraints) { c.OnTimeToleranceMinutes = -5 },
	}
	for i, mut := range cases {
		c := DefaultConstraints()
		mut(&c)
		assert.Error(t, c.Validate(), "case %d", i)
	}
}

func TestZeroMaxReschedulesMeansDefault(t *testing.T) {
	c, err := DecodeConfig(strings.NewReader("max_reschedules: 0\nconflict_window_hours: 0\n"), "yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, c.MaxReschedules)
	assert.Equal(t, 2.0, c.ConflictWindowHours)

	c, err = DecodeConfig(strings.NewReader("reschedule_shift_hours: -4\n"), "yaml")
	require.NoError(t, err)
	assert.ErrorContains(t, c.Validate(), "reschedule_shift_hours")
}
