// Package scenarios replays planning scenarios described in YAML against the
// application service and checks the outcome.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/rakeplan/dataset"
)

// Expected describes the outcome a scenario must reach.
type Expected struct {
	Created         int            `yaml:"created"`
	Assignments     map[string]int `yaml:"assignments,omitempty"`
	PublishFailures int            `yaml:"publish_failures"`
	Rescheduled     int            `yaml:"rescheduled"`
	Utilization     float64        `yaml:"utilization"`
	OverUtilized    bool           `yaml:"over_utilized"`
}

// Scenario is a fleet, a fixed demand per route and the operations to run:
// one plan over the week following Now, then a reschedule per listed route.
type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Now         time.Time       `yaml:"now"`
	Fleet       dataset.Dataset `yaml:"fleet"`
	Demand      map[string]int  `yaml:"demand"`
	FailRakes   []string        `yaml:"fail_rakes,omitempty"`
	Reschedule  []string        `yaml:"reschedule,omitempty"`
	Expected    Expected        `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	if sc.Now.IsZero() {
		return nil, fmt.Errorf("%s: now is required", path)
	}
	if err := sc.Fleet.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}
