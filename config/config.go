// Package config loads the rakeplan configuration file with optional
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/rakeplan/auth"
	"github.com/kilianp07/rakeplan/core/factory"
	"github.com/kilianp07/rakeplan/core/metrics"
	"github.com/kilianp07/rakeplan/core/monitoring"
	"github.com/kilianp07/rakeplan/core/planlog"
	"github.com/kilianp07/rakeplan/core/prediction"
	"github.com/kilianp07/rakeplan/core/scheduler"
	"github.com/kilianp07/rakeplan/dataset"
	"github.com/kilianp07/rakeplan/infra/mqtt"
)

// EnvPrefix marks environment overrides. K_SCHEDULING__MAX_RESCHEDULES=5
// overrides scheduling.max_reschedules.
const EnvPrefix = "K_"

type Config struct {
	LogLevel   string                `json:"log_level"`
	Dataset    DatasetConfig         `json:"dataset"`
	Scheduling scheduler.Constraints `json:"scheduling"`
	Forecast   prediction.Config     `json:"forecast"`
	// ForecastEngine selects a registered engine. The default "weighted"
	// engine is tuned by the forecast section.
	ForecastEngine factory.ModuleConfig `json:"forecast_engine"`
	Metrics        metrics.Config       `json:"metrics"`
	PlanLog        planlog.Config       `json:"planlog"`
	MQTT           mqtt.Config          `json:"mqtt"`
	API            APIConfig            `json:"api"`
	Sentry         monitoring.Config    `json:"sentry"`
}

// DatasetConfig points at the fleet file or endpoint. Without either the
// demo fleet is used.
type DatasetConfig struct {
	Path string `json:"path"`
	// URL downloads the dataset instead, authenticated with Auth when its
	// credentials are set.
	URL  string    `json:"url"`
	Auth auth.Conf `json:"auth"`
	// HistoryCSV replaces the demand history of the routes it lists with
	// the columns of a historical_demand_data.csv export.
	HistoryCSV string   `json:"history_csv"`
	Factors    []string `json:"factors"`
}

func (c DatasetConfig) Validate() error {
	if c.Path != "" && c.URL != "" {
		return fmt.Errorf("dataset: path and url are mutually exclusive")
	}
	return nil
}

// APIConfig configures the HTTP server started by `rakeplan serve`.
type APIConfig struct {
	Addr string `json:"addr"`
}

func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.Dataset.Factors) == 0 {
		c.Dataset.Factors = append([]string(nil), dataset.DefaultFactors...)
	}
	if c.ForecastEngine.Type == "" {
		c.ForecastEngine.Type = "weighted"
	}
	c.Scheduling = c.Scheduling.WithDefaults()
	c.Forecast.SetDefaults()
	c.PlanLog.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section and joins their errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Dataset.Validate(),
		c.Scheduling.Validate(),
		c.Metrics.Validate(),
		c.Forecast.Validate(),
		c.PlanLog.Validate(),
		c.MQTT.Validate(),
		c.Sentry.Validate(),
	)
}

// Load reads path (YAML or JSON) then applies K_ prefixed environment
// overrides. An empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
