package planlog

import "fmt"

// Config defines settings for plan log storage and rotation.
type Config struct {
	// Backend selects the store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend" yaml:"backend"`
	// Path is the file location of the store.
	Path string `json:"path" yaml:"path"`
	// MaxSizeMB enables rotation of the jsonl backend when positive.
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups" yaml:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" && c.Backend != "none" {
		if c.Backend == "sqlite" {
			c.Path = "planlog.db"
		} else {
			c.Path = "planlog.jsonl"
		}
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("planlog: path is required")
		}
	case "none":
	default:
		return fmt.Errorf("planlog: unknown backend %s", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("planlog: rotation settings must not be negative")
	}
	return nil
}

// NewStore opens the store selected by cfg. The "none" backend returns a
// nil Store.
func NewStore(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case "sqlite":
		store, err = NewSQLiteStore(cfg.Path)
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			store, err = NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		} else {
			store, err = NewJSONLStore(cfg.Path)
		}
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s plan log: %w", cfg.Backend, err)
	}
	return store, nil
}
