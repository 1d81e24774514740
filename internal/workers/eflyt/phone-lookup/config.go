package phonelookup

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	TaskType      string        `mapstructure:"task_type"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// DefaultMaxRecords applies when the job does not set maxRecords.
	DefaultMaxRecords int `mapstructure:"default_max_records"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:           true,
		TaskType:          TaskType,
		MaxJobsActive:     1,
		Timeout:           30 * time.Minute,
		DefaultMaxRecords: 100,
	}
}

func (c *Config) Validate() error {
	if c.TaskType == "" {
		return fmt.Errorf("task_type is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	// One eFlyt session at a time.
	if c.MaxJobsActive > 1 {
		return fmt.Errorf("max_jobs_active must be 1, got %d", c.MaxJobsActive)
	}
	if c.DefaultMaxRecords < 0 {
		return fmt.Errorf("default_max_records must not be negative")
	}
	return nil
}
