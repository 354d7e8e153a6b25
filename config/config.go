package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete process configuration.
type Config struct {
	Session  SessionConfig  `json:"session" yaml:"session"`
	Sequence SequenceConfig `json:"sequence" yaml:"sequence"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Driver   DriverConfig   `json:"driver" yaml:"driver"`
}

// SessionConfig identifies the FIX session and its reset policy.
type SessionConfig struct {
	BeginString  string `json:"begin_string" yaml:"begin_string"`
	SenderCompID string `json:"sender_comp_id" yaml:"sender_comp_id"`
	TargetCompID string `json:"target_comp_id" yaml:"target_comp_id"`
	// ResetTimeZone is the fixed zone whose midnight boundary drives the
	// daily sequence reset, e.g. "Asia/Singapore".
	ResetTimeZone string `json:"reset_time_zone" yaml:"reset_time_zone"`
	// SettingsFile is the FIX engine's own settings file (initiator
	// sessions, heartbeats, store paths).
	SettingsFile string `json:"settings_file,omitempty" yaml:"settings_file,omitempty"`
}

// SequenceConfig locates the durable sequence record.
type SequenceConfig struct {
	File string `json:"file" yaml:"file"`
}

// JournalConfig selects where fills are recorded.
type JournalConfig struct {
	Type      string `json:"type" yaml:"type"` // "csv" or "sqlite"
	FillsFile string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	StatsFile string `json:"stats_file,omitempty" yaml:"stats_file,omitempty"`
	DBPath    string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// DriverConfig parameterizes the random order generator.
type DriverConfig struct {
	Symbols           []string `json:"symbols" yaml:"symbols"`
	Orders            int      `json:"orders" yaml:"orders"`
	Interval          string   `json:"interval" yaml:"interval"` // e.g. "300ms"
	CancelProbability float64  `json:"cancel_probability" yaml:"cancel_probability"`
}

// ParseInterval converts the driver interval to a time.Duration.
func (d DriverConfig) ParseInterval() (time.Duration, error) {
	if d.Interval == "" {
		return 0, nil
	}
	return time.ParseDuration(d.Interval)
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Session.SenderCompID == "" {
		return fmt.Errorf("session.sender_comp_id is required")
	}
	if c.Session.TargetCompID == "" {
		return fmt.Errorf("session.target_comp_id is required")
	}
	if c.Session.ResetTimeZone != "" {
		if _, err := time.LoadLocation(c.Session.ResetTimeZone); err != nil {
			return fmt.Errorf("session.reset_time_zone: %w", err)
		}
	}
	if c.Sequence.File == "" {
		return fmt.Errorf("sequence.file is required")
	}
	if c.Journal.Type != "" && c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.FillsFile == "" || c.Journal.StatsFile == "") {
		return fmt.Errorf("journal fills_file and stats_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	if len(c.Driver.Symbols) == 0 {
		return fmt.Errorf("driver.symbols must not be empty")
	}
	if c.Driver.Orders <= 0 {
		return fmt.Errorf("driver.orders must be positive")
	}
	if _, err := c.Driver.ParseInterval(); err != nil {
		return fmt.Errorf("driver.interval: %w", err)
	}
	if c.Driver.CancelProbability < 0 || c.Driver.CancelProbability > 1 {
		return fmt.Errorf("driver.cancel_probability must be between 0 and 1")
	}
	return nil
}

// ResetLocation resolves the configured reset zone, defaulting to UTC.
func (c *Config) ResetLocation() *time.Location {
	if c.Session.ResetTimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Session.ResetTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			BeginString:   "FIX.4.2",
			SenderCompID:  "OPS_CANDIDATE_3_8639",
			TargetCompID:  "DTL",
			ResetTimeZone: "Asia/Singapore",
		},
		Sequence: SequenceConfig{
			File: "sequence.txt",
		},
		Journal: JournalConfig{
			Type:      "csv",
			FillsFile: "./fills.csv",
			StatsFile: "./stats.csv",
		},
		Driver: DriverConfig{
			Symbols:           []string{"MSFT", "AAPL", "BAC"},
			Orders:            1000,
			Interval:          "300ms",
			CancelProbability: 0.1,
		},
	}
}
