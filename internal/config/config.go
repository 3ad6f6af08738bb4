package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pable/go-cup-rating/internal/aggregator"
	"github.com/pable/go-cup-rating/internal/model"
	"github.com/pable/go-cup-rating/internal/points"
)

// Config holds process settings for the cuprating CLI.
type Config struct {
	DBPath                string         `yaml:"db_path"`
	LogLevel              string         `yaml:"log_level"`
	MissingPositionPolicy string         `yaml:"missing_position_policy"`
	Schedule              ScheduleConfig `yaml:"schedule"`
	Defaults              DefaultsConfig `yaml:"defaults"`
}

// ScheduleConfig maps rounds onto finishing positions.
type ScheduleConfig struct {
	CupBOffset             int `yaml:"cup_b_offset"`
	QualifyingHighPosition int `yaml:"qualifying_high_position"`
	QualifyingLowPosition  int `yaml:"qualifying_low_position"`
}

// DefaultsConfig seeds the admin rating settings when the database has none.
type DefaultsConfig struct {
	BestResultsCount int         `yaml:"best_results_count"`
	PositionPoints   map[int]int `yaml:"position_points"`
}

// Default returns the built-in configuration.
func Default() *Config {
	s := points.DefaultSchedule()
	return &Config{
		DBPath:                filepath.Join(userHome(), ".cuprating", "rating.db"),
		LogLevel:              "info",
		MissingPositionPolicy: "reject",
		Schedule: ScheduleConfig{
			CupBOffset:             s.CupBOffset,
			QualifyingHighPosition: s.QualifyingHighPosition,
			QualifyingLowPosition:  s.QualifyingLowPosition,
		},
		Defaults: DefaultsConfig{
			BestResultsCount: model.DefaultBestResultsCount,
			PositionPoints: map[int]int{
				1: 100, 2: 90, 3: 80, 4: 70, 5: 60,
				9: 50, 10: 45, 11: 40, 12: 35, 13: 30,
				17: 20, 25: 10,
			},
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			// yaml.v3 merges into non-nil maps; a table in the file replaces the default one.
			seed := cfg.Defaults.PositionPoints
			cfg.Defaults.PositionPoints = nil
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
			if cfg.Defaults.PositionPoints == nil {
				cfg.Defaults.PositionPoints = seed
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	_ = godotenv.Load()

	if v := os.Getenv("CUPRATING_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CUPRATING_MISSING_POLICY"); v != "" {
		cfg.MissingPositionPolicy = v
	}
	if v := os.Getenv("CUPRATING_CUP_B_OFFSET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("CUPRATING_CUP_B_OFFSET: %w", err)
		}
		cfg.Schedule.CupBOffset = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that feed the rating engine.
func (c *Config) Validate() error {
	if _, err := points.ParseMissingPolicy(c.MissingPositionPolicy); err != nil {
		return err
	}
	if err := aggregator.ValidateConfig(model.RatingConfig{
		BestResultsCount: c.Defaults.BestResultsCount,
		PositionPoints:   c.Defaults.PositionPoints,
	}); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if c.Schedule.CupBOffset < 0 {
		return fmt.Errorf("schedule: cup_b_offset must not be negative, got %d", c.Schedule.CupBOffset)
	}
	if c.Schedule.QualifyingHighPosition <= 0 || c.Schedule.QualifyingLowPosition <= 0 {
		return fmt.Errorf("schedule: qualifying positions must be positive")
	}
	return nil
}

// Resolver builds a points resolver over table using the configured schedule and policy.
func (c *Config) Resolver(table map[int]int) (*points.Resolver, error) {
	policy, err := points.ParseMissingPolicy(c.MissingPositionPolicy)
	if err != nil {
		return nil, err
	}
	return &points.Resolver{
		Table: points.Table(table),
		Schedule: points.Schedule{
			CupBOffset:             c.Schedule.CupBOffset,
			QualifyingHighPosition: c.Schedule.QualifyingHighPosition,
			QualifyingLowPosition:  c.Schedule.QualifyingLowPosition,
		},
		Missing: policy,
	}, nil
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
