package insight

import (
	"fmt"
	"time"

	"github.com/farmtech/irrigation/internal/insight/forecast"
	"github.com/farmtech/irrigation/pkg/plugin"
)

// Config holds configuration for the insight module.
type Config struct {
	ZScoreThreshold float64 `mapstructure:"zscore_threshold"`
	// HistoryLimit caps how many readings an analysis loads; 0 loads all.
	HistoryLimit int `mapstructure:"history_limit"`
	// RetrainInterval enables periodic risk model retraining when positive.
	RetrainInterval time.Duration     `mapstructure:"retrain_interval"`
	Risk            RiskConfig        `mapstructure:"risk"`
	Maintenance     MaintenanceConfig `mapstructure:"maintenance"`
	Drift           DriftConfig       `mapstructure:"drift"`
}

// RiskConfig tunes the emergency risk classifier.
type RiskConfig struct {
	TestSize float64 `mapstructure:"test_size"`
	CVFolds  int     `mapstructure:"cv_folds"`
	Seed     uint64  `mapstructure:"seed"`
}

// MaintenanceConfig tunes the pump maintenance classifier.
type MaintenanceConfig struct {
	TestSize              float64 `mapstructure:"test_size"`
	Trees                 int     `mapstructure:"trees"`
	RuntimeThresholdHours float64 `mapstructure:"runtime_threshold_hours"`
	Seed                  uint64  `mapstructure:"seed"`
}

// DriftConfig tunes the live baseline watcher fed by new readings.
type DriftConfig struct {
	EWMAAlpha      float64 `mapstructure:"ewma_alpha"`
	CUSUMDrift     float64 `mapstructure:"cusum_drift"`
	CUSUMThreshold float64 `mapstructure:"cusum_threshold"`
	MinSamples     int     `mapstructure:"min_samples"`
}

// DefaultConfig returns sensible defaults for the insight module.
func DefaultConfig() Config {
	return Config{
		ZScoreThreshold: 3.0,
		Risk: RiskConfig{
			TestSize: 0.3,
			CVFolds:  3,
			Seed:     42,
		},
		Maintenance: MaintenanceConfig{
			TestSize:              0.25,
			Trees:                 100,
			RuntimeThresholdHours: 50,
			Seed:                  42,
		},
		Drift: DriftConfig{
			EWMAAlpha:      0.1,
			CUSUMDrift:     0.5,
			CUSUMThreshold: 5.0,
			MinSamples:     10,
		},
	}
}

// ForecastSettings is the global "forecast" section.
type ForecastSettings struct {
	Steps           int            `mapstructure:"steps"`
	IntervalMinutes int            `mapstructure:"interval_minutes"`
	AlertEnabled    bool           `mapstructure:"alert_enabled"`
	MinPoints       int            `mapstructure:"min_points"`
	ARIMA           forecast.Order `mapstructure:"arima"`
}

// DefaultForecastSettings mirrors the configuration defaults.
func DefaultForecastSettings() ForecastSettings {
	return ForecastSettings{
		Steps:           6,
		IntervalMinutes: 5,
		AlertEnabled:    true,
		MinPoints:       forecast.MinPoints,
		ARIMA:           forecast.Order{P: 1, D: 1, Q: 1},
	}
}

// Interval is the resampling grid width.
func (s ForecastSettings) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// Validate checks the forecast settings.
func (s ForecastSettings) Validate() error {
	if s.Steps < 1 {
		return fmt.Errorf("forecast.steps must be at least 1, got %d", s.Steps)
	}
	if s.IntervalMinutes < 1 {
		return fmt.Errorf("forecast.interval_minutes must be at least 1, got %d", s.IntervalMinutes)
	}
	return s.ARIMA.Validate()
}

func forecastFromConfig(cfg plugin.Config) (ForecastSettings, error) {
	s := DefaultForecastSettings()
	if cfg == nil {
		return s, nil
	}
	if err := cfg.Sub("forecast").Unmarshal(&s); err != nil {
		return s, fmt.Errorf("unmarshal forecast settings: %w", err)
	}
	return s, nil
}

// Validate checks the module configuration.
func (c Config) Validate() error {
	switch {
	case c.ZScoreThreshold <= 0:
		return fmt.Errorf("zscore_threshold must be positive, got %.2f", c.ZScoreThreshold)
	case c.Risk.TestSize <= 0 || c.Risk.TestSize >= 1:
		return fmt.Errorf("risk.test_size must be in (0, 1), got %.2f", c.Risk.TestSize)
	case c.Risk.CVFolds < 2:
		return fmt.Errorf("risk.cv_folds must be at least 2, got %d", c.Risk.CVFolds)
	case c.Maintenance.TestSize <= 0 || c.Maintenance.TestSize >= 1:
		return fmt.Errorf("maintenance.test_size must be in (0, 1), got %.2f", c.Maintenance.TestSize)
	case c.Maintenance.Trees < 1:
		return fmt.Errorf("maintenance.trees must be at least 1, got %d", c.Maintenance.Trees)
	}
	return nil
}
