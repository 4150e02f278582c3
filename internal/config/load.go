package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPath is where a missing configuration file is written back.
const DefaultPath = "configs/farmtech.yaml"

// EnvPrefix scopes environment overrides: FARMTECH_SERVER_PORT=9090.
const EnvPrefix = "FARMTECH"

// Load reads configuration from configPath (or the standard search paths
// when empty) on top of the built-in defaults. When no file exists the
// defaults are written to configPath, or DefaultPath, and then read back.
// A failed write is not fatal; the in-memory defaults stay in effect.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("farmtech")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/farmtech")
	}

	err := v.ReadInConfig()
	switch {
	case err == nil:
	case isNotFound(err):
		target := configPath
		if target == "" {
			target = DefaultPath
		}
		if werr := WriteDefaults(v, target); werr == nil {
			v.SetConfigFile(target)
			if rerr := v.ReadInConfig(); rerr != nil {
				return nil, fmt.Errorf("re-reading healed config %q: %w", target, rerr)
			}
		}
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// WriteDefaults writes the current settings of v to path, creating parent
// directories. An existing file is never overwritten.
func WriteDefaults(v *viper.Viper, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := v.SafeWriteConfigAs(path); err != nil {
		return fmt.Errorf("write default config %q: %w", path, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	if errors.As(err, &nf) {
		return true
	}
	// SetConfigFile with a missing path surfaces the raw os error.
	return errors.Is(err, os.ErrNotExist)
}

// SetDefaults registers every configuration default. Module DefaultConfig
// functions mirror the plugins.* values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.rate_limit_rps", 50.0)
	v.SetDefault("server.rate_limit_burst", 100)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.path", "./data/farmtech.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "720h")

	// Irrigation decision thresholds.
	v.SetDefault("thresholds.humidity_critical_low", 15.0)
	v.SetDefault("thresholds.humidity_min_to_irrigate", 20.0)
	v.SetDefault("thresholds.humidity_high_stop", 60.0)
	v.SetDefault("thresholds.ph_ideal_min", 5.5)
	v.SetDefault("thresholds.ph_ideal_max", 6.5)
	v.SetDefault("thresholds.ph_critical_min", 4.5)
	v.SetDefault("thresholds.ph_critical_max", 7.5)
	v.SetDefault("thresholds.significant_rain_mm", 1.0)

	v.SetDefault("forecast.steps", 6)
	v.SetDefault("forecast.interval_minutes", 5)
	v.SetDefault("forecast.alert_enabled", true)
	v.SetDefault("forecast.min_points", 20)
	v.SetDefault("forecast.arima.p", 1)
	v.SetDefault("forecast.arima.d", 1)
	v.SetDefault("forecast.arima.q", 1)

	v.SetDefault("costs.water_cost_per_m3", 5.0)
	v.SetDefault("costs.pump_flow_lph", 1000.0)
	v.SetDefault("costs.default_irrigation_minutes", 15.0)
	v.SetDefault("costs.energy_cost_per_kwh", 0.75)
	v.SetDefault("costs.pump_power_kw", 0.75)

	v.SetDefault("plugins.readings.cache_ttl", "30s")
	v.SetDefault("plugins.readings.default_limit", 100)
	v.SetDefault("plugins.readings.max_limit", 5000)

	v.SetDefault("plugins.insight.zscore_threshold", 3.0)
	v.SetDefault("plugins.insight.history_limit", 0)
	v.SetDefault("plugins.insight.retrain_interval", "0s")
	v.SetDefault("plugins.insight.risk.test_size", 0.3)
	v.SetDefault("plugins.insight.risk.cv_folds", 3)
	v.SetDefault("plugins.insight.risk.seed", 42)
	v.SetDefault("plugins.insight.maintenance.test_size", 0.25)
	v.SetDefault("plugins.insight.maintenance.trees", 100)
	v.SetDefault("plugins.insight.maintenance.runtime_threshold_hours", 50.0)
	v.SetDefault("plugins.insight.maintenance.seed", 42)
	v.SetDefault("plugins.insight.drift.ewma_alpha", 0.1)
	v.SetDefault("plugins.insight.drift.cusum_drift", 0.5)
	v.SetDefault("plugins.insight.drift.cusum_threshold", 5.0)
	v.SetDefault("plugins.insight.drift.min_samples", 10)

	v.SetDefault("plugins.listener.autostart", false)
	v.SetDefault("plugins.listener.default_name", "field-1")
	v.SetDefault("plugins.listener.interval", "5s")
	v.SetDefault("plugins.listener.use_weather", false)
	v.SetDefault("plugins.listener.seed", 0)

	v.SetDefault("plugins.weather.enabled", false)
	v.SetDefault("plugins.weather.base_url", "https://api.open-meteo.com")
	v.SetDefault("plugins.weather.latitude", -23.5505)
	v.SetDefault("plugins.weather.longitude", -46.6333)
	v.SetDefault("plugins.weather.timeout", "15s")
	v.SetDefault("plugins.weather.cache_ttl", "10m")
	v.SetDefault("plugins.weather.retry_after", "30s")

	v.SetDefault("plugins.mqtt.broker_url", "")
	v.SetDefault("plugins.mqtt.client_id", "farmtech")
	v.SetDefault("plugins.mqtt.topic_prefix", "farmtech")
	v.SetDefault("plugins.mqtt.qos", 1)
	v.SetDefault("plugins.mqtt.retain", false)
	v.SetDefault("plugins.mqtt.timeout", "10s")
	v.SetDefault("plugins.mqtt.ingest", true)
	v.SetDefault("plugins.mqtt.ha_discovery", false)
	v.SetDefault("plugins.mqtt.ha_discovery_prefix", "homeassistant")
}
