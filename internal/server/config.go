package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	DataDir        string   `mapstructure:"data_dir"`
	DevMode        bool     `mapstructure:"dev_mode"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// TrustProxy makes the rate limiter key clients by X-Forwarded-For.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// DefaultConfig mirrors the server.* defaults in internal/config.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		DataDir:        "./data",
		RateLimitRPS:   50,
		RateLimitBurst: 100,
	}
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ConfigFromViper reads the server section on top of DefaultConfig.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if v == nil {
		return cfg, nil
	}
	if err := v.UnmarshalKey("server", &cfg); err != nil {
		return cfg, fmt.Errorf("server config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("server config: port %d out of range", cfg.Port)
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = DefaultConfig().RateLimitRPS
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = DefaultConfig().RateLimitBurst
	}
	return cfg, nil
}
