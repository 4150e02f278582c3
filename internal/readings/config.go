package readings

import "time"

// Config holds the readings module settings (plugins.readings).
type Config struct {
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:     30 * time.Second,
		DefaultLimit: 100,
		MaxLimit:     5000,
	}
}
