package weather

import "time"

// Config holds the weather module settings (plugins.weather).
type Config struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Latitude  float64       `mapstructure:"latitude"`
	Longitude float64       `mapstructure:"longitude"`
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	// RetryAfter bounds how long a failed fetch is remembered.
	RetryAfter time.Duration `mapstructure:"retry_after"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:   false,
		BaseURL:   "https://api.open-meteo.com",
		Latitude:  -23.5505,
		Longitude: -46.6333,
		Timeout:   15 * time.Second,
		CacheTTL:  10 * time.Minute,

		RetryAfter: 30 * time.Second,
	}
}
