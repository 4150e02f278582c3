package listener

import "time"

// Config holds the listener module settings (plugins.listener).
type Config struct {
	// Autostart starts DefaultName when the module starts.
	Autostart   bool          `mapstructure:"autostart"`
	DefaultName string        `mapstructure:"default_name"`
	Interval    time.Duration `mapstructure:"interval"`
	// UseWeather lets a rain forecast override irrigate decisions.
	UseWeather bool `mapstructure:"use_weather"`
	// Seed fixes the simulator sequence; 0 picks a random seed per listener.
	Seed uint64 `mapstructure:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Autostart:   false,
		DefaultName: "field-1",
		Interval:    5 * time.Second,
		UseWeather:  false,
	}
}
