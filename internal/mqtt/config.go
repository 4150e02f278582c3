package mqtt

import "time"

// Config holds the MQTT bridge configuration (plugins.mqtt).
type Config struct {
	BrokerURL   string        `mapstructure:"broker_url"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"` //nolint:gosec // G101: config field name, not a credential
	ClientID    string        `mapstructure:"client_id"`
	TopicPrefix string        `mapstructure:"topic_prefix"`
	QoS         byte          `mapstructure:"qos"`
	Retain      bool          `mapstructure:"retain"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// Ingest subscribes to <prefix>/sensors/+/reading and records what arrives.
	Ingest bool `mapstructure:"ingest"`
	// PHCurve overrides the pH probe coefficients (a, b, c, d) used for raw ADC payloads.
	PHCurve []float64 `mapstructure:"ph_curve"`

	// Home Assistant MQTT auto-discovery settings.
	HADiscovery       bool   `mapstructure:"ha_discovery"`        // Enable HA auto-discovery (default: false)
	HADiscoveryPrefix string `mapstructure:"ha_discovery_prefix"` // HA discovery topic prefix (default: "homeassistant")
	DeviceName        string `mapstructure:"device_name"`
}

// DefaultConfig returns sensible defaults for the MQTT bridge.
func DefaultConfig() Config {
	return Config{
		BrokerURL:         "", // disabled by default
		ClientID:          "farmtech",
		TopicPrefix:       "farmtech",
		QoS:               1,
		Retain:            false,
		Timeout:           10 * time.Second,
		Ingest:            true,
		HADiscovery:       false,
		HADiscoveryPrefix: "homeassistant",
		DeviceName:        "FarmTech Field",
	}
}
