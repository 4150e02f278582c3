package mqtt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/farmtech/irrigation/internal/version"
)

// nonAlphanumeric matches any character that is not alphanumeric or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// DiscoveryConfig holds a single HA MQTT discovery payload.
type DiscoveryConfig struct {
	Topic   string // Full MQTT topic (homeassistant/...)
	Payload []byte // JSON-encoded config (empty = remove)
	Retain  bool   // Discovery configs should always be retained
}

// HADevice is the "device" block in HA discovery payloads.
type HADevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// BinarySensorConfig is the HA discovery payload for binary_sensor.
type BinarySensorConfig struct {
	Name        string   `json:"name"`
	ObjectID    string   `json:"object_id"`
	UniqueID    string   `json:"unique_id"`
	StateTopic  string   `json:"state_topic"`
	DeviceClass string   `json:"device_class,omitempty"`
	PayloadOn   string   `json:"payload_on"`
	PayloadOff  string   `json:"payload_off"`
	Device      HADevice `json:"device"`
	Icon        string   `json:"icon,omitempty"`
}

// SensorConfig is the HA discovery payload for sensor.
type SensorConfig struct {
	Name              string   `json:"name"`
	ObjectID          string   `json:"object_id"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic"`
	DeviceClass       string   `json:"device_class,omitempty"`
	StateClass        string   `json:"state_class,omitempty"`
	UnitOfMeasurement string   `json:"unit_of_measurement,omitempty"`
	Icon              string   `json:"icon,omitempty"`
	Device            HADevice `json:"device"`
}

// entity describes one published state and how HA should present it.
type entity struct {
	key         string
	name        string
	binary      bool
	deviceClass string
	unit        string
	icon        string
}

// fieldEntities are the state topics published under <prefix>/state/<key>.
var fieldEntities = []entity{
	{key: "humidity", name: "Soil Humidity", deviceClass: "moisture", unit: "%"},
	{key: "ph", name: "Soil pH", unit: "pH", icon: "mdi:ph"},
	{key: "temperature", name: "Soil Temperature", deviceClass: "temperature", unit: "°C"},
	{key: "pump", name: "Irrigation Pump", binary: true, deviceClass: "running", icon: "mdi:water-pump"},
	{key: "emergency", name: "Irrigation Emergency", binary: true, deviceClass: "problem", icon: "mdi:alert-circle"},
	{key: "drift_alert", name: "Drift Alert", icon: "mdi:chart-bell-curve"},
	{key: "forecast_alert", name: "Forecast Alert", icon: "mdi:weather-sunny-alert"},
}

// SafeObjectID sanitizes a string for use as an HA object_id.
// Replaces any non-alphanumeric character (except underscore) with underscore,
// lowercases, and trims leading/trailing underscores.
func SafeObjectID(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}

// StateTopic is where the current value of key is published.
func StateTopic(topicPrefix, key string) string {
	return topicPrefix + "/state/" + key
}

func buildHADevice(topicPrefix, deviceName string) HADevice {
	return HADevice{
		Identifiers:  []string{"farmtech_" + SafeObjectID(topicPrefix)},
		Name:         deviceName,
		Model:        "Irrigation monitor",
		Manufacturer: "FarmTech",
		SWVersion:    version.Short(),
	}
}

// BuildFieldDiscoveryConfigs creates HA discovery payloads for every field
// entity: humidity, pH and temperature sensors, pump and emergency binary
// sensors, and the two alert text sensors.
func BuildFieldDiscoveryConfigs(topicPrefix, haPrefix, deviceName string) []DiscoveryConfig {
	safeID := SafeObjectID(topicPrefix)
	device := buildHADevice(topicPrefix, deviceName)

	configs := make([]DiscoveryConfig, 0, len(fieldEntities))
	for _, e := range fieldEntities {
		objectID := "farmtech_" + safeID + "_" + e.key
		var (
			component string
			payload   []byte
			err       error
		)
		if e.binary {
			component = "binary_sensor"
			payload, err = json.Marshal(BinarySensorConfig{
				Name:        e.name,
				ObjectID:    objectID,
				UniqueID:    objectID,
				StateTopic:  StateTopic(topicPrefix, e.key),
				DeviceClass: e.deviceClass,
				PayloadOn:   "ON",
				PayloadOff:  "OFF",
				Icon:        e.icon,
				Device:      device,
			})
		} else {
			component = "sensor"
			cfg := SensorConfig{
				Name:              e.name,
				ObjectID:          objectID,
				UniqueID:          objectID,
				StateTopic:        StateTopic(topicPrefix, e.key),
				DeviceClass:       e.deviceClass,
				UnitOfMeasurement: e.unit,
				Icon:              e.icon,
				Device:            device,
			}
			if e.unit != "" {
				cfg.StateClass = "measurement"
			}
			payload, err = json.Marshal(cfg)
		}
		if err != nil {
			continue
		}
		configs = append(configs, DiscoveryConfig{
			Topic:   discoveryTopic(haPrefix, component, safeID, e.key),
			Payload: payload,
			Retain:  true,
		})
	}
	return configs
}

func discoveryTopic(haPrefix, component, safeID, key string) string {
	return fmt.Sprintf("%s/%s/farmtech_%s/%s/config", haPrefix, component, safeID, key)
}

// onOff renders a boolean the way the binary sensors expect.
func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
