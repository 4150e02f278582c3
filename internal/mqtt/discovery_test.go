package mqtt

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSafeObjectID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple prefix", "farmtech", "farmtech"},
		{"nested prefix", "farm/north-field", "farm_north_field"},
		{"uppercase", "FarmTech", "farmtech"},
		{"leading special chars", "---test", "test"},
		{"trailing special chars", "test---", "test"},
		{"empty string", "", "unknown"},
		{"only special chars", "///", "unknown"},
		{"underscores preserved", "field_01", "field_01"},
		{"spaces", "north field", "north_field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeObjectID(tt.input); got != tt.want {
				t.Errorf("SafeObjectID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildFieldDiscoveryConfigs(t *testing.T) {
	configs := BuildFieldDiscoveryConfigs("farm/north", "homeassistant", "North Field")
	if len(configs) != len(fieldEntities) {
		t.Fatalf("configs = %d, want %d", len(configs), len(fieldEntities))
	}

	byTopic := make(map[string][]byte)
	for _, c := range configs {
		if !c.Retain {
			t.Errorf("%s not retained", c.Topic)
		}
		if !strings.HasPrefix(c.Topic, "homeassistant/") || !strings.HasSuffix(c.Topic, "/config") {
			t.Errorf("unexpected topic %q", c.Topic)
		}
		byTopic[c.Topic] = c.Payload
	}

	var humidity SensorConfig
	raw, ok := byTopic["homeassistant/sensor/farmtech_farm_north/humidity/config"]
	if !ok {
		t.Fatalf("humidity config missing; topics = %v", keys(byTopic))
	}
	if err := json.Unmarshal(raw, &humidity); err != nil {
		t.Fatalf("unmarshal humidity: %v", err)
	}
	if humidity.StateTopic != "farm/north/state/humidity" {
		t.Errorf("StateTopic = %q", humidity.StateTopic)
	}
	if humidity.UnitOfMeasurement != "%" || humidity.StateClass != "measurement" || humidity.DeviceClass != "moisture" {
		t.Errorf("humidity = %+v", humidity)
	}
	if humidity.Device.Name != "North Field" || humidity.Device.Identifiers[0] != "farmtech_farm_north" {
		t.Errorf("device = %+v", humidity.Device)
	}

	var pump BinarySensorConfig
	raw, ok = byTopic["homeassistant/binary_sensor/farmtech_farm_north/pump/config"]
	if !ok {
		t.Fatal("pump config missing")
	}
	if err := json.Unmarshal(raw, &pump); err != nil {
		t.Fatalf("unmarshal pump: %v", err)
	}
	if pump.PayloadOn != "ON" || pump.PayloadOff != "OFF" || pump.DeviceClass != "running" {
		t.Errorf("pump = %+v", pump)
	}

	var alert SensorConfig
	if err := json.Unmarshal(byTopic["homeassistant/sensor/farmtech_farm_north/forecast_alert/config"], &alert); err != nil {
		t.Fatalf("unmarshal forecast alert: %v", err)
	}
	if alert.StateClass != "" {
		t.Errorf("text sensor has state_class %q", alert.StateClass)
	}
}

func TestOnOff(t *testing.T) {
	if onOff(true) != "ON" || onOff(false) != "OFF" {
		t.Error("onOff mapping wrong")
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
