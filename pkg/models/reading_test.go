package models

import (
	"math"
	"testing"
)

func TestSensorReadingValidate(t *testing.T) {
	tests := []struct {
		name    string
		r       SensorReading
		wantErr bool
	}{
		{"in range", SensorReading{Humidity: 35, PH: 6.2, Temperature: Float(24)}, false},
		{"no temperature", SensorReading{Humidity: 0, PH: 14}, false},
		{"humidity NaN", SensorReading{Humidity: math.NaN(), PH: 6}, true},
		{"humidity +Inf", SensorReading{Humidity: math.Inf(1), PH: 6}, true},
		{"ph NaN", SensorReading{Humidity: 40, PH: math.NaN()}, true},
		{"ph -Inf", SensorReading{Humidity: 40, PH: math.Inf(-1)}, true},
		{"humidity above 100", SensorReading{Humidity: 100.1, PH: 6}, true},
		{"temperature NaN", SensorReading{Humidity: 40, PH: 6, Temperature: Float(math.NaN())}, true},
		{"temperature +Inf", SensorReading{Humidity: 40, PH: 6, Temperature: Float(math.Inf(1))}, true},
		{"temperature too hot", SensorReading{Humidity: 40, PH: 6, Temperature: Float(TemperatureMax + 1)}, true},
		{"temperature too cold", SensorReading{Humidity: 40, PH: 6, Temperature: Float(TemperatureMin - 1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
