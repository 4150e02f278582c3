package models

import (
	"fmt"
	"math"
	"time"
)

// Reading sources recorded in metrics and events.
const (
	SourceManual     = "manual"
	SourceSimulation = "simulation"
	SourceMQTT       = "mqtt"
	SourceSeed       = "seed"
)

// Decision reasons used for readings that did not come from the engine.
const (
	ReasonManual     = "Manual"
	ReasonSimulation = "Simulation"
)

// Valid sensor ranges, enforced at input boundaries.
const (
	HumidityMin = 0.0
	HumidityMax = 100.0
	PHMin       = 0.0
	PHMax       = 14.0

	// Soil probe operating range in °C.
	TemperatureMin = -40.0
	TemperatureMax = 80.0
)

// SensorReading is one timestamped soil sample plus the irrigation
// decision taken at that moment.
type SensorReading struct {
	ID                int64     `json:"id" example:"42"`
	Timestamp         time.Time `json:"timestamp" example:"2026-03-01T10:15:00Z"`
	Humidity          float64   `json:"humidity" example:"32.5"`
	PH                float64   `json:"ph" example:"6.2"`
	PhosphorusPresent bool      `json:"phosphorus_present" example:"true"`
	PotassiumPresent  bool      `json:"potassium_present" example:"true"`
	Temperature       *float64  `json:"temperature,omitempty" example:"24.8"`
	PumpOn            bool      `json:"pump_on" example:"false"`
	DecisionReason    string    `json:"decision_reason" example:"Normal conditions - pump off (humidity: 32.5%)"`
	IsEmergency       bool      `json:"is_emergency" example:"false"`
}

// Validate checks the boundary invariants on humidity, pH and the
// optional temperature.
func (r *SensorReading) Validate() error {
	if err := ValidateRanges(r.Humidity, r.PH); err != nil {
		return err
	}
	if r.Temperature != nil {
		return ValidateTemperature(*r.Temperature)
	}
	return nil
}

// ValidateRanges reports whether humidity and pH are finite and inside
// their physical ranges.
func ValidateRanges(humidity, ph float64) error {
	if !finite(humidity) {
		return fmt.Errorf("humidity must be a finite number, got %v", humidity)
	}
	if !finite(ph) {
		return fmt.Errorf("ph must be a finite number, got %v", ph)
	}
	if humidity < HumidityMin || humidity > HumidityMax {
		return fmt.Errorf("humidity %.2f outside [%.0f, %.0f]", humidity, HumidityMin, HumidityMax)
	}
	if ph < PHMin || ph > PHMax {
		return fmt.Errorf("ph %.2f outside [%.0f, %.0f]", ph, PHMin, PHMax)
	}
	return nil
}

// ValidateTemperature reports whether t is finite and inside the probe range.
func ValidateTemperature(t float64) error {
	if !finite(t) {
		return fmt.Errorf("temperature must be a finite number, got %v", t)
	}
	if t < TemperatureMin || t > TemperatureMax {
		return fmt.Errorf("temperature %.2f outside [%.0f, %.0f]", t, TemperatureMin, TemperatureMax)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Float returns a pointer to v. Handy for optional temperatures.
func Float(v float64) *float64 {
	return &v
}
