package irrigation

import (
	"fmt"

	"github.com/farmtech/irrigation/pkg/plugin"
)

// Thresholds are the soil limits the engine compares readings against.
type Thresholds struct {
	HumidityCriticalLow   float64 `mapstructure:"humidity_critical_low" json:"humidity_critical_low"`
	HumidityMinToIrrigate float64 `mapstructure:"humidity_min_to_irrigate" json:"humidity_min_to_irrigate"`
	HumidityHighStop      float64 `mapstructure:"humidity_high_stop" json:"humidity_high_stop"`
	PHIdealMin            float64 `mapstructure:"ph_ideal_min" json:"ph_ideal_min"`
	PHIdealMax            float64 `mapstructure:"ph_ideal_max" json:"ph_ideal_max"`
	PHCriticalMin         float64 `mapstructure:"ph_critical_min" json:"ph_critical_min"`
	PHCriticalMax         float64 `mapstructure:"ph_critical_max" json:"ph_critical_max"`
	SignificantRainMM     float64 `mapstructure:"significant_rain_mm" json:"significant_rain_mm"`
}

// DefaultThresholds returns the factory limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HumidityCriticalLow:   15.0,
		HumidityMinToIrrigate: 20.0,
		HumidityHighStop:      60.0,
		PHIdealMin:            5.5,
		PHIdealMax:            6.5,
		PHCriticalMin:         4.5,
		PHCriticalMax:         7.5,
		SignificantRainMM:     1.0,
	}
}

// ThresholdsFromConfig reads the "thresholds" section of the global
// configuration on top of the defaults. A nil config yields the defaults.
func ThresholdsFromConfig(cfg plugin.Config) (Thresholds, error) {
	th := DefaultThresholds()
	if cfg == nil {
		return th, nil
	}
	if err := cfg.Sub("thresholds").Unmarshal(&th); err != nil {
		return th, fmt.Errorf("unmarshal thresholds: %w", err)
	}
	return th, nil
}

// Validate checks that the limits are ordered sensibly. Decide never calls
// it; loaders do.
func (t Thresholds) Validate() error {
	switch {
	case t.HumidityCriticalLow > t.HumidityMinToIrrigate:
		return fmt.Errorf("humidity_critical_low (%.1f) must not exceed humidity_min_to_irrigate (%.1f)",
			t.HumidityCriticalLow, t.HumidityMinToIrrigate)
	case t.HumidityMinToIrrigate > t.HumidityHighStop:
		return fmt.Errorf("humidity_min_to_irrigate (%.1f) must not exceed humidity_high_stop (%.1f)",
			t.HumidityMinToIrrigate, t.HumidityHighStop)
	case t.PHIdealMin > t.PHIdealMax:
		return fmt.Errorf("ph_ideal_min (%.1f) must not exceed ph_ideal_max (%.1f)", t.PHIdealMin, t.PHIdealMax)
	case t.PHCriticalMin > t.PHIdealMin || t.PHIdealMax > t.PHCriticalMax:
		return fmt.Errorf("ideal pH band [%.1f, %.1f] must lie inside critical band [%.1f, %.1f]",
			t.PHIdealMin, t.PHIdealMax, t.PHCriticalMin, t.PHCriticalMax)
	case t.SignificantRainMM < 0:
		return fmt.Errorf("significant_rain_mm must be non-negative, got %.1f", t.SignificantRainMM)
	}
	return nil
}

// HumidityIdeal is the midpoint of the band in which the pump stays off.
func (t Thresholds) HumidityIdeal() float64 {
	return (t.HumidityMinToIrrigate + t.HumidityHighStop) / 2
}

// PHIdeal is the midpoint of the ideal pH band.
func (t Thresholds) PHIdeal() float64 {
	return (t.PHIdealMin + t.PHIdealMax) / 2
}

// PHCritical reports whether ph lies outside the safe band.
func (t Thresholds) PHCritical(ph float64) bool {
	return ph < t.PHCriticalMin || ph > t.PHCriticalMax
}

// PHInIdeal reports whether ph lies inside the ideal band, bounds included.
func (t Thresholds) PHInIdeal(ph float64) bool {
	return ph >= t.PHIdealMin && ph <= t.PHIdealMax
}
