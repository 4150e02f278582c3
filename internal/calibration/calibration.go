// Package calibration converts raw 12-bit ADC counts from the field
// probes into engineering units.
//
//	raw ADC -> clamp to [0..ADCMax] -> normalize to x in [0,1]
//	pH       = a + b*x + c*x^2 + d*x^3, clamped to [0,14]
//	humidity = 100 * (1 - x)          (probe reads ADCMax when dry)
package calibration

import (
	"fmt"

	"github.com/farmtech/irrigation/pkg/models"
)

// ADCMax is the full-scale count of the ESP32 12-bit converter.
const ADCMax = 4095

// PHCurve holds the cubic coefficients a, b, c, d of the pH probe fit.
type PHCurve [4]float64

// DefaultPHCurve is the bench fit of the LDR pH probe.
var DefaultPHCurve = PHCurve{1.5, 10.5, -5.0, 2.5}

// ParsePHCurve accepts exactly four coefficients, as stored in config.
func ParsePHCurve(coeffs []float64) (PHCurve, error) {
	if len(coeffs) != 4 {
		return PHCurve{}, fmt.Errorf("pH curve needs 4 coefficients (a,b,c,d), got %d", len(coeffs))
	}
	return PHCurve{coeffs[0], coeffs[1], coeffs[2], coeffs[3]}, nil
}

// PH converts a raw count to pH. Counts below zero read 0 and counts above
// full scale read 14.
func (c PHCurve) PH(raw float64) float64 {
	if raw < 0 {
		return models.PHMin
	}
	if raw > ADCMax {
		return models.PHMax
	}
	x := raw / ADCMax
	a, b, cc, d := c[0], c[1], c[2], c[3]
	return clamp(a+b*x+cc*x*x+d*x*x*x, models.PHMin, models.PHMax)
}

// PHFromADC converts with the default curve.
func PHFromADC(raw float64) float64 {
	return DefaultPHCurve.PH(raw)
}

// HumidityFromADC maps the inverted capacitive probe: ADCMax is bone dry
// (0 %) and 0 is saturated (100 %).
func HumidityFromADC(raw float64) float64 {
	x := clamp(raw, 0, ADCMax) / ADCMax
	return clamp(100*(1-x), models.HumidityMin, models.HumidityMax)
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
