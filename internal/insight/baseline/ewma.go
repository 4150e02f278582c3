// Package baseline learns the normal level of a sensor stream so live
// readings can be judged against it.
package baseline

import "math"

// DefaultAlpha is used when NewEWMA is given an out-of-range factor.
const DefaultAlpha = 0.1

// EWMA tracks an exponentially weighted moving average with an online
// variance estimate. It is JSON-serializable so baselines survive restarts.
type EWMA struct {
	Alpha   float64 `json:"alpha"`   // Smoothing factor (0 < alpha <= 1)
	Mean    float64 `json:"mean"`    // Current smoothed mean
	Var     float64 `json:"var"`     // Exponentially weighted variance
	Samples int     `json:"samples"` // Number of samples processed
}

// NewEWMA creates a new EWMA tracker with the given smoothing factor.
func NewEWMA(alpha float64) *EWMA {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &EWMA{Alpha: alpha}
}

// Update folds value into the mean and variance.
func (e *EWMA) Update(value float64) {
	e.Samples++
	if e.Samples == 1 {
		e.Mean = value
		e.Var = 0
		return
	}
	diff := value - e.Mean
	e.Mean += e.Alpha * diff
	e.Var = (1 - e.Alpha) * (e.Var + e.Alpha*diff*diff)
}

// StdDev returns the current standard deviation.
func (e *EWMA) StdDev() float64 {
	if e.Samples < 2 {
		return 0
	}
	return math.Sqrt(e.Var)
}

// Normalize expresses value in standard deviations from the current mean,
// or 0 while the deviation is still zero.
func (e *EWMA) Normalize(value float64) float64 {
	sd := e.StdDev()
	if sd == 0 {
		return 0
	}
	return (value - e.Mean) / sd
}
