package forecast

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// RegressionResult contains the output of a linear regression.
type RegressionResult struct {
	Slope       float64        // Rate of change per hour
	Intercept   float64        // Value at t=0
	RSquared    float64        // Coefficient of determination (0-1)
	Predicted   float64        // Model value at the last time point
	TimeToLimit *time.Duration // Time until threshold is reached (nil if not approaching)
}

// LinearRegression fits values against times (hours from an epoch) by
// least squares and projects when the line crosses threshold. Returns nil
// for fewer than 2 points or mismatched lengths.
func LinearRegression(times, values []float64, threshold float64) *RegressionResult {
	n := len(times)
	if n < 2 || len(values) != n {
		return nil
	}

	if stat.Variance(times, nil) == 0 {
		mean := stat.Mean(values, nil)
		return &RegressionResult{Intercept: mean, Predicted: mean}
	}

	intercept, slope := stat.LinearRegression(times, values, nil, false)
	result := &RegressionResult{
		Slope:     slope,
		Intercept: intercept,
		Predicted: slope*times[n-1] + intercept,
	}
	if stat.Variance(values, nil) > 0 {
		result.RSquared = stat.RSquared(times, values, nil, intercept, slope)
	}

	// A rising line below the limit or a falling line above it will cross.
	if (slope > 0 && result.Predicted < threshold) || (slope < 0 && result.Predicted > threshold) {
		hours := (threshold - result.Predicted) / slope
		d := time.Duration(hours * float64(time.Hour))
		result.TimeToLimit = &d
	}
	return result
}

// TimeToHours converts time.Time values to hours relative to the first point.
func TimeToHours(timestamps []time.Time) []float64 {
	if len(timestamps) == 0 {
		return nil
	}
	hours := make([]float64, len(timestamps))
	base := timestamps[0]
	for i, t := range timestamps {
		hours[i] = t.Sub(base).Hours()
	}
	return hours
}
