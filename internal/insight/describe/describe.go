// Package describe computes per-column descriptive statistics over
// sensor readings.
package describe

import (
	"math"
	"sort"

	"github.com/farmtech/irrigation/pkg/analytics"
	"github.com/farmtech/irrigation/pkg/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Column extracts the values of one numeric column. Readings without a
// temperature are skipped for the temperature column only.
func Column(readings []models.SensorReading, column string) []float64 {
	out := make([]float64, 0, len(readings))
	for _, r := range readings {
		switch column {
		case analytics.ColumnHumidity:
			out = append(out, r.Humidity)
		case analytics.ColumnPH:
			out = append(out, r.PH)
		case analytics.ColumnTemperature:
			if r.Temperature != nil {
				out = append(out, *r.Temperature)
			}
		}
	}
	return out
}

// Stats summarizes values. Std is the sample standard deviation, reported
// as 0 for a single value. An empty input yields only the column name.
func Stats(column string, values []float64) analytics.ColumnStats {
	s := analytics.ColumnStats{Column: column, Count: len(values)}
	if len(values) == 0 {
		return s
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q1 = Quantile(sorted, 0.25)
	s.Median = Quantile(sorted, 0.5)
	s.Q3 = Quantile(sorted, 0.75)
	return s
}

// All describes every numeric column in analytics.NumericColumns order.
func All(readings []models.SensorReading) []analytics.ColumnStats {
	out := make([]analytics.ColumnStats, 0, len(analytics.NumericColumns))
	for _, col := range analytics.NumericColumns {
		out = append(out, Stats(col, Column(readings, col)))
	}
	return out
}

// Quantile interpolates linearly between closest ranks (h = (n-1)p) on
// sorted data, the default of most dataframe libraries.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	hi := math.Ceil(h)
	return sorted[int(lo)] + (h-lo)*(sorted[int(hi)]-sorted[int(lo)])
}
