// Package correlation builds Pearson correlation matrices across the
// numeric reading columns.
package correlation

import (
	"math"

	"github.com/farmtech/irrigation/pkg/analytics"
	"github.com/farmtech/irrigation/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// Pearson returns the symmetric correlation matrix over
// analytics.NumericColumns. Each pair uses only the rows where both
// columns are present. A pair with fewer than two such rows, or with a
// constant column, is left nil. The diagonal is 1 whenever the column
// varies.
func Pearson(readings []models.SensorReading) analytics.CorrelationMatrix {
	cols := analytics.NumericColumns
	m := analytics.CorrelationMatrix{
		Columns: append([]string(nil), cols...),
		Values:  make([][]*float64, len(cols)),
	}
	for i := range m.Values {
		m.Values[i] = make([]*float64, len(cols))
	}

	for i := range cols {
		for j := i; j < len(cols); j++ {
			x, y := pairs(readings, cols[i], cols[j])
			r, ok := Coefficient(x, y)
			if !ok {
				continue
			}
			m.Values[i][j] = &r
			if i != j {
				rc := r
				m.Values[j][i] = &rc
			}
		}
	}
	return m
}

// Coefficient is the Pearson r of x and y. ok is false when there are
// fewer than two points or either side has zero variance.
func Coefficient(x, y []float64) (r float64, ok bool) {
	if len(x) < 2 || len(x) != len(y) {
		return 0, false
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0, false
	}
	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, false
	}
	// Clamp rounding noise so perfectly correlated columns read as 1.
	return math.Max(-1, math.Min(1, r)), true
}

func pairs(readings []models.SensorReading, a, b string) (x, y []float64) {
	x = make([]float64, 0, len(readings))
	y = make([]float64, 0, len(readings))
	for i := range readings {
		va, okA := value(&readings[i], a)
		vb, okB := value(&readings[i], b)
		if okA && okB {
			x = append(x, va)
			y = append(y, vb)
		}
	}
	return x, y
}

func value(r *models.SensorReading, column string) (float64, bool) {
	switch column {
	case analytics.ColumnHumidity:
		return r.Humidity, true
	case analytics.ColumnPH:
		return r.PH, true
	case analytics.ColumnTemperature:
		if r.Temperature == nil {
			return 0, false
		}
		return *r.Temperature, true
	}
	return 0, false
}
