// Package features turns stored readings into numeric matrices for the
// risk and maintenance classifiers.
package features

import (
	"math"
	"sort"

	"github.com/farmtech/irrigation/pkg/models"
)

// Risk feature names, in column order.
var RiskNames = []string{
	"humidity", "ph", "phosphorus_present", "potassium_present",
	"temperature", "hour", "weekday",
	"humidity_ma3", "temperature_ma3", "ph_ma3",
}

// Maintenance feature names, in column order.
var MaintenanceNames = []string{"runtime_hours", "temperature_ma5", "humidity_ma5"}

// Matrix is a feature table with one binary label per row.
type Matrix struct {
	Names  []string
	Rows   [][]float64
	Labels []int
}

// Classes counts rows per label value.
func (m Matrix) Classes() (negative, positive int) {
	for _, y := range m.Labels {
		if y == 1 {
			positive++
		} else {
			negative++
		}
	}
	return negative, positive
}

// Chronological returns a copy of readings sorted oldest first, ties by id.
func Chronological(readings []models.SensorReading) []models.SensorReading {
	out := append([]models.SensorReading(nil), readings...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Risk builds the emergency-risk matrix. Moving averages cover the last 3
// readings and skip missing temperatures; gaps left afterwards are forward
// filled and finally set to 0. The label is the stored emergency flag.
func Risk(readings []models.SensorReading) Matrix {
	rs := Chronological(readings)
	n := len(rs)

	humidity := make([]float64, n)
	ph := make([]float64, n)
	temp := make([]float64, n)
	for i, r := range rs {
		humidity[i] = r.Humidity
		ph[i] = r.PH
		temp[i] = math.NaN()
		if r.Temperature != nil {
			temp[i] = *r.Temperature
		}
	}
	humMA := RollingMean(humidity, 3)
	tempMA := RollingMean(temp, 3)
	phMA := RollingMean(ph, 3)
	tempFilled := fillForward(temp)
	tempMA = fillForward(tempMA)

	m := Matrix{
		Names:  RiskNames,
		Rows:   make([][]float64, n),
		Labels: make([]int, n),
	}
	for i, r := range rs {
		m.Rows[i] = []float64{
			r.Humidity,
			r.PH,
			boolFloat(r.PhosphorusPresent),
			boolFloat(r.PotassiumPresent),
			tempFilled[i],
			float64(r.Timestamp.Hour()),
			float64(Weekday(r)),
			humMA[i],
			tempMA[i],
			phMA[i],
		}
		if r.IsEmergency {
			m.Labels[i] = 1
		}
	}
	return m
}

// RiskRow returns the feature row for candidate as if it had been stored
// right after history.
func RiskRow(history []models.SensorReading, candidate models.SensorReading) []float64 {
	rs := Chronological(history)
	if len(rs) > 2 {
		rs = rs[len(rs)-2:]
	}
	if candidate.Timestamp.IsZero() && len(rs) > 0 {
		candidate.Timestamp = rs[len(rs)-1].Timestamp
	}
	candidate.ID = math.MaxInt64
	m := Risk(append(rs, candidate))
	return m.Rows[len(m.Rows)-1]
}

// Maintenance builds the pump-wear matrix. A cycle starts at every
// off-to-on transition of the pump; runtime accumulates within a cycle at
// the mean sampling interval (1 hour when that is undefined). Rows whose
// runtime exceeds thresholdHours are labelled 1.
func Maintenance(readings []models.SensorReading, thresholdHours float64) Matrix {
	rs := Chronological(readings)
	n := len(rs)
	step := MeanIntervalHours(rs)

	humidity := make([]float64, n)
	temp := make([]float64, n)
	runtime := make([]float64, n)
	for i, r := range rs {
		humidity[i] = r.Humidity
		temp[i] = math.NaN()
		if r.Temperature != nil {
			temp[i] = *r.Temperature
		}

		var hours float64
		if r.PumpOn {
			hours = step
		}
		// An off-to-on transition opens a new cycle.
		if i == 0 || (r.PumpOn && !rs[i-1].PumpOn) {
			runtime[i] = hours
		} else {
			runtime[i] = runtime[i-1] + hours
		}
	}
	tempMA := RollingMean(temp, 5)
	humMA := RollingMean(humidity, 5)

	m := Matrix{
		Names:  MaintenanceNames,
		Rows:   make([][]float64, n),
		Labels: make([]int, n),
	}
	for i := range rs {
		m.Rows[i] = []float64{runtime[i], zeroNaN(tempMA[i]), zeroNaN(humMA[i])}
		if runtime[i] > thresholdHours {
			m.Labels[i] = 1
		}
	}
	return m
}

// MeanIntervalHours is the average gap between consecutive readings
// (oldest first), or 1 when fewer than two readings or a zero span.
func MeanIntervalHours(rs []models.SensorReading) float64 {
	if len(rs) < 2 {
		return 1
	}
	span := rs[len(rs)-1].Timestamp.Sub(rs[0].Timestamp).Hours()
	h := span / float64(len(rs)-1)
	if h == 0 || math.IsNaN(h) {
		return 1
	}
	return h
}

// Weekday numbers days from Monday = 0.
func Weekday(r models.SensorReading) int {
	return (int(r.Timestamp.Weekday()) + 6) % 7
}

// RollingMean averages the last window values ending at each index,
// skipping NaN. An index with no valid value in its window stays NaN.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		var sum float64
		var n int
		for k := max(0, i-window+1); k <= i; k++ {
			if !math.IsNaN(values[k]) {
				sum += values[k]
				n++
			}
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

// fillForward replaces NaN with the previous valid value, then 0.
func fillForward(values []float64) []float64 {
	out := make([]float64, len(values))
	last := math.NaN()
	for i, v := range values {
		if !math.IsNaN(v) {
			last = v
		}
		out[i] = zeroNaN(last)
	}
	return out
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
