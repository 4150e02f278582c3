package testutil

import (
	"testing"
	"time"

	"github.com/farmtech/irrigation/internal/store"
	"github.com/farmtech/irrigation/pkg/models"
)

// BaseTime is the timestamp of the first reading in generated series.
var BaseTime = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

// NewReading returns a SensorReading with healthy defaults, suitable for
// test fixtures. Override individual fields with options.
func NewReading(opts ...func(*models.SensorReading)) models.SensorReading {
	r := models.SensorReading{
		Timestamp:         BaseTime,
		Humidity:          40,
		PH:                6.0,
		PhosphorusPresent: true,
		PotassiumPresent:  true,
		Temperature:       models.Float(24),
		DecisionReason:    models.ReasonManual,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithHumidity sets the soil humidity.
func WithHumidity(h float64) func(*models.SensorReading) {
	return func(r *models.SensorReading) { r.Humidity = h }
}

// WithPH sets the soil pH.
func WithPH(ph float64) func(*models.SensorReading) {
	return func(r *models.SensorReading) { r.PH = ph }
}

// WithTimestamp sets the sample time.
func WithTimestamp(t time.Time) func(*models.SensorReading) {
	return func(r *models.SensorReading) { r.Timestamp = t }
}

// WithTemperature sets the temperature. nil clears it.
func WithTemperature(temp *float64) func(*models.SensorReading) {
	return func(r *models.SensorReading) { r.Temperature = temp }
}

// WithPump sets the pump state and decision reason.
func WithPump(on bool, reason string) func(*models.SensorReading) {
	return func(r *models.SensorReading) {
		r.PumpOn = on
		r.DecisionReason = reason
	}
}

// WithEmergency marks the reading as an emergency.
func WithEmergency() func(*models.SensorReading) {
	return func(r *models.SensorReading) { r.IsEmergency = true }
}

// WithNutrients sets phosphorus and potassium presence.
func WithNutrients(p, k bool) func(*models.SensorReading) {
	return func(r *models.SensorReading) {
		r.PhosphorusPresent = p
		r.PotassiumPresent = k
	}
}

// Series returns one reading per humidity value, spaced step apart from
// BaseTime, oldest first.
func Series(step time.Duration, humidities ...float64) []models.SensorReading {
	out := make([]models.SensorReading, len(humidities))
	for i, h := range humidities {
		out[i] = NewReading(
			WithHumidity(h),
			WithTimestamp(BaseTime.Add(time.Duration(i)*step)),
		)
	}
	return out
}

// NewestFirst returns a reversed copy of readings.
func NewestFirst(readings []models.SensorReading) []models.SensorReading {
	out := make([]models.SensorReading, len(readings))
	for i, r := range readings {
		out[len(readings)-1-i] = r
	}
	return out
}

// NewStore opens a throwaway SQLite database in t.TempDir.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(t.TempDir() + "/farmtech.db")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
