// Package seed populates an empty database with a plausible week of field
// history so the analysis endpoints have something to work on after setup.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/pkg/models"
)

// Store is the subset of readings.ReadingStore the seeder needs.
type Store interface {
	Count(ctx context.Context) (int, error)
	Add(ctx context.Context, r *models.SensorReading) error
}

// Options controls the generated history.
type Options struct {
	// Hours of hourly readings ending at End.
	Hours int
	End   time.Time
	Seed  uint64
	// Force seeds even when readings already exist.
	Force bool
}

// DefaultOptions returns one week of hourly readings ending now.
func DefaultOptions() Options {
	return Options{
		Hours: 168,
		End:   time.Now().UTC().Truncate(time.Hour),
		Seed:  42,
	}
}

// Result summarises a seeding run.
type Result struct {
	Existing    int  `json:"existing"`
	Inserted    int  `json:"inserted"`
	Skipped     bool `json:"skipped"`
	PumpOn      int  `json:"pump_on"`
	Emergencies int  `json:"emergencies"`
}

// Humidity recovered by one hour of irrigation.
const irrigationGain = 22.0

// Populate writes opts.Hours readings to s unless s already holds data.
// Humidity dries out hour by hour and recovers whenever the engine turned
// the pump on for the previous reading, so the history carries real
// irrigation cycles. Every reading is decided by irrigation.Decide.
func Populate(ctx context.Context, s Store, th irrigation.Thresholds, opts Options) (Result, error) {
	var res Result

	n, err := s.Count(ctx)
	if err != nil {
		return res, fmt.Errorf("count readings: %w", err)
	}
	res.Existing = n
	if n > 0 && !opts.Force {
		res.Skipped = true
		return res, nil
	}
	if opts.Hours <= 0 {
		return res, fmt.Errorf("seed hours must be positive, got %d", opts.Hours)
	}
	if opts.End.IsZero() {
		opts.End = time.Now().UTC().Truncate(time.Hour)
	}

	for _, r := range Generate(th, opts) {
		if err := s.Add(ctx, &r); err != nil {
			return res, fmt.Errorf("seed reading at %s: %w", r.Timestamp.Format(time.RFC3339), err)
		}
		res.Inserted++
		if r.PumpOn {
			res.PumpOn++
		}
		if r.IsEmergency {
			res.Emergencies++
		}
	}
	return res, nil
}

// Generate builds the seeded history oldest first without touching a store.
func Generate(th irrigation.Thresholds, opts Options) []models.SensorReading {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5eed))
	start := opts.End.Add(-time.Duration(opts.Hours-1) * time.Hour).UTC()

	out := make([]models.SensorReading, 0, opts.Hours)
	humidity := 48.0
	ph := 6.0
	pumpWasOn := false

	for i := 0; i < opts.Hours; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		hour := float64(ts.Hour())

		// Drying is faster in the afternoon heat.
		heat := math.Max(0, math.Sin((hour-6)/24*2*math.Pi))
		humidity -= 1.0 + 1.5*heat + rng.NormFloat64()*0.4
		if pumpWasOn {
			humidity += irrigationGain
		}
		humidity = clamp(humidity, 5, 95)

		ph = clamp(ph+rng.NormFloat64()*0.08, 4.2, 7.8)
		temp := round1(20 + 9*heat + rng.NormFloat64())

		r := models.SensorReading{
			Timestamp:         ts,
			Humidity:          round1(humidity),
			PH:                round1(ph),
			PhosphorusPresent: rng.Float64() < 0.9,
			PotassiumPresent:  rng.Float64() < 0.9,
			Temperature:       &temp,
		}
		d := irrigation.Decide(irrigation.Input{
			Humidity:   r.Humidity,
			PH:         r.PH,
			Phosphorus: r.PhosphorusPresent,
			Potassium:  r.PotassiumPresent,
		}, th)
		r.PumpOn = d.PumpOn
		r.DecisionReason = d.Reason
		r.IsEmergency = d.IsEmergency

		pumpWasOn = d.PumpOn
		out = append(out, r)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
