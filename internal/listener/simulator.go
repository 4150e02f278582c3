package listener

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/farmtech/irrigation/pkg/models"
)

// Simulator produces plausible field samples around fixed baselines.
// A Simulator is not safe for concurrent use; each listener owns one.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator returns a simulator seeded with seed. The same seed always
// yields the same sequence.
func NewSimulator(seed uint64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Sample draws one reading taken at ts. Decision columns are left empty.
//
//	humidity    30 + U(-10, 15)  in [0, 100]
//	pH          6.5 + U(-1, 1)   in [0, 14]
//	temperature 25 + U(-5, 10)   in [0, 50]
//	P, K        present with probability 0.9
func (s *Simulator) Sample(ts time.Time) models.SensorReading {
	humidity := clamp(30+s.uniform(-10, 15), models.HumidityMin, models.HumidityMax)
	ph := clamp(6.5+s.uniform(-1, 1), models.PHMin, models.PHMax)
	temperature := clamp(25+s.uniform(-5, 10), 0, 50)

	return models.SensorReading{
		Timestamp:         ts,
		Humidity:          round1(humidity),
		PH:                round1(ph),
		PhosphorusPresent: s.rng.Float64() > 0.1,
		PotassiumPresent:  s.rng.Float64() > 0.1,
		Temperature:       models.Float(round1(temperature)),
	}
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
