package baseline

import "github.com/farmtech/irrigation/internal/insight/anomaly"

// Observation is what a Tracker concluded about one value.
type Observation struct {
	Value       float64 `json:"value"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	Normalized  float64 `json:"normalized"`
	Stable      bool    `json:"stable"`
	ChangePoint bool    `json:"change_point"`
	Direction   string  `json:"direction,omitempty"`
}

// Tracker pairs an EWMA baseline with a CUSUM detector. Values are
// scored against the baseline as it stood before they arrived, and CUSUM
// only runs once MinSamples values have been seen.
type Tracker struct {
	EWMA       *EWMA          `json:"ewma"`
	CUSUM      *anomaly.CUSUM `json:"cusum"`
	MinSamples int            `json:"min_samples"`
}

// NewTracker returns an empty tracker.
func NewTracker(alpha, drift, threshold float64, minSamples int) *Tracker {
	if minSamples < 2 {
		minSamples = 2
	}
	return &Tracker{
		EWMA:       NewEWMA(alpha),
		CUSUM:      anomaly.NewCUSUM(drift, threshold),
		MinSamples: minSamples,
	}
}

// Stable reports whether the baseline has learned enough to judge values.
func (t *Tracker) Stable() bool {
	return t.EWMA.Samples >= t.MinSamples
}

// Observe scores value and then folds it into the baseline.
func (t *Tracker) Observe(value float64) Observation {
	obs := Observation{
		Value:  value,
		Mean:   t.EWMA.Mean,
		StdDev: t.EWMA.StdDev(),
		Stable: t.Stable(),
	}
	if obs.Stable {
		obs.Normalized = t.EWMA.Normalize(value)
		r := t.CUSUM.Update(obs.Normalized)
		obs.ChangePoint = r.IsChangePoint
		obs.Direction = r.Direction
	}
	t.EWMA.Update(value)
	return obs
}
