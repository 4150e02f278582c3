package anomaly

import "math"

// Shift directions reported by CUSUM.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// CUSUMResult contains the result of a CUSUM check.
type CUSUMResult struct {
	IsChangePoint bool
	Direction     string
	CUSUMHigh     float64 // Upper cumulative sum
	CUSUMLow      float64 // Lower cumulative sum
}

// CUSUM tracks cumulative sums of normalized deviations to detect a
// sustained shift, such as soil drying faster than usual or a pH probe
// drifting.
type CUSUM struct {
	Drift     float64 // Allowable slack k, in standard deviations
	Threshold float64 // Decision threshold h
	High      float64 // S+
	Low       float64 // S-
}

// NewCUSUM creates a new CUSUM detector.
func NewCUSUM(drift, threshold float64) *CUSUM {
	return &CUSUM{
		Drift:     drift,
		Threshold: threshold,
	}
}

// Update feeds one normalized value, (value - mean) / stdDev. The side
// that crosses the threshold is reset after reporting.
func (c *CUSUM) Update(normalized float64) CUSUMResult {
	c.High = math.Max(0, c.High+normalized-c.Drift)
	c.Low = math.Max(0, c.Low-normalized-c.Drift)

	result := CUSUMResult{
		CUSUMHigh: c.High,
		CUSUMLow:  c.Low,
	}

	if c.High > c.Threshold {
		result.IsChangePoint = true
		result.Direction = DirectionUp
		c.High = 0
	}
	if c.Low > c.Threshold {
		result.IsChangePoint = true
		result.Direction = DirectionDown
		c.Low = 0
	}
	return result
}

// Reset clears the accumulators.
func (c *CUSUM) Reset() {
	c.High = 0
	c.Low = 0
}
