package forecast

import "time"

// Sample is one observation of a time series.
type Sample struct {
	Time  time.Time
	Value float64
}

// Resample places samples (oldest first) on a regular grid of width
// interval starting at the first sample's bucket. Each grid point is the
// mean of the samples in its bucket; empty buckets carry the previous
// value forward. Returns the grid times and values.
func Resample(samples []Sample, interval time.Duration) ([]time.Time, []float64) {
	if len(samples) == 0 || interval <= 0 {
		return nil, nil
	}

	start := samples[0].Time.Truncate(interval)
	last := samples[len(samples)-1].Time.Truncate(interval)
	n := int(last.Sub(start)/interval) + 1
	if n < 1 {
		n = 1
	}

	sums := make([]float64, n)
	counts := make([]int, n)
	for _, s := range samples {
		i := int(s.Time.Truncate(interval).Sub(start) / interval)
		if i < 0 || i >= n {
			continue
		}
		sums[i] += s.Value
		counts[i]++
	}

	times := make([]time.Time, n)
	values := make([]float64, n)
	for i := range values {
		times[i] = start.Add(time.Duration(i) * interval)
		switch {
		case counts[i] > 0:
			values[i] = sums[i] / float64(counts[i])
		case i > 0:
			values[i] = values[i-1]
		}
	}
	return times, values
}
