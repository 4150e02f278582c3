// Package anomaly flags unusual sensor values: batch z-scores over a
// column of readings, and a CUSUM detector for sustained shifts in a live
// stream.
package anomaly

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Severity levels for detected anomalies.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Method selects how the reference mean and deviation are computed.
type Method string

const (
	// MethodPopulation scores every value against the whole series
	// (population standard deviation).
	MethodPopulation Method = "population"
	// MethodLeaveOneOut scores each value against the other values only,
	// so a single spike cannot inflate its own reference deviation.
	MethodLeaveOneOut Method = "leave_one_out"
)

// ParseMethod accepts "" (population), "population" or "leave_one_out".
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodPopulation:
		return MethodPopulation, nil
	case MethodLeaveOneOut:
		return MethodLeaveOneOut, nil
	}
	return "", fmt.Errorf("unknown anomaly method %q (want %s or %s)", s, MethodPopulation, MethodLeaveOneOut)
}

// ZScoreResult contains the result of a Z-score check.
type ZScoreResult struct {
	IsAnomaly bool
	ZScore    float64
	Severity  string
	// Defined is false when the reference deviation was zero. ZScore is
	// then 0, or ±Inf for a value that differs from a constant reference.
	Defined bool
}

// ZScoreCheck evaluates value against a reference mean and standard
// deviation. |z| strictly above threshold is anomalous; |z| at or beyond
// threshold+1 is critical. A non-positive stdDev is never anomalous.
func ZScoreCheck(value, mean, stdDev, threshold float64) ZScoreResult {
	if stdDev <= 0 {
		return ZScoreResult{}
	}
	z := (value - mean) / stdDev
	absZ := math.Abs(z)

	if absZ <= threshold {
		return ZScoreResult{ZScore: z, Defined: true}
	}

	severity := SeverityWarning
	if absZ >= threshold+1 {
		severity = SeverityCritical
	}
	return ZScoreResult{
		IsAnomaly: true,
		ZScore:    z,
		Severity:  severity,
		Defined:   true,
	}
}

// Score runs ZScoreCheck over values with the reference chosen by method.
// The result has one entry per value; empty input returns an empty slice.
func Score(values []float64, threshold float64, method Method) []ZScoreResult {
	out := make([]ZScoreResult, len(values))
	if len(values) == 0 {
		return out
	}

	if method == MethodLeaveOneOut {
		others := make([]float64, 0, len(values)-1)
		for i, v := range values {
			others = append(others[:0], values[:i]...)
			others = append(others, values[i+1:]...)
			if len(others) == 0 {
				continue
			}
			mean, std := stat.PopMeanStdDev(others, nil)
			if std == 0 {
				if v != mean {
					out[i] = ZScoreResult{
						IsAnomaly: true,
						ZScore:    math.Copysign(math.Inf(1), v-mean),
						Severity:  SeverityCritical,
					}
				}
				continue
			}
			out[i] = ZScoreCheck(v, mean, std, threshold)
		}
		return out
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	for i, v := range values {
		out[i] = ZScoreCheck(v, mean, std, threshold)
	}
	return out
}

// FlagZScore reports |z| > threshold for each value using the population
// mean and standard deviation. Zero variance flags nothing.
func FlagZScore(values []float64, threshold float64) []bool {
	return flags(Score(values, threshold, MethodPopulation))
}

// FlagLeaveOneOut is FlagZScore with each value excluded from its own
// reference statistics.
func FlagLeaveOneOut(values []float64, threshold float64) []bool {
	return flags(Score(values, threshold, MethodLeaveOneOut))
}

func flags(results []ZScoreResult) []bool {
	out := make([]bool, len(results))
	for i, r := range results {
		out[i] = r.IsAnomaly
	}
	return out
}
