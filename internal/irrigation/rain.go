package irrigation

import "fmt"

// ApplyRain folds a rain forecast into a base decision. Only a positive
// irrigate decision can be overridden; emergencies are never suppressed.
// rainMM is nil when no forecast is available.
func ApplyRain(d Decision, rainMM *float64, th Thresholds) Decision {
	if rainMM != nil && d.Rule == RuleIrrigate && *rainMM > th.SignificantRainMM {
		return Decision{
			Rule: RuleRainOverride,
			Reason: fmt.Sprintf("BASE DECISION: turn on (%s). WEATHER ADJUSTMENT: turn off (rain: %.1f mm)",
				d.Reason, *rainMM),
		}
	}

	if rainMM != nil && *rainMM > 0 {
		d.Reason += fmt.Sprintf(" (rain: %.1f mm)", *rainMM)
	} else {
		d.Reason += " (no rain forecast)"
	}
	return d
}

// DecideWithRain is Decide followed by ApplyRain.
func DecideWithRain(in Input, rainMM *float64, th Thresholds) Decision {
	return ApplyRain(Decide(in, th), rainMM, th)
}
