// Package irrigation holds the pump decision engine. Decide is the only
// place the irrigation rules live; the listener, the what-if endpoints,
// seed data and MQTT ingest all call it.
package irrigation

import "fmt"

// Rule identifies which branch of the engine produced a decision.
type Rule string

const (
	RuleHumidityCritical     Rule = "humidity_critical"
	RulePHCritical           Rule = "ph_critical"
	RuleIrrigate             Rule = "irrigate"
	RuleLowHumidityPHBlocked Rule = "low_humidity_ph_blocked"
	RuleHumidityHigh         Rule = "humidity_high"
	RuleNormal               Rule = "normal"
	RuleRainOverride         Rule = "rain_override"
)

// Input is one soil sample as seen by the engine.
type Input struct {
	Humidity   float64 `json:"humidity"`
	PH         float64 `json:"ph"`
	Phosphorus bool    `json:"phosphorus_present"`
	Potassium  bool    `json:"potassium_present"`
}

// Decision is the pump command and its justification.
type Decision struct {
	PumpOn      bool   `json:"pump_on"`
	Reason      string `json:"reason"`
	IsEmergency bool   `json:"is_emergency"`
	Rule        Rule   `json:"rule"`
}

// Decide evaluates in against th. Rules are checked in priority order and
// the first match wins:
//
//  1. humidity below the critical floor forces the pump on (emergency)
//  2. pH outside the critical band blocks irrigation (emergency)
//  3. low humidity irrigates only when pH is ideal
//  4. humidity above the stop level keeps the pump off
//  5. otherwise conditions are normal and the pump stays off
//
// Decide has no side effects and accepts any numeric input.
func Decide(in Input, th Thresholds) Decision {
	h, ph := in.Humidity, in.PH

	if h < th.HumidityCriticalLow {
		return Decision{
			PumpOn:      true,
			IsEmergency: true,
			Rule:        RuleHumidityCritical,
			Reason:      fmt.Sprintf("EMERGENCY: critical humidity (%.1f%%)", h),
		}
	}

	if th.PHCritical(ph) {
		return Decision{
			IsEmergency: true,
			Rule:        RulePHCritical,
			Reason:      fmt.Sprintf("Critical pH (%.1f) - irrigation blocked", ph),
		}
	}

	if h < th.HumidityMinToIrrigate {
		if th.PHInIdeal(ph) {
			return Decision{
				PumpOn: true,
				Rule:   RuleIrrigate,
				Reason: fmt.Sprintf("Low humidity (%.1f%%), ideal pH, %s", h, nutrientState(in.Phosphorus, in.Potassium)),
			}
		}
		return Decision{
			Rule:   RuleLowHumidityPHBlocked,
			Reason: fmt.Sprintf("Low humidity (%.1f%%) but pH not ideal (%.1f)", h, ph),
		}
	}

	if h > th.HumidityHighStop {
		return Decision{
			Rule:   RuleHumidityHigh,
			Reason: fmt.Sprintf("High humidity (%.1f%%) - irrigation unnecessary", h),
		}
	}

	return Decision{
		Rule:   RuleNormal,
		Reason: fmt.Sprintf("Normal conditions - pump off (humidity: %.1f%%)", h),
	}
}

func nutrientState(p, k bool) string {
	switch {
	case p && k:
		return "nutrients OK"
	case p || k:
		return "partial nutrients"
	default:
		return "no nutrients"
	}
}
