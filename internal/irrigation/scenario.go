package irrigation

import (
	"fmt"
	"math"

	"github.com/farmtech/irrigation/pkg/models"
)

// RiskLevel grades soil conditions.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// raise returns the more severe of r and other.
func (r RiskLevel) raise(other RiskLevel) RiskLevel {
	if other.rank() > r.rank() {
		return other
	}
	return r
}

// Severity of a recommendation or insight.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityTrend    = "trend"
	SeverityPattern  = "pattern"
)

// Note is one recommendation or insight attached to a scenario.
type Note struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// SoilAssessment grades a sample beyond the binary pump decision.
type SoilAssessment struct {
	Risk             RiskLevel `json:"risk_level"`
	EfficiencyImpact int       `json:"efficiency_impact"` // percentage points, <= 0
	Recommendations  []Note    `json:"recommendations"`
}

// AssessSoil grades humidity, pH and nutrients independently and sums
// their efficiency penalties.
func AssessSoil(in Input, th Thresholds) SoilAssessment {
	a := SoilAssessment{Risk: RiskLow, Recommendations: []Note{}}
	add := func(risk RiskLevel, penalty int, n Note) {
		a.Risk = a.Risk.raise(risk)
		a.EfficiencyImpact -= penalty
		a.Recommendations = append(a.Recommendations, n)
	}

	switch {
	case in.Humidity < th.HumidityCriticalLow:
		add(RiskHigh, 30, Note{SeverityCritical, "Critically low humidity", "Emergency irrigation required"})
	case in.Humidity < th.HumidityMinToIrrigate:
		add(RiskMedium, 15, Note{SeverityWarning, "Humidity below ideal", "Consider preventive irrigation"})
	}

	switch {
	case in.PH < th.PHCriticalMin:
		add(RiskHigh, 20, Note{SeverityCritical, "Critically low pH", "Acidity correction required"})
	case in.PH > th.PHCriticalMax:
		add(RiskHigh, 20, Note{SeverityCritical, "Critically high pH", "Alkalinity correction required"})
	case !th.PHInIdeal(in.PH):
		add(RiskMedium, 10, Note{SeverityWarning, "pH outside ideal band", "Monitor and plan correction"})
	}

	if !(in.Phosphorus && in.Potassium) {
		add(RiskMedium, 15, Note{SeverityWarning, "Nutrient deficiency", "Consider fertilization"})
	}
	return a
}

// Thresholds for history insights.
const (
	insightWindow          = 24
	insightDeviationPoints = 15.0
)

// HistoryInsights compares a hypothetical sample with recent history
// (newest first). It notes a humidity far from the recent mean and a pump
// that ran in more than half of the last 24 readings.
func HistoryInsights(in Input, history []models.SensorReading) []Note {
	notes := []Note{}
	if len(history) == 0 {
		return notes
	}
	recent := history
	if len(recent) > insightWindow {
		recent = recent[:insightWindow]
	}

	var sum float64
	pumpOn := 0
	for _, r := range recent {
		sum += r.Humidity
		if r.PumpOn {
			pumpOn++
		}
	}
	mean := sum / float64(len(recent))

	if math.Abs(in.Humidity-mean) > insightDeviationPoints {
		notes = append(notes, Note{
			Type:    SeverityTrend,
			Message: fmt.Sprintf("Humidity deviates significantly from the recent mean (%.1f%%)", mean),
			Action:  "Investigate the cause",
		})
	}
	if len(recent) >= insightWindow && pumpOn > insightWindow/2 {
		notes = append(notes, Note{
			Type:    SeverityPattern,
			Message: fmt.Sprintf("High irrigation frequency in the last %d readings", insightWindow),
			Action:  "Check system efficiency",
		})
	}
	return notes
}

// Scenario is the full what-if evaluation of one hypothetical sample.
type Scenario struct {
	Input    Input          `json:"input"`
	RainMM   *float64       `json:"rain_mm,omitempty"`
	Decision Decision       `json:"decision"`
	Soil     SoilAssessment `json:"soil"`
	Cost     *RunCost       `json:"cost,omitempty"`
	Insights []Note         `json:"insights"`
}

// Evaluate runs the engine, the soil assessment, the cost of the default
// irrigation run when the pump would turn on, and history insights.
func Evaluate(in Input, rainMM *float64, history []models.SensorReading, th Thresholds, costs Costs) Scenario {
	s := Scenario{
		Input:    in,
		RainMM:   rainMM,
		Decision: DecideWithRain(in, rainMM, th),
		Soil:     AssessSoil(in, th),
		Insights: HistoryInsights(in, history),
	}
	if s.Decision.PumpOn {
		rc := costs.ForMinutes(costs.DefaultIrrigationMinutes)
		s.Cost = &rc
	}
	return s
}
