package irrigation

import (
	"math"
	"testing"

	"github.com/farmtech/irrigation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessSoil(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name    string
		in      Input
		risk    RiskLevel
		impact  int
		advices int
	}{
		{"healthy soil", Input{Humidity: 40, PH: 6.0, Phosphorus: true, Potassium: true}, RiskLow, 0, 0},
		{"critical humidity", Input{Humidity: 10, PH: 6.0, Phosphorus: true, Potassium: true}, RiskHigh, -30, 1},
		{"low humidity and no nutrients", Input{Humidity: 18, PH: 6.0}, RiskMedium, -30, 2},
		{"high pH", Input{Humidity: 40, PH: 8.0, Phosphorus: true, Potassium: true}, RiskHigh, -20, 1},
		{"non-ideal pH keeps high risk", Input{Humidity: 10, PH: 7.0, Phosphorus: true, Potassium: true}, RiskHigh, -40, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := AssessSoil(tc.in, th)
			assert.Equal(t, tc.risk, a.Risk)
			assert.Equal(t, tc.impact, a.EfficiencyImpact)
			assert.Len(t, a.Recommendations, tc.advices)
		})
	}
}

func TestCosts_ForMinutes(t *testing.T) {
	c := DefaultCosts()
	rc := c.ForMinutes(60)

	assert.InDelta(t, 1.0, rc.WaterM3, 1e-9)
	assert.InDelta(t, 5.0, rc.WaterCost, 1e-9)
	assert.InDelta(t, 0.75, rc.EnergyKWh, 1e-9)
	assert.InDelta(t, 0.5625, rc.EnergyCost, 1e-9)
	assert.InDelta(t, 5.5625, rc.Total, 1e-9)
}

func history(n int, humidity float64, pumpOn bool) []models.SensorReading {
	out := make([]models.SensorReading, n)
	for i := range out {
		out[i] = models.SensorReading{Humidity: humidity, PumpOn: pumpOn}
	}
	return out
}

func TestHistoryInsights(t *testing.T) {
	in := Input{Humidity: 18, PH: 6.0}

	assert.Empty(t, HistoryInsights(in, nil))

	notes := HistoryInsights(in, history(10, 50, false))
	require.Len(t, notes, 1)
	assert.Equal(t, SeverityTrend, notes[0].Type)

	notes = HistoryInsights(in, history(30, 20, true))
	require.Len(t, notes, 1)
	assert.Equal(t, SeverityPattern, notes[0].Type)

	// Fewer than 24 readings never raise the frequency note.
	assert.Empty(t, HistoryInsights(in, history(20, 20, true)))
}

func TestEvaluate(t *testing.T) {
	th, costs := DefaultThresholds(), DefaultCosts()

	s := Evaluate(Input{Humidity: 18, PH: 6.0, Phosphorus: true, Potassium: true}, nil, nil, th, costs)
	require.True(t, s.Decision.PumpOn)
	require.NotNil(t, s.Cost)
	assert.InDelta(t, costs.ForMinutes(15).Total, s.Cost.Total, 1e-9)
	assert.Equal(t, RiskMedium, s.Soil.Risk)

	rain := 3.0
	s = Evaluate(Input{Humidity: 18, PH: 6.0, Phosphorus: true, Potassium: true}, &rain, nil, th, costs)
	assert.False(t, s.Decision.PumpOn)
	assert.Nil(t, s.Cost)
	assert.Equal(t, RuleRainOverride, s.Decision.Rule)
}

func TestThresholds_Midpoints(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, 40.0, th.HumidityIdeal())
	assert.False(t, math.IsNaN(th.PHIdeal()))
	assert.InDelta(t, 6.0, th.PHIdeal(), 1e-9)
}
