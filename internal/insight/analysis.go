package insight

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/farmtech/irrigation/internal/insight/anomaly"
	"github.com/farmtech/irrigation/internal/insight/correlation"
	"github.com/farmtech/irrigation/internal/insight/describe"
	"github.com/farmtech/irrigation/internal/insight/features"
	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/pkg/analytics"
	"github.com/farmtech/irrigation/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// ErrUnknownColumn is returned for a column outside analytics.NumericColumns.
var ErrUnknownColumn = errors.New("unknown column")

// responseWindow is how many readings after a dry sample the pump has to
// react before the response counts as missed.
const responseWindow = 12

// diagnosticsMinReadings is the smallest window Diagnose will judge.
const diagnosticsMinReadings = 5

// Summarize builds the history view: per-column statistics, correlation,
// decision history and system metrics.
func Summarize(readings []models.SensorReading, th irrigation.Thresholds, now time.Time) analytics.Summary {
	rs := features.Chronological(readings)
	s := analytics.Summary{
		Readings:    len(rs),
		Columns:     describe.All(rs),
		Correlation: correlation.Pearson(rs),
		History:     History(rs, th),
		Metrics:     Metrics(rs, th),
		GeneratedAt: now,
	}
	s.Recommendations = Recommendations(s.Metrics)
	return s
}

// History counts emergencies and critical pH samples and finds the most
// frequent decision reason. Ties go to the alphabetically first reason.
func History(readings []models.SensorReading, th irrigation.Thresholds) analytics.HistorySummary {
	var h analytics.HistorySummary
	counts := make(map[string]int)
	for _, r := range readings {
		if r.IsEmergency {
			h.TotalEmergencies++
		}
		if th.PHCritical(r.PH) {
			h.PHCritical++
		}
		if r.DecisionReason != "" {
			counts[r.DecisionReason]++
		}
	}
	best := 0
	for reason, n := range counts {
		if n > best || (n == best && reason < h.MostCommonDecision) {
			best = n
			h.MostCommonDecision = reason
		}
	}
	return h
}

// Metrics computes the operational KPIs over readings sorted oldest
// first. Returns nil for an empty window.
func Metrics(rs []models.SensorReading, th irrigation.Thresholds) *analytics.SystemMetrics {
	if len(rs) == 0 {
		return nil
	}
	humidity := make([]float64, len(rs))
	ph := make([]float64, len(rs))
	m := &analytics.SystemMetrics{IrrigationCycles: Cycles(rs)}
	for i, r := range rs {
		humidity[i] = r.Humidity
		ph[i] = r.PH
		if r.Humidity < th.HumidityCriticalLow {
			m.CriticalEvents++
		}
	}
	m.AvgHumidity = stat.Mean(humidity, nil)
	if len(rs) > 1 {
		m.HumidityStd = stat.StdDev(humidity, nil)
		m.PHStd = stat.StdDev(ph, nil)
	}
	m.Efficiency = Efficiency(rs, th)
	return m
}

// Cycles counts off-to-on pump transitions in readings sorted oldest first.
func Cycles(rs []models.SensorReading) int {
	n := 0
	for i := 1; i < len(rs); i++ {
		if rs[i].PumpOn && !rs[i-1].PumpOn {
			n++
		}
	}
	return n
}

// Efficiency scores the system from 0 to 100, rounded to two decimals:
// 40% humidity control (mean distance from the ideal humidity, 2 points
// per unit), 30% pH stability (10 points per unit from the ideal pH) and
// 30% response (10 points per reading of delay between a dry sample and
// the pump switching on). A dry sample with no pump run in the following
// window counts as the full window of delay.
func Efficiency(rs []models.SensorReading, th irrigation.Thresholds) float64 {
	if len(rs) == 0 {
		return 0
	}
	hIdeal := th.HumidityIdeal()
	phIdeal := th.PHIdeal()

	var hDev, phDev float64
	for _, r := range rs {
		hDev += math.Abs(r.Humidity - hIdeal)
		phDev += math.Abs(r.PH - phIdeal)
	}
	n := float64(len(rs))
	humidityScore := math.Max(0, 100-hDev/n*2)
	phScore := math.Max(0, 100-phDev/n*10)

	responseScore := 100.0
	var delays []float64
	for i, r := range rs {
		if r.Humidity >= th.HumidityMinToIrrigate {
			continue
		}
		end := min(i+responseWindow, len(rs))
		delay := float64(end - i)
		for k := i; k < end; k++ {
			if rs[k].PumpOn {
				delay = float64(k - i)
				break
			}
		}
		delays = append(delays, delay)
	}
	if len(delays) > 0 {
		responseScore = math.Max(0, 100-stat.Mean(delays, nil)*10)
	}

	eff := 0.4*humidityScore + 0.3*phScore + 0.3*responseScore
	return math.Round(eff*100) / 100
}

// Recommendations turns the metrics into operator advice.
func Recommendations(m *analytics.SystemMetrics) []string {
	out := []string{}
	if m == nil {
		return out
	}
	if m.Efficiency < 70 {
		out = append(out, "System efficiency is below target; review irrigation thresholds and pump response.")
	}
	if m.HumidityStd > 10 {
		out = append(out, "Humidity varies widely; consider tuning the control thresholds.")
	}
	if m.PHStd > 0.5 {
		out = append(out, "Soil pH is unstable; a soil analysis is recommended.")
	}
	if m.CriticalEvents > 0 {
		out = append(out, fmt.Sprintf("%d critical humidity events detected; review alert thresholds.", m.CriticalEvents))
	}
	return out
}

// CostReport prices the pump time in readings. Each pump-on reading
// stands for intervalMinutes of pumping.
func CostReport(readings []models.SensorReading, intervalMinutes float64, c irrigation.Costs) analytics.CostReport {
	var rep analytics.CostReport
	if len(readings) == 0 {
		rep.Message = "no readings in the period"
		return rep
	}
	rs := features.Chronological(readings)
	for _, r := range rs {
		if r.PumpOn {
			rep.PumpOnReadings++
		}
	}
	rep.Cycles = Cycles(rs)
	rep.PumpOnMinutes = float64(rep.PumpOnReadings) * intervalMinutes
	if rep.PumpOnMinutes == 0 {
		rep.Message = "pump was not switched on in the period; cost is zero"
		return rep
	}
	rc := c.ForMinutes(rep.PumpOnMinutes)
	rep.WaterM3 = rc.WaterM3
	rep.WaterCost = rc.WaterCost
	rep.EnergyKWh = rc.EnergyKWh
	rep.EnergyCost = rc.EnergyCost
	rep.TotalCost = rc.Total
	return rep
}

// Diagnose compares observed behaviour with the thresholds and returns
// plain-language findings. Fewer than 5 readings yields only a message.
func Diagnose(readings []models.SensorReading, th irrigation.Thresholds) analytics.Diagnostics {
	d := analytics.Diagnostics{Readings: len(readings), Findings: []string{}}
	if len(readings) < diagnosticsMinReadings {
		d.Message = fmt.Sprintf("not enough readings for a diagnosis (have %d, need %d)", len(readings), diagnosticsMinReadings)
		return d
	}

	var pumpHumidity, ph []float64
	for _, r := range readings {
		ph = append(ph, r.PH)
		if r.PumpOn {
			pumpHumidity = append(pumpHumidity, r.Humidity)
		}
		if r.Humidity < th.HumidityCriticalLow {
			d.CriticalHumidityCount++
		}
		if th.PHCritical(r.PH) {
			d.CriticalPHCount++
		}
	}

	if len(pumpHumidity) == 0 {
		d.Findings = append(d.Findings, "The pump was not switched on in the period.")
	} else {
		mean := stat.Mean(pumpHumidity, nil)
		d.MeanHumidityAtPumpOn = &mean
		switch {
		case mean < th.HumidityMinToIrrigate-5:
			d.Findings = append(d.Findings, fmt.Sprintf(
				"The pump switches on at %.1f%% humidity, well below the %.1f%% threshold; check the threshold or the system response time.",
				mean, th.HumidityMinToIrrigate))
		case mean > th.HumidityMinToIrrigate+5:
			d.Findings = append(d.Findings, fmt.Sprintf(
				"The pump switches on at %.1f%% humidity, still above the %.1f%% threshold; consider lowering it to save water.",
				mean, th.HumidityMinToIrrigate))
		}
	}

	d.MeanPH = stat.Mean(ph, nil)
	if !th.PHInIdeal(d.MeanPH) {
		d.Findings = append(d.Findings, fmt.Sprintf(
			"Mean pH %.1f is outside the ideal band (%.1f-%.1f); nutrient uptake may suffer, consider soil correction.",
			d.MeanPH, th.PHIdealMin, th.PHIdealMax))
	}

	limit := float64(len(readings)) * 0.1
	if float64(d.CriticalHumidityCount) > limit {
		d.Findings = append(d.Findings, "Critical humidity is frequent; review irrigation frequency or the emergency thresholds.")
	}
	if float64(d.CriticalPHCount) > limit {
		d.Findings = append(d.Findings, "Critical pH is frequent; prioritise soil pH correction.")
	}
	return d
}

// Anomalies scores one column of readings (oldest first in the result).
// Readings without a value for the column are left out.
func Anomalies(readings []models.SensorReading, column string, threshold float64, method anomaly.Method) (analytics.AnomalyReport, error) {
	valid := false
	for _, c := range analytics.NumericColumns {
		if c == column {
			valid = true
		}
	}
	if !valid {
		return analytics.AnomalyReport{}, fmt.Errorf("%w %q", ErrUnknownColumn, column)
	}

	rs := features.Chronological(readings)
	kept := make([]models.SensorReading, 0, len(rs))
	for _, r := range rs {
		if column != analytics.ColumnTemperature || r.Temperature != nil {
			kept = append(kept, r)
		}
	}
	values := describe.Column(kept, column)
	scores := anomaly.Score(values, threshold, method)

	rep := analytics.AnomalyReport{
		Column:    column,
		Method:    string(method),
		Threshold: threshold,
		Rows:      make([]analytics.AnomalyRow, len(kept)),
	}
	for i, r := range kept {
		row := analytics.AnomalyRow{
			ReadingID: r.ID,
			Timestamp: r.Timestamp,
			Value:     values[i],
			Anomaly:   scores[i].IsAnomaly,
		}
		if scores[i].Defined {
			z := scores[i].ZScore
			row.ZScore = &z
		}
		if row.Anomaly {
			rep.Flagged++
		}
		rep.Rows[i] = row
	}
	return rep, nil
}
