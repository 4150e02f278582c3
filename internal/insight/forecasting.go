package insight

import (
	"fmt"
	"math"
	"time"

	"github.com/farmtech/irrigation/internal/insight/features"
	"github.com/farmtech/irrigation/internal/insight/forecast"
	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/pkg/analytics"
	"github.com/farmtech/irrigation/pkg/models"
)

// trendWindow is how many of the newest raw readings feed the drying trend.
const trendWindow = 24

// BuildForecast resamples humidity onto the configured grid, fits the
// ARIMA model and projects settings.Steps points past the last grid time.
// Projections are clamped to 0-100 %. A series shorter than MinPoints
// returns *forecast.InsufficientDataError.
func BuildForecast(readings []models.SensorReading, s ForecastSettings, th irrigation.Thresholds, now time.Time) (*analytics.Forecast, error) {
	rs := features.Chronological(readings)
	samples := make([]forecast.Sample, len(rs))
	for i, r := range rs {
		samples[i] = forecast.Sample{Time: r.Timestamp, Value: r.Humidity}
	}
	times, values := forecast.Resample(samples, s.Interval())

	need := max(s.MinPoints, forecast.MinPoints)
	if len(values) < need {
		return nil, &forecast.InsufficientDataError{Stage: "arima fit", Have: len(values), Need: need}
	}

	model, err := forecast.Fit(values, s.ARIMA)
	if err != nil {
		return nil, err
	}
	projected := model.Forecast(s.Steps)

	last := times[len(times)-1]
	fc := &analytics.Forecast{
		Order:       [3]int{s.ARIMA.P, s.ARIMA.D, s.ARIMA.Q},
		Interval:    s.Interval(),
		HistorySize: len(values),
		Sigma2:      model.Sigma2,
		Points:      make([]analytics.ForecastPoint, len(projected)),
		Trend:       Trend(rs, th.HumidityMinToIrrigate),
		GeneratedAt: now,
	}
	for i, v := range projected {
		fc.Points[i] = analytics.ForecastPoint{
			Timestamp: last.Add(time.Duration(i+1) * s.Interval()),
			Humidity:  math.Max(0, math.Min(100, v)),
		}
	}
	if s.AlertEnabled {
		fc.Alert = ForecastAlert(fc.Points, th.HumidityMinToIrrigate)
	}
	return fc, nil
}

// ForecastAlert returns an alert when any point falls below threshold.
func ForecastAlert(points []analytics.ForecastPoint, threshold float64) *analytics.ForecastAlert {
	var alert *analytics.ForecastAlert
	for _, p := range points {
		if p.Humidity >= threshold {
			continue
		}
		if alert == nil {
			alert = &analytics.ForecastAlert{Threshold: threshold, FirstAt: p.Timestamp, MinValue: p.Humidity}
			continue
		}
		alert.MinValue = math.Min(alert.MinValue, p.Humidity)
	}
	if alert != nil {
		alert.Message = fmt.Sprintf("humidity projected to fall below %.1f%% at %s (minimum %.1f%%)",
			threshold, alert.FirstAt.Format(time.RFC3339), alert.MinValue)
	}
	return alert
}

// Trend fits a line through the newest readings (oldest first). Returns
// nil with fewer than 2 readings.
func Trend(rs []models.SensorReading, threshold float64) *analytics.Trend {
	if len(rs) > trendWindow {
		rs = rs[len(rs)-trendWindow:]
	}
	ts := make([]time.Time, len(rs))
	values := make([]float64, len(rs))
	for i, r := range rs {
		ts[i] = r.Timestamp
		values[i] = r.Humidity
	}
	res := forecast.LinearRegression(forecast.TimeToHours(ts), values, threshold)
	if res == nil {
		return nil
	}
	return &analytics.Trend{
		SlopePerHour:    res.Slope,
		RSquared:        res.RSquared,
		Threshold:       threshold,
		TimeToThreshold: res.TimeToLimit,
	}
}
