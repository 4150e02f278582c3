package insight

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/farmtech/irrigation/internal/insight/forecast"
	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/internal/testutil"
	"github.com/farmtech/irrigation/pkg/analytics"
)

func flatSeries(n int, humidity float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = humidity
	}
	return out
}

func TestBuildForecast_InsufficientData(t *testing.T) {
	rs := testutil.Series(5*time.Minute, flatSeries(10, 40)...)
	_, err := BuildForecast(rs, DefaultForecastSettings(), irrigation.DefaultThresholds(), testutil.BaseTime)

	var insufficient *forecast.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientDataError", err)
	}
	if insufficient.Have != 10 || insufficient.Need != 20 {
		t.Errorf("have/need = %d/%d, want 10/20", insufficient.Have, insufficient.Need)
	}
	if insufficient.Stage != "arima fit" {
		t.Errorf("Stage = %q, want arima fit", insufficient.Stage)
	}
}

func TestBuildForecast_FlatSeries(t *testing.T) {
	s := DefaultForecastSettings()
	rs := testutil.NewestFirst(testutil.Series(5*time.Minute, flatSeries(30, 45)...))
	now := testutil.BaseTime.Add(3 * time.Hour)

	fc, err := BuildForecast(rs, s, irrigation.DefaultThresholds(), now)
	if err != nil {
		t.Fatalf("BuildForecast: %v", err)
	}
	if fc.HistorySize != 30 {
		t.Errorf("HistorySize = %d, want 30", fc.HistorySize)
	}
	if fc.Order != [3]int{1, 1, 1} {
		t.Errorf("Order = %v, want [1 1 1]", fc.Order)
	}
	if len(fc.Points) != s.Steps {
		t.Fatalf("points = %d, want %d", len(fc.Points), s.Steps)
	}
	last := testutil.BaseTime.Add(29 * 5 * time.Minute)
	for i, p := range fc.Points {
		want := last.Add(time.Duration(i+1) * 5 * time.Minute)
		if !p.Timestamp.Equal(want) {
			t.Errorf("point %d at %v, want %v", i, p.Timestamp, want)
		}
		if math.Abs(p.Humidity-45) > 1e-6 {
			t.Errorf("point %d humidity = %v, want 45", i, p.Humidity)
		}
	}
	if fc.Alert != nil {
		t.Errorf("unexpected alert: %+v", fc.Alert)
	}
	if fc.Trend == nil || fc.Trend.SlopePerHour != 0 || fc.Trend.TimeToThreshold != nil {
		t.Errorf("Trend = %+v, want flat with no crossing", fc.Trend)
	}
}

func TestBuildForecast_Alert(t *testing.T) {
	th := irrigation.DefaultThresholds()
	th.HumidityMinToIrrigate = 50
	rs := testutil.Series(5*time.Minute, flatSeries(25, 45)...)

	fc, err := BuildForecast(rs, DefaultForecastSettings(), th, testutil.BaseTime)
	if err != nil {
		t.Fatalf("BuildForecast: %v", err)
	}
	if fc.Alert == nil {
		t.Fatal("expected an alert below 50%")
	}
	if !fc.Alert.FirstAt.Equal(fc.Points[0].Timestamp) {
		t.Errorf("FirstAt = %v, want first point", fc.Alert.FirstAt)
	}

	s := DefaultForecastSettings()
	s.AlertEnabled = false
	fc, err = BuildForecast(rs, s, th, testutil.BaseTime)
	if err != nil {
		t.Fatalf("BuildForecast: %v", err)
	}
	if fc.Alert != nil {
		t.Error("alert raised while disabled")
	}
}

func TestForecastAlert(t *testing.T) {
	base := testutil.BaseTime
	points := []analytics.ForecastPoint{
		{Timestamp: base, Humidity: 25},
		{Timestamp: base.Add(time.Minute), Humidity: 19},
		{Timestamp: base.Add(2 * time.Minute), Humidity: 17},
		{Timestamp: base.Add(3 * time.Minute), Humidity: 18},
	}
	a := ForecastAlert(points, 20)
	if a == nil {
		t.Fatal("ForecastAlert = nil")
	}
	if !a.FirstAt.Equal(base.Add(time.Minute)) {
		t.Errorf("FirstAt = %v", a.FirstAt)
	}
	if a.MinValue != 17 {
		t.Errorf("MinValue = %v, want 17", a.MinValue)
	}
	if a.Message == "" {
		t.Error("Message is empty")
	}
	if ForecastAlert(points[:1], 20) != nil {
		t.Error("alert for points above threshold")
	}
}

func TestTrend_Drying(t *testing.T) {
	// 30 readings falling 1 point every 5 minutes; only the last 24 count.
	values := make([]float64, 30)
	for i := range values {
		values[i] = 53 - float64(i)
	}
	rs := testutil.Series(5*time.Minute, values...)

	tr := Trend(rs, 20)
	if tr == nil {
		t.Fatal("Trend = nil")
	}
	if math.Abs(tr.SlopePerHour+12) > 1e-9 {
		t.Errorf("SlopePerHour = %v, want -12", tr.SlopePerHour)
	}
	if math.Abs(tr.RSquared-1) > 1e-9 {
		t.Errorf("RSquared = %v, want 1", tr.RSquared)
	}
	// Last value 24, falling 12/h: 20% is 20 minutes away.
	if tr.TimeToThreshold == nil || (*tr.TimeToThreshold-20*time.Minute).Abs() > time.Second {
		t.Errorf("TimeToThreshold = %v, want 20m", tr.TimeToThreshold)
	}
	if Trend(rs[:1], 20) != nil {
		t.Error("Trend of one reading should be nil")
	}
}
