package forecast

import (
	"math"
	"testing"
	"time"
)

func TestLinearRegression_DryingSoil(t *testing.T) {
	t.Parallel()

	// Humidity falls 2 points per hour: 40, 38, 36, 34.
	times := []float64{0, 1, 2, 3}
	values := []float64{40, 38, 36, 34}

	result := LinearRegression(times, values, 20)
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if math.Abs(result.Slope+2) > 1e-9 {
		t.Errorf("Slope = %v, want -2", result.Slope)
	}
	if math.Abs(result.Intercept-40) > 1e-9 {
		t.Errorf("Intercept = %v, want 40", result.Intercept)
	}
	if math.Abs(result.RSquared-1) > 1e-9 {
		t.Errorf("RSquared = %v, want 1", result.RSquared)
	}
	if math.Abs(result.Predicted-34) > 1e-9 {
		t.Errorf("Predicted = %v, want 34", result.Predicted)
	}
	// (20 - 34) / -2 = 7 hours.
	if result.TimeToLimit == nil {
		t.Fatal("expected TimeToLimit, got nil")
	}
	if math.Abs(result.TimeToLimit.Hours()-7) > 0.01 {
		t.Errorf("TimeToLimit = %v, want 7h", result.TimeToLimit)
	}
}

func TestLinearRegression_NoisyData(t *testing.T) {
	t.Parallel()

	times := []float64{0, 1, 2, 3, 4, 5, 6}
	values := []float64{52.1, 50.4, 49.2, 46.8, 46.1, 44.6, 43.0}

	result := LinearRegression(times, values, 20)
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	if math.Abs(result.Slope+1.5) > 0.2 {
		t.Errorf("Slope = %v, want about -1.5", result.Slope)
	}
	if result.RSquared < 0.95 || result.RSquared > 1.0 {
		t.Errorf("RSquared = %v, want between 0.95 and 1.0", result.RSquared)
	}
	if result.TimeToLimit == nil {
		t.Error("expected TimeToLimit for a drying trend")
	}
}

func TestLinearRegression_NoTimeToLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		values    []float64
		threshold float64
	}{
		{"flat", []float64{30, 30, 30, 30}, 20},
		{"wetting above threshold", []float64{30, 32, 34, 36}, 20},
		{"drying already below threshold", []float64{22, 20, 18, 16}, 20},
		{"wetting away from upper limit", []float64{2, 4, 6, 8}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LinearRegression([]float64{0, 1, 2, 3}, tt.values, tt.threshold)
			if result == nil {
				t.Fatal("expected result, got nil")
			}
			if result.TimeToLimit != nil {
				t.Errorf("TimeToLimit = %v, want nil", result.TimeToLimit)
			}
		})
	}
}

func TestLinearRegression_Degenerate(t *testing.T) {
	t.Parallel()

	if LinearRegression(nil, nil, 10) != nil {
		t.Error("empty input should return nil")
	}
	if LinearRegression([]float64{0}, []float64{5}, 10) != nil {
		t.Error("single point should return nil")
	}
	if LinearRegression([]float64{0, 1, 2}, []float64{1, 3}, 10) != nil {
		t.Error("mismatched lengths should return nil")
	}

	// All samples at the same instant.
	r := LinearRegression([]float64{5, 5, 5, 5}, []float64{10, 12, 11, 13}, 20)
	if r == nil || r.Slope != 0 || math.Abs(r.Intercept-11.5) > 1e-9 || r.Predicted != r.Intercept {
		t.Errorf("zero time variance = %+v", r)
	}
}

func TestTimeToHours(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	hours := TimeToHours([]time.Time{
		base,
		base.Add(time.Hour),
		base.Add(3*time.Hour + 30*time.Minute),
	})
	want := []float64{0, 1, 3.5}
	for i := range want {
		if math.Abs(hours[i]-want[i]) > 1e-9 {
			t.Errorf("hours[%d] = %v, want %v", i, hours[i], want[i])
		}
	}
	if TimeToHours(nil) != nil {
		t.Error("empty input should return nil")
	}
}
