package anomaly

import (
	"math"
	"testing"
)

func TestZScoreCheck(t *testing.T) {
	tests := []struct {
		name         string
		value        float64
		mean         float64
		stdDev       float64
		wantAnomaly  bool
		wantZ        float64
		wantSeverity string
	}{
		{"at mean", 40, 40, 5, false, 0, ""},
		{"within band", 47, 40, 5, false, 1.4, ""},
		{"exactly at threshold is not flagged", 55, 40, 5, false, 3, ""},
		{"beyond threshold", 56, 40, 5, true, 3.2, SeverityWarning},
		{"critical high", 60, 40, 5, true, 4, SeverityCritical},
		{"critical low", 18, 40, 5, true, -4.4, SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ZScoreCheck(tt.value, tt.mean, tt.stdDev, 3.0)
			if got.IsAnomaly != tt.wantAnomaly {
				t.Errorf("IsAnomaly = %v, want %v", got.IsAnomaly, tt.wantAnomaly)
			}
			if math.Abs(got.ZScore-tt.wantZ) > 1e-9 {
				t.Errorf("ZScore = %v, want %v", got.ZScore, tt.wantZ)
			}
			if got.Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", got.Severity, tt.wantSeverity)
			}
			if !got.Defined {
				t.Error("Defined = false with positive stdDev")
			}
		})
	}
}

func TestZScoreCheck_NonPositiveStdDev(t *testing.T) {
	for _, sd := range []float64{0, -1} {
		got := ZScoreCheck(90, 40, sd, 3)
		if got.IsAnomaly || got.Defined || got.ZScore != 0 {
			t.Errorf("stdDev %v: got %+v, want zero result", sd, got)
		}
	}
}

func TestFlagZScore(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		threshold float64
		want      []bool
	}{
		{"empty", nil, 3, []bool{}},
		{"constant series", []float64{30, 30, 30}, 3, []bool{false, false, false}},
		// Population z of the spike is exactly 2.0.
		{"spike at 3.0", []float64{10, 10, 10, 10, 100}, 3, []bool{false, false, false, false, false}},
		{"spike at 2.0", []float64{10, 10, 10, 10, 100}, 2, []bool{false, false, false, false, false}},
		{"spike at 1.9", []float64{10, 10, 10, 10, 100}, 1.9, []bool{false, false, false, false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlagZScore(tt.values, tt.threshold)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("flag[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScore_PopulationSpikeIsTwo(t *testing.T) {
	got := Score([]float64{10, 10, 10, 10, 100}, 3, MethodPopulation)
	if math.Abs(got[4].ZScore-2.0) > 1e-12 {
		t.Errorf("z of spike = %v, want 2.0", got[4].ZScore)
	}
}

func TestFlagLeaveOneOut(t *testing.T) {
	got := FlagLeaveOneOut([]float64{10, 10, 10, 10, 100}, 3)
	want := []bool{false, false, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("flag[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	scores := Score([]float64{10, 10, 10, 10, 100}, 3, MethodLeaveOneOut)
	if !math.IsInf(scores[4].ZScore, 1) || scores[4].Defined {
		t.Errorf("spike against constant remainder = %+v, want +Inf undefined", scores[4])
	}
	if scores[4].Severity != SeverityCritical {
		t.Errorf("Severity = %q, want critical", scores[4].Severity)
	}
}

func TestFlagLeaveOneOut_EdgeCases(t *testing.T) {
	if got := FlagLeaveOneOut([]float64{42}, 3); len(got) != 1 || got[0] {
		t.Errorf("single value = %v, want [false]", got)
	}
	if got := FlagLeaveOneOut([]float64{7, 7, 7}, 3); got[0] || got[1] || got[2] {
		t.Errorf("constant series = %v, want all false", got)
	}
	// Noisy series with one outlier.
	values := []float64{30, 32, 29, 31, 30, 33, 28, 31, 30, 5}
	got := FlagLeaveOneOut(values, 3)
	for i, f := range got {
		if f != (i == 9) {
			t.Errorf("flag[%d] = %v", i, f)
		}
	}
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{
		"":              MethodPopulation,
		"population":    MethodPopulation,
		"leave_one_out": MethodLeaveOneOut,
	} {
		got, err := ParseMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMethod("iqr"); err == nil {
		t.Error("ParseMethod(iqr) accepted")
	}
}

func TestCUSUM_DetectsDryingShift(t *testing.T) {
	c := NewCUSUM(0.5, 5.0)
	for i, v := range []float64{0.3, -0.2, 0.4, -0.1, 0.2, -0.3, 0.1} {
		if c.Update(v).IsChangePoint {
			t.Fatalf("change point on stable input at %d", i)
		}
	}

	detected := false
	for i := 0; i < 20; i++ {
		r := c.Update(-1.0)
		if r.IsChangePoint {
			detected = true
			if r.Direction != DirectionDown {
				t.Errorf("Direction = %q, want down", r.Direction)
			}
			if c.Low != 0 {
				t.Error("Low not reset after detection")
			}
			break
		}
	}
	if !detected {
		t.Fatal("sustained downward shift not detected")
	}
}

func TestCUSUM_UpAndReset(t *testing.T) {
	c := NewCUSUM(0.5, 5.0)
	var last CUSUMResult
	for i := 0; i < 20 && !last.IsChangePoint; i++ {
		last = c.Update(1.0)
	}
	if !last.IsChangePoint || last.Direction != DirectionUp {
		t.Fatalf("upward shift = %+v", last)
	}
	c.Update(0.9)
	c.Reset()
	if c.High != 0 || c.Low != 0 {
		t.Errorf("after Reset High=%v Low=%v", c.High, c.Low)
	}
}
