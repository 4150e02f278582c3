package correlation

import (
	"math"
	"testing"

	"github.com/farmtech/irrigation/internal/testutil"
	"github.com/farmtech/irrigation/pkg/models"
)

func TestCoefficient(t *testing.T) {
	tests := []struct {
		name   string
		x, y   []float64
		want   float64
		wantOK bool
	}{
		{"perfect positive", []float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}, 1, true},
		{"perfect negative", []float64{1, 2, 3, 4}, []float64{8, 6, 4, 2}, -1, true},
		{"constant side", []float64{1, 2, 3}, []float64{5, 5, 5}, 0, false},
		{"single point", []float64{1}, []float64{2}, 0, false},
		{"length mismatch", []float64{1, 2}, []float64{1}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Coefficient(tt.x, tt.y)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("r = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPearson_Matrix(t *testing.T) {
	// pH tracks humidity exactly; temperature runs against it.
	var readings []models.SensorReading
	for i, h := range []float64{20, 30, 40, 50} {
		readings = append(readings, testutil.NewReading(
			testutil.WithHumidity(h),
			testutil.WithPH(5+float64(i)*0.5),
			testutil.WithTemperature(models.Float(30-float64(i))),
		))
	}

	m := Pearson(readings)
	if len(m.Columns) != 3 || m.Columns[0] != "humidity" {
		t.Fatalf("Columns = %v", m.Columns)
	}
	for i := range m.Columns {
		if m.Values[i][i] == nil || *m.Values[i][i] != 1 {
			t.Errorf("diagonal[%d] = %v, want 1", i, m.Values[i][i])
		}
		for j := range m.Columns {
			if (m.Values[i][j] == nil) != (m.Values[j][i] == nil) {
				t.Fatalf("asymmetric nil at %d,%d", i, j)
			}
			if m.Values[i][j] != nil && *m.Values[i][j] != *m.Values[j][i] {
				t.Errorf("asymmetric value at %d,%d", i, j)
			}
		}
	}
	if got := *m.Values[0][1]; math.Abs(got-1) > 1e-9 {
		t.Errorf("humidity/ph = %v, want 1", got)
	}
	if got := *m.Values[0][2]; math.Abs(got+1) > 1e-9 {
		t.Errorf("humidity/temperature = %v, want -1", got)
	}
}

func TestPearson_MissingTemperatureDroppedPairwise(t *testing.T) {
	readings := []models.SensorReading{
		testutil.NewReading(testutil.WithHumidity(10), testutil.WithPH(5.0), testutil.WithTemperature(models.Float(20))),
		testutil.NewReading(testutil.WithHumidity(20), testutil.WithPH(5.5), testutil.WithTemperature(nil)),
		testutil.NewReading(testutil.WithHumidity(30), testutil.WithPH(6.0), testutil.WithTemperature(nil)),
	}
	m := Pearson(readings)

	if m.Values[0][1] == nil {
		t.Error("humidity/ph should use all three rows")
	}
	if m.Values[0][2] != nil || m.Values[2][2] != nil {
		t.Error("temperature pairs have a single complete row and must be nil")
	}
}

func TestPearson_Empty(t *testing.T) {
	m := Pearson(nil)
	for i := range m.Values {
		for j := range m.Values[i] {
			if m.Values[i][j] != nil {
				t.Fatalf("value at %d,%d on empty input", i, j)
			}
		}
	}
}
