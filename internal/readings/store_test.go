package readings

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/farmtech/irrigation/internal/store"
	"github.com/farmtech/irrigation/internal/testutil"
	"github.com/farmtech/irrigation/pkg/models"
)

func newTestStore(t *testing.T) *ReadingStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), "readings", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db.DB())
}

func TestAddThenGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 10, 15, 30, 123456789, time.FixedZone("BRT", -3*3600))
	in := testutil.NewReading(
		testutil.WithTimestamp(ts),
		testutil.WithHumidity(14.2),
		testutil.WithPH(5.1),
		testutil.WithPump(true, "EMERGENCY: critical humidity (14.2%)"),
		testutil.WithEmergency(),
	)
	if err := s.Add(ctx, &in); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if in.ID == 0 {
		t.Fatal("Add did not assign an ID")
	}

	got, err := s.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}
	if got.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp location = %v, want UTC", got.Timestamp.Location())
	}
	if got.Humidity != 14.2 || got.PH != 5.1 {
		t.Errorf("humidity/ph = %v/%v, want 14.2/5.1", got.Humidity, got.PH)
	}
	if !got.PumpOn || !got.IsEmergency || got.DecisionReason != in.DecisionReason {
		t.Errorf("decision columns = %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 24 {
		t.Errorf("Temperature = %v, want 24", got.Temperature)
	}
}

func TestAdd_DefaultsTimestampToNow(t *testing.T) {
	s := newTestStore(t)
	r := testutil.NewReading(testutil.WithTimestamp(time.Time{}))

	before := time.Now().UTC()
	if err := s.Add(context.Background(), &r); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if r.Timestamp.Before(before) || r.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp = %v, want >= %v in UTC", r.Timestamp, before)
	}
}

func TestAdd_NullTemperature(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := testutil.NewReading(testutil.WithTemperature(nil))
	if err := s.Add(ctx, &r); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Temperature != nil {
		t.Errorf("Temperature = %v, want nil", *got.Temperature)
	}
}

func TestAdd_DuplicateTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testutil.NewReading()
	if err := s.Add(ctx, &a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	b := testutil.NewReading(testutil.WithHumidity(55))
	err := s.Add(ctx, &b)
	if !errors.Is(err, ErrDuplicateTimestamp) {
		t.Fatalf("second Add error = %v, want ErrDuplicateTimestamp", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(999) error = %v, want ErrNotFound", err)
	}
}

func TestRecent_NewestFirstAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	series := testutil.Series(5*time.Minute, 30, 31, 32, 33, 34)
	// Insert out of order; Recent orders by timestamp, not id.
	for _, i := range []int{2, 0, 4, 1, 3} {
		r := series[i]
		if err := s.Add(ctx, &r); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	all, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	for i, want := range []float64{34, 33, 32, 31, 30} {
		if all[i].Humidity != want {
			t.Errorf("all[%d].Humidity = %v, want %v", i, all[i].Humidity, want)
		}
	}

	two, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent(2): %v", err)
	}
	if len(two) != 2 || two[0].Humidity != 34 || two[1].Humidity != 33 {
		t.Errorf("Recent(2) = %+v", two)
	}
}

func TestRecent_EmptyIsNonNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Recent on empty table = %v, want empty slice", got)
	}
}

func TestBetween(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, r := range testutil.Series(time.Hour, 20, 21, 22, 23) {
		r := r
		if err := s.Add(ctx, &r); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	got, err := s.Between(ctx, testutil.BaseTime.Add(time.Hour), testutil.BaseTime.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	if len(got) != 2 || got[0].Humidity != 21 || got[1].Humidity != 22 {
		t.Errorf("Between = %+v, want humidities 21, 22", got)
	}
}

func TestUpdateField(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := testutil.NewReading()
	if err := s.Add(ctx, &r); err != nil {
		t.Fatalf("Add: %v", err)
	}

	tests := []struct {
		name  string
		field Field
		value any
		check func(t *testing.T, got *models.SensorReading)
	}{
		{"humidity", FieldHumidity, 55.5, func(t *testing.T, got *models.SensorReading) {
			if got.Humidity != 55.5 {
				t.Errorf("Humidity = %v", got.Humidity)
			}
		}},
		{"ph as string", FieldPH, "7.1", func(t *testing.T, got *models.SensorReading) {
			if got.PH != 7.1 {
				t.Errorf("PH = %v", got.PH)
			}
		}},
		{"pump_on", FieldPumpOn, true, func(t *testing.T, got *models.SensorReading) {
			if !got.PumpOn {
				t.Error("PumpOn = false")
			}
		}},
		{"is_emergency as number", FieldIsEmergency, float64(1), func(t *testing.T, got *models.SensorReading) {
			if !got.IsEmergency {
				t.Error("IsEmergency = false")
			}
		}},
		{"temperature cleared", FieldTemperature, nil, func(t *testing.T, got *models.SensorReading) {
			if got.Temperature != nil {
				t.Errorf("Temperature = %v, want nil", *got.Temperature)
			}
		}},
		{"decision_reason", FieldDecisionReason, "Manual override", func(t *testing.T, got *models.SensorReading) {
			if got.DecisionReason != "Manual override" {
				t.Errorf("DecisionReason = %q", got.DecisionReason)
			}
		}},
		{"timestamp", FieldTimestamp, "2026-04-01T08:00:00-03:00", func(t *testing.T, got *models.SensorReading) {
			want := time.Date(2026, 4, 1, 11, 0, 0, 0, time.UTC)
			if !got.Timestamp.Equal(want) {
				t.Errorf("Timestamp = %v, want %v", got.Timestamp, want)
			}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.UpdateField(ctx, r.ID, tc.field, tc.value)
			if err != nil {
				t.Fatalf("UpdateField: %v", err)
			}
			tc.check(t, got)
		})
	}
}

func TestUpdateField_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := testutil.NewReading()
	b := testutil.NewReading(testutil.WithTimestamp(testutil.BaseTime.Add(time.Minute)))
	for _, r := range []*models.SensorReading{&a, &b} {
		if err := s.Add(ctx, r); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	tests := []struct {
		name    string
		id      int64
		field   Field
		value   any
		wantErr error
	}{
		{"humidity above range", a.ID, FieldHumidity, 101.0, ErrInvalidValue},
		{"negative ph", a.ID, FieldPH, -0.5, ErrInvalidValue},
		{"temperature above probe range", a.ID, FieldTemperature, 120.0, ErrInvalidValue},
		{"temperature below probe range", a.ID, FieldTemperature, "-60", ErrInvalidValue},
		{"humidity null", a.ID, FieldHumidity, nil, ErrInvalidValue},
		{"bool from text", a.ID, FieldPumpOn, "maybe", ErrInvalidValue},
		{"reason not a string", a.ID, FieldDecisionReason, 12.0, ErrInvalidValue},
		{"bad timestamp", a.ID, FieldTimestamp, "yesterday", ErrInvalidValue},
		{"missing id", 999, FieldHumidity, 40.0, ErrNotFound},
		{"timestamp collision", b.ID, FieldTimestamp, a.Timestamp.Format(time.RFC3339Nano), ErrDuplicateTimestamp},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.UpdateField(ctx, tc.id, tc.field, tc.value)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestUpdateField_NonFinite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := testutil.NewReading(testutil.WithTemperature(models.Float(21.5)))
	if err := s.Add(ctx, &r); err != nil {
		t.Fatalf("Add: %v", err)
	}

	values := []any{"NaN", "Inf", "-Inf", "+Infinity", math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, field := range []Field{FieldHumidity, FieldPH, FieldTemperature} {
		for _, v := range values {
			_, err := s.UpdateField(ctx, r.ID, field, v)
			if !errors.Is(err, ErrInvalidValue) {
				t.Errorf("UpdateField(%s, %v) error = %v, want ErrInvalidValue", field, v, err)
			}
		}
	}

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Humidity != r.Humidity || got.PH != r.PH || got.Temperature == nil || *got.Temperature != 21.5 {
		t.Errorf("reading changed after rejected updates: %+v", got)
	}
}

func TestAdd_RejectsInvalidValues(t *testing.T) {
	s := newTestStore(t)
	tests := []struct {
		name string
		opt  func(*models.SensorReading)
	}{
		{"humidity NaN", testutil.WithHumidity(math.NaN())},
		{"humidity +Inf", testutil.WithHumidity(math.Inf(1))},
		{"ph NaN", testutil.WithPH(math.NaN())},
		{"ph -Inf", testutil.WithPH(math.Inf(-1))},
		{"temperature NaN", testutil.WithTemperature(models.Float(math.NaN()))},
		{"temperature +Inf", testutil.WithTemperature(models.Float(math.Inf(1)))},
		{"temperature out of range", testutil.WithTemperature(models.Float(95))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := testutil.NewReading(tc.opt)
			if err := s.Add(context.Background(), &r); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("Add error = %v, want ErrInvalidValue", err)
			}
		})
	}
	if n, err := s.Count(context.Background()); err != nil || n != 0 {
		t.Errorf("Count = %d, %v; want 0 rows stored", n, err)
	}
}

func TestUpdateField_UnknownField(t *testing.T) {
	s := newTestStore(t)
	_, err := s.UpdateField(context.Background(), 1, Field("id; DROP TABLE sensor_readings"), 1)
	var unknown *UnknownFieldError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want *UnknownFieldError", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := testutil.NewReading()
	if err := s.Add(ctx, &r); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestParseField(t *testing.T) {
	for _, name := range FieldNames() {
		if _, err := ParseField(name); err != nil {
			t.Errorf("ParseField(%q) error = %v", name, err)
		}
	}
	if f, err := ParseField("  Humidity "); err != nil || f != FieldHumidity {
		t.Errorf("ParseField with padding = %q, %v", f, err)
	}
	_, err := ParseField("id")
	var unknown *UnknownFieldError
	if !errors.As(err, &unknown) || unknown.Name != "id" {
		t.Errorf("ParseField(id) error = %v, want UnknownFieldError{id}", err)
	}
}
