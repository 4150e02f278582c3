package readings

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/farmtech/irrigation/internal/event"
	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/internal/testutil"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/farmtech/irrigation/pkg/plugin"
	"github.com/farmtech/irrigation/pkg/plugin/plugintest"
	"go.uber.org/zap"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() })
}

// newTestModule creates a Module wired to a temp store and a real bus.
func newTestModule(t *testing.T) (*Module, *event.Bus) {
	t.Helper()
	bus := event.NewBus(zap.NewNop())
	m := New()
	err := m.Init(context.Background(), plugin.Dependencies{
		Logger: zap.NewNop(),
		Store:  testutil.NewStore(t),
		Bus:    bus,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m, bus
}

func seed(t *testing.T, m *Module, readings ...models.SensorReading) []models.SensorReading {
	t.Helper()
	out := make([]models.SensorReading, 0, len(readings))
	for _, r := range readings {
		r := r
		stored, err := m.Record(context.Background(), &r, models.SourceSeed)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		out = append(out, *stored)
	}
	return out
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
	var p map[string]any
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return p
}

func TestHandleList(t *testing.T) {
	m, _ := newTestModule(t)
	seed(t, m, testutil.Series(time.Minute, 30, 31, 32)...)

	req := httptest.NewRequest(http.MethodGet, "/readings?limit=2", http.NoBody)
	w := httptest.NewRecorder()
	m.handleList(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got []models.SensorReading
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Humidity != 32 {
		t.Errorf("got %+v, want 2 readings newest first", got)
	}
}

func TestHandleCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		check      func(t *testing.T, r models.SensorReading)
	}{
		{
			name:       "manual defaults reason",
			body:       `{"humidity": 35, "ph": 6.1, "phosphorus_present": true}`,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, r models.SensorReading) {
				if r.DecisionReason != models.ReasonManual {
					t.Errorf("DecisionReason = %q, want %q", r.DecisionReason, models.ReasonManual)
				}
				if r.ID == 0 {
					t.Error("ID not assigned")
				}
			},
		},
		{
			name:       "auto decide",
			body:       `{"humidity": 12, "ph": 6.0, "auto_decide": true}`,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, r models.SensorReading) {
				if !r.PumpOn || !r.IsEmergency {
					t.Errorf("decision = pump %v emergency %v, want both true", r.PumpOn, r.IsEmergency)
				}
				if !strings.HasPrefix(r.DecisionReason, "EMERGENCY") {
					t.Errorf("DecisionReason = %q", r.DecisionReason)
				}
			},
		},
		{"humidity out of range", `{"humidity": 120, "ph": 6}`, http.StatusBadRequest, nil},
		{"ph out of range", `{"humidity": 40, "ph": 15}`, http.StatusBadRequest, nil},
		{"missing ph", `{"humidity": 40}`, http.StatusBadRequest, nil},
		{"malformed body", `{"humidity":`, http.StatusBadRequest, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := newTestModule(t)
			req := httptest.NewRequest(http.MethodPost, "/readings", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			m.handleCreate(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.wantStatus, w.Body.String())
			}
			if tc.check == nil {
				decodeProblem(t, w)
				return
			}
			var got models.SensorReading
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			tc.check(t, got)
		})
	}
}

func TestHandleCreate_DuplicateTimestampConflict(t *testing.T) {
	m, _ := newTestModule(t)
	body := `{"timestamp": "2026-03-01T06:00:00Z", "humidity": 40, "ph": 6}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/readings", strings.NewReader(body))
		w := httptest.NewRecorder()
		m.handleCreate(w, req)
		if w.Code != want {
			t.Fatalf("request %d status = %d, want %d", i, w.Code, want)
		}
	}
}

func TestHandleGet(t *testing.T) {
	m, _ := newTestModule(t)
	stored := seed(t, m, testutil.NewReading())

	tests := []struct {
		id         string
		wantStatus int
	}{
		{strconv.FormatInt(stored[0].ID, 10), http.StatusOK},
		{"999", http.StatusNotFound},
		{"abc", http.StatusBadRequest},
		{"0", http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/readings/"+tc.id, http.NoBody)
			req.SetPathValue("id", tc.id)
			w := httptest.NewRecorder()
			m.handleGet(w, req)
			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestHandleUpdate(t *testing.T) {
	m, _ := newTestModule(t)
	stored := seed(t, m, testutil.NewReading())
	id := strconv.FormatInt(stored[0].ID, 10)

	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
	}{
		{"valid humidity", id, `{"field": "humidity", "value": 22.5}`, http.StatusOK},
		{"unknown field", id, `{"field": "soil_type", "value": "clay"}`, http.StatusBadRequest},
		{"out of range", id, `{"field": "ph", "value": 20}`, http.StatusBadRequest},
		{"missing reading", "999", `{"field": "humidity", "value": 22.5}`, http.StatusNotFound},
		{"bad body", id, `nope`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/readings/"+tc.id, strings.NewReader(tc.body))
			req.SetPathValue("id", tc.id)
			w := httptest.NewRecorder()
			m.handleUpdate(w, req)
			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}

	got, err := m.Store().Get(context.Background(), stored[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Humidity != 22.5 {
		t.Errorf("Humidity after update = %v, want 22.5", got.Humidity)
	}
}

func TestHandleUpdate_NonFiniteKeepsListReadable(t *testing.T) {
	m, _ := newTestModule(t)
	stored := seed(t, m, testutil.Series(time.Minute, 30, 31)...)
	id := strconv.FormatInt(stored[1].ID, 10)

	for _, field := range []string{"humidity", "ph", "temperature"} {
		for _, value := range []string{`"NaN"`, `"Inf"`, `"-Inf"`, `"Infinity"`} {
			body := `{"field": "` + field + `", "value": ` + value + `}`
			req := httptest.NewRequest(http.MethodPatch, "/readings/"+id, strings.NewReader(body))
			req.SetPathValue("id", id)
			w := httptest.NewRecorder()
			m.handleUpdate(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("PATCH %s = %d, want 400 (body %s)", body, w.Code, w.Body.String())
				continue
			}
			decodeProblem(t, w)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/readings", http.NoBody)
	w := httptest.NewRecorder()
	m.handleList(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	var got []models.SensorReading
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("list body not decodable after rejected updates: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("list returned %d readings, want 2", len(got))
	}
}

func TestWriteJSON_UnencodableIsProblem(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]float64{"humidity": math.Inf(1)})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	decodeProblem(t, w)
}

func TestHandleDelete(t *testing.T) {
	m, _ := newTestModule(t)
	stored := seed(t, m, testutil.NewReading())
	id := strconv.FormatInt(stored[0].ID, 10)

	for _, want := range []int{http.StatusNoContent, http.StatusNotFound} {
		req := httptest.NewRequest(http.MethodDelete, "/readings/"+id, http.NoBody)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		m.handleDelete(w, req)
		if w.Code != want {
			t.Errorf("status = %d, want %d", w.Code, want)
		}
	}
}

func TestHandleAlerts(t *testing.T) {
	m, _ := newTestModule(t)
	readings := testutil.Series(time.Minute, 40, 40, 40, 40, 40, 40)
	readings[0].Humidity = 5 // outside the 5-reading window
	readings[3].Humidity = 10
	readings[5].PH = 8.2
	seed(t, m, readings...)

	req := httptest.NewRequest(http.MethodGet, "/alerts", http.NoBody)
	w := httptest.NewRecorder()
	m.handleAlerts(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []Alert
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("alerts = %+v, want 2", got)
	}
	if got[0].Metric != "humidity" || got[0].Severity != SeverityCritical {
		t.Errorf("first alert = %+v, want critical humidity", got[0])
	}
	if got[1].Metric != "ph" || got[1].Severity != SeverityWarning {
		t.Errorf("second alert = %+v, want ph warning", got[1])
	}
}

func TestHandleExport(t *testing.T) {
	m, _ := newTestModule(t)
	readings := testutil.Series(time.Minute, 30, 31)
	readings[1].Temperature = nil
	seed(t, m, readings...)

	req := httptest.NewRequest(http.MethodGet, "/export.csv", http.NoBody)
	w := httptest.NewRecorder()
	m.handleExport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(CSVHeader, ",") {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != "30" || rows[2][2] != "31" {
		t.Errorf("rows not oldest first: %v", rows[1:])
	}
	if rows[2][6] != "" {
		t.Errorf("missing temperature exported as %q, want empty", rows[2][6])
	}
}

func TestRecord_PublishesAndInvalidatesCache(t *testing.T) {
	m, bus := newTestModule(t)
	ctx := context.Background()

	var (
		mu     sync.Mutex
		topics []string
		done   = make(chan struct{}, 4)
	)
	bus.Subscribe("readings.*", func(_ context.Context, e plugin.Event) {
		mu.Lock()
		topics = append(topics, e.Topic)
		mu.Unlock()
		done <- struct{}{}
	})

	if _, err := m.Recent(ctx, 10); err != nil {
		t.Fatalf("Recent: %v", err)
	}
	r := testutil.NewReading()
	if _, err := m.Record(ctx, &r, models.SourceManual); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := m.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("Recent after Record = %d readings, want 1 (stale cache?)", len(got))
	}

	if err := m.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	seen := strings.Join(topics, ",")
	if !strings.Contains(seen, TopicReadingCreated) || !strings.Contains(seen, TopicReadingDeleted) {
		t.Errorf("topics = %v", topics)
	}
}

func TestRecord_RejectsOutOfRange(t *testing.T) {
	m, _ := newTestModule(t)
	r := testutil.NewReading(testutil.WithHumidity(-1))
	if _, err := m.Record(context.Background(), &r, models.SourceMQTT); err == nil {
		t.Fatal("Record accepted humidity -1")
	}
}

func TestRecord_RejectsNonFinite(t *testing.T) {
	m, _ := newTestModule(t)
	for _, r := range []models.SensorReading{
		testutil.NewReading(testutil.WithHumidity(math.NaN())),
		testutil.NewReading(testutil.WithPH(math.Inf(1))),
		testutil.NewReading(testutil.WithTemperature(models.Float(math.Inf(-1)))),
	} {
		if _, err := m.Record(context.Background(), &r, models.SourceMQTT); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("Record(%+v) error = %v, want ErrInvalidValue", r, err)
		}
	}
}

func TestRecentAlerts_Empty(t *testing.T) {
	got := RecentAlerts(nil, irrigation.DefaultThresholds())
	if got == nil || len(got) != 0 {
		t.Errorf("RecentAlerts(nil) = %v, want empty slice", got)
	}
}

func TestHealth(t *testing.T) {
	m, _ := newTestModule(t)
	seed(t, m, testutil.NewReading())
	h := m.Health(context.Background())
	if h.Status != "healthy" || h.Details["readings"] != "1" {
		t.Errorf("Health = %+v", h)
	}

	bare := New()
	if err := bare.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop()}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if h := bare.Health(context.Background()); h.Status != "degraded" {
		t.Errorf("Health without store = %q, want degraded", h.Status)
	}
}
