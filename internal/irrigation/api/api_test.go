package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/internal/testutil"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/farmtech/irrigation/pkg/plugin"
	"github.com/farmtech/irrigation/pkg/plugin/plugintest"
	"github.com/farmtech/irrigation/pkg/roles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() })
}

// stubPlugin fills roles for the resolver without a real lifecycle.
type stubPlugin struct {
	name    string
	rain    *float64
	history []models.SensorReading
}

func (s *stubPlugin) Info() plugin.PluginInfo                         { return plugin.PluginInfo{Name: s.name} }
func (s *stubPlugin) Init(context.Context, plugin.Dependencies) error { return nil }
func (s *stubPlugin) Start(context.Context) error                     { return nil }
func (s *stubPlugin) Stop(context.Context) error                      { return nil }
func (s *stubPlugin) ExpectedRain(context.Context) (*float64, error)  { return s.rain, nil }
func (s *stubPlugin) Recent(_ context.Context, limit int) ([]models.SensorReading, error) {
	if limit > 0 && limit < len(s.history) {
		return s.history[:limit], nil
	}
	return s.history, nil
}

type stubResolver map[string][]plugin.Plugin

func (r stubResolver) Resolve(string) (plugin.Plugin, bool)      { return nil, false }
func (r stubResolver) ResolveByRole(role string) []plugin.Plugin { return r[role] }

func newTestModule(t *testing.T, resolver plugin.PluginResolver) *Module {
	t.Helper()
	m := New()
	require.NoError(t, m.Init(context.Background(), plugin.Dependencies{
		Logger:  zap.NewNop(),
		Plugins: resolver,
	}))
	return m
}

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestHandleDecide(t *testing.T) {
	rain := 5.0
	weather := &stubPlugin{name: "weather", rain: &rain}
	m := newTestModule(t, stubResolver{roles.RoleWeather: {weather}})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantRule   irrigation.Rule
		wantReason string
	}{
		{
			name:       "critical humidity",
			body:       `{"humidity": 12, "ph": 6.0}`,
			wantStatus: http.StatusOK,
			wantRule:   irrigation.RuleHumidityCritical,
			wantReason: "EMERGENCY: critical humidity (12.0%)",
		},
		{
			name:       "irrigate without rain info",
			body:       `{"humidity": 18, "ph": 6.0, "phosphorus_present": true, "potassium_present": true}`,
			wantStatus: http.StatusOK,
			wantRule:   irrigation.RuleIrrigate,
			wantReason: "Low humidity (18.0%), ideal pH, nutrients OK",
		},
		{
			name:       "explicit light rain",
			body:       `{"humidity": 18, "ph": 6.0, "rain_mm": 0.5}`,
			wantStatus: http.StatusOK,
			wantRule:   irrigation.RuleIrrigate,
			wantReason: "Low humidity (18.0%), ideal pH, no nutrients (rain: 0.5 mm)",
		},
		{
			name:       "forecast rain overrides",
			body:       `{"humidity": 18, "ph": 6.0, "use_forecast": true}`,
			wantStatus: http.StatusOK,
			wantRule:   irrigation.RuleRainOverride,
		},
		{name: "humidity out of range", body: `{"humidity": 101, "ph": 6.0}`, wantStatus: http.StatusBadRequest},
		{name: "negative rain", body: `{"humidity": 30, "ph": 6.0, "rain_mm": -1}`, wantStatus: http.StatusBadRequest},
		{name: "missing ph", body: `{"humidity": 30}`, wantStatus: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := post(t, m.handleDecide, tc.body)
			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			if tc.wantStatus != http.StatusOK {
				assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
				return
			}
			var d irrigation.Decision
			require.NoError(t, json.NewDecoder(w.Body).Decode(&d))
			assert.Equal(t, tc.wantRule, d.Rule)
			if tc.wantReason != "" {
				assert.Equal(t, tc.wantReason, d.Reason)
			}
		})
	}
}

func TestHandleDecide_ForecastWithoutProvider(t *testing.T) {
	m := newTestModule(t, stubResolver{})
	w := post(t, m.handleDecide, `{"humidity": 40, "ph": 6.0, "use_forecast": true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var d irrigation.Decision
	require.NoError(t, json.NewDecoder(w.Body).Decode(&d))
	assert.Equal(t, "Normal conditions - pump off (humidity: 40.0%) (no rain forecast)", d.Reason)
}

func TestHandleScenario(t *testing.T) {
	history := testutil.NewestFirst(testutil.Series(time.Hour, 45, 46, 44, 45, 47))
	readings := &stubPlugin{name: "readings", history: history}
	m := newTestModule(t, stubResolver{roles.RoleReadings: {readings}})

	w := post(t, m.handleScenario, `{"humidity": 17, "ph": 6.2, "phosphorus_present": true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var s irrigation.Scenario
	require.NoError(t, json.NewDecoder(w.Body).Decode(&s))
	assert.True(t, s.Decision.PumpOn)
	require.NotNil(t, s.Cost, "irrigating scenario must carry a cost")
	assert.InDelta(t, 15.0, s.Cost.Minutes, 1e-9)
	assert.NotEmpty(t, s.Insights, "17% against a ~45% history should produce a trend note")
}

func TestHandleScenario_NoCostWhenPumpOff(t *testing.T) {
	m := newTestModule(t, nil)
	w := post(t, m.handleScenario, `{"humidity": 40, "ph": 6.0}`)
	require.Equal(t, http.StatusOK, w.Code)

	var s irrigation.Scenario
	require.NoError(t, json.NewDecoder(w.Body).Decode(&s))
	assert.False(t, s.Decision.PumpOn)
	assert.Nil(t, s.Cost)
}

func TestHandleThresholds(t *testing.T) {
	m := newTestModule(t, nil)
	w := httptest.NewRecorder()
	m.handleThresholds(w, httptest.NewRequest(http.MethodGet, "/thresholds", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var th irrigation.Thresholds
	require.NoError(t, json.NewDecoder(w.Body).Decode(&th))
	assert.Equal(t, irrigation.DefaultThresholds(), th)
	assert.NoError(t, m.ValidateConfig())
}
