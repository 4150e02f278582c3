// Package api exposes the irrigation engine over HTTP for what-if
// questions: a single decision, a full scenario with soil risk and cost,
// and the thresholds in effect.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/farmtech/irrigation/pkg/plugin"
	"github.com/farmtech/irrigation/pkg/roles"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
	_ plugin.Validator    = (*Module)(nil)
)

// historyWindow is how many recent readings feed scenario insights.
const historyWindow = 24

// Module implements the irrigation plugin.
type Module struct {
	logger     *zap.Logger
	thresholds irrigation.Thresholds
	costs      irrigation.Costs
	plugins    plugin.PluginResolver
}

// New creates a new irrigation plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "irrigation",
		Version:     "0.1.0",
		Description: "What-if irrigation decisions and scenarios",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.plugins = deps.Plugins

	var err error
	if m.thresholds, err = irrigation.ThresholdsFromConfig(deps.Global); err != nil {
		return err
	}
	if m.costs, err = irrigation.CostsFromConfig(deps.Global); err != nil {
		return err
	}
	m.logger.Info("irrigation module initialized",
		zap.Float64("humidity_critical_low", m.thresholds.HumidityCriticalLow),
		zap.Float64("humidity_min_to_irrigate", m.thresholds.HumidityMinToIrrigate),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if err := m.thresholds.Validate(); err != nil {
		return fmt.Errorf("irrigation thresholds: %w", err)
	}
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/decide", Handler: m.handleDecide},
		{Method: "POST", Path: "/scenario", Handler: m.handleScenario},
		{Method: "GET", Path: "/thresholds", Handler: m.handleThresholds},
	}
}

// DecideRequest is a hypothetical soil sample.
type DecideRequest struct {
	Humidity   *float64 `json:"humidity" example:"18"`
	PH         *float64 `json:"ph" example:"6.0"`
	Phosphorus bool     `json:"phosphorus_present"`
	Potassium  bool     `json:"potassium_present"`
	// RainMM overrides the forecast when set.
	RainMM *float64 `json:"rain_mm,omitempty" example:"2.5"`
	// UseForecast asks the weather module for expected rain when RainMM is unset.
	UseForecast bool `json:"use_forecast"`
}

func (req DecideRequest) input() (irrigation.Input, error) {
	if req.Humidity == nil || req.PH == nil {
		return irrigation.Input{}, fmt.Errorf("humidity and ph are required")
	}
	if err := models.ValidateRanges(*req.Humidity, *req.PH); err != nil {
		return irrigation.Input{}, err
	}
	if req.RainMM != nil && *req.RainMM < 0 {
		return irrigation.Input{}, fmt.Errorf("rain_mm must not be negative")
	}
	return irrigation.Input{
		Humidity:   *req.Humidity,
		PH:         *req.PH,
		Phosphorus: req.Phosphorus,
		Potassium:  req.Potassium,
	}, nil
}

// rain resolves the rain figure for a request: explicit value first, then
// the weather role when asked. Returns whether rain applies at all.
func (m *Module) rain(ctx context.Context, req DecideRequest) (*float64, bool) {
	if req.RainMM != nil {
		return req.RainMM, true
	}
	if !req.UseForecast {
		return nil, false
	}
	if m.plugins != nil {
		for _, p := range m.plugins.ResolveByRole(roles.RoleWeather) {
			f, ok := p.(roles.RainForecaster)
			if !ok {
				continue
			}
			rain, err := f.ExpectedRain(ctx)
			if err != nil {
				m.logger.Warn("rain forecast failed", zap.String("provider", p.Info().Name), zap.Error(err))
				continue
			}
			return rain, true
		}
	}
	return nil, true
}

func (m *Module) history(ctx context.Context) []models.SensorReading {
	if m.plugins == nil {
		return nil
	}
	for _, p := range m.plugins.ResolveByRole(roles.RoleReadings) {
		src, ok := p.(roles.ReadingSource)
		if !ok {
			continue
		}
		recent, err := src.Recent(ctx, historyWindow)
		if err != nil {
			m.logger.Warn("load history for scenario", zap.Error(err))
			return nil
		}
		return recent
	}
	return nil
}

// handleDecide evaluates one hypothetical sample.
//
//	@Summary		What-if decision
//	@Description	Runs the irrigation rules on a hypothetical sample, optionally adjusted for rain.
//	@Tags			irrigation
//	@Accept			json
//	@Produce		json
//	@Param			request	body		DecideRequest	true	"Sample"
//	@Success		200		{object}	irrigation.Decision
//	@Failure		400		{object}	models.APIProblem
//	@Router			/irrigation/decide [post]
func (m *Module) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var d irrigation.Decision
	if rain, ok := m.rain(r.Context(), req); ok {
		d = irrigation.DecideWithRain(in, rain, m.thresholds)
	} else {
		d = irrigation.Decide(in, m.thresholds)
	}
	writeJSON(w, http.StatusOK, d)
}

// handleScenario runs the full what-if evaluation.
//
//	@Summary		What-if scenario
//	@Description	Decision, soil risk assessment, irrigation cost and insights from recent history.
//	@Tags			irrigation
//	@Accept			json
//	@Produce		json
//	@Param			request	body		DecideRequest	true	"Sample"
//	@Success		200		{object}	irrigation.Scenario
//	@Failure		400		{object}	models.APIProblem
//	@Router			/irrigation/scenario [post]
func (m *Module) handleScenario(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rain, _ := m.rain(r.Context(), req)
	writeJSON(w, http.StatusOK, irrigation.Evaluate(in, rain, m.history(r.Context()), m.thresholds, m.costs))
}

// handleThresholds returns the thresholds in effect.
//
//	@Summary		Effective thresholds
//	@Tags			irrigation
//	@Produce		json
//	@Success		200	{object}	irrigation.Thresholds
//	@Router			/irrigation/thresholds [get]
func (m *Module) handleThresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.thresholds)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://farmtech.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
