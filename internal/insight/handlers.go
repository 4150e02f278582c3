package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/farmtech/irrigation/internal/insight/anomaly"
	"github.com/farmtech/irrigation/internal/insight/forecast"
	"github.com/farmtech/irrigation/pkg/analytics"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/summary", Handler: m.handleSummary},
		{Method: "GET", Path: "/anomalies", Handler: m.handleAnomalies},
		{Method: "POST", Path: "/risk/train", Handler: m.handleTrainRisk},
		{Method: "POST", Path: "/risk/predict", Handler: m.handlePredictRisk},
		{Method: "POST", Path: "/maintenance/train", Handler: m.handleTrainMaintenance},
		{Method: "GET", Path: "/forecast", Handler: m.handleForecast},
		{Method: "GET", Path: "/costs", Handler: m.handleCosts},
		{Method: "GET", Path: "/diagnostics", Handler: m.handleDiagnostics},
		{Method: "GET", Path: "/baselines", Handler: m.handleBaselines},
		{Method: "GET", Path: "/models", Handler: m.handleListModels},
	}
}

// PredictRequest is a hypothetical reading to score for emergency risk.
type PredictRequest struct {
	Humidity          *float64   `json:"humidity" example:"14"`
	PH                *float64   `json:"ph" example:"6.0"`
	PhosphorusPresent bool       `json:"phosphorus_present"`
	PotassiumPresent  bool       `json:"potassium_present"`
	Temperature       *float64   `json:"temperature,omitempty" example:"31.5"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
}

// loadWindow fetches the readings for a handler, writing the error
// response itself when that fails.
func (m *Module) loadWindow(ctx context.Context, w http.ResponseWriter) ([]models.SensorReading, bool) {
	rs, err := m.readings(ctx)
	if errors.Is(err, errNoReadingSource) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	if err != nil {
		m.logger.Warn("failed to load readings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load readings")
		return nil, false
	}
	return rs, true
}

// handleSummary returns the history view.
//
//	@Summary		Analysis summary
//	@Description	Descriptive statistics, correlation, decision history, system metrics and recommendations.
//	@Tags			insight
//	@Produce		json
//	@Success		200	{object}	analytics.Summary
//	@Failure		503	{object}	models.APIProblem
//	@Router			/insight/summary [get]
func (m *Module) handleSummary(w http.ResponseWriter, r *http.Request) {
	rs, ok := m.loadWindow(r.Context(), w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Summarize(rs, m.thresholds, m.now()))
}

// handleAnomalies flags outliers in one column.
//
//	@Summary		Z-score anomalies
//	@Tags			insight
//	@Produce		json
//	@Param			column		query		string	false	"humidity, ph or temperature"	default(humidity)
//	@Param			threshold	query		number	false	"Absolute z-score limit"		default(3)
//	@Param			method		query		string	false	"population or leave_one_out"	default(population)
//	@Success		200			{object}	analytics.AnomalyReport
//	@Failure		400			{object}	models.APIProblem
//	@Router			/insight/anomalies [get]
func (m *Module) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	column := q.Get("column")
	if column == "" {
		column = analytics.ColumnHumidity
	}
	threshold := m.cfg.ZScoreThreshold
	if s := q.Get("threshold"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "threshold must be a positive number")
			return
		}
		threshold = v
	}
	method, err := anomaly.ParseMethod(q.Get("method"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rs, ok := m.loadWindow(r.Context(), w)
	if !ok {
		return
	}
	rep, err := Anomalies(rs, column, threshold, method)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleTrainRisk trains the emergency-risk classifier.
//
//	@Summary		Train risk model
//	@Description	Grid-searched random forest over the stored readings. Returns trained=false when both classes are not present.
//	@Tags			insight
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	analytics.ClassifierResult
//	@Failure		503	{object}	models.APIProblem
//	@Router			/insight/risk/train [post]
func (m *Module) handleTrainRisk(w http.ResponseWriter, r *http.Request) {
	m.handleTrain(w, r, m.trainRisk)
}

// handleTrainMaintenance trains the pump maintenance classifier.
//
//	@Summary		Train maintenance model
//	@Tags			insight
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	analytics.ClassifierResult
//	@Failure		503	{object}	models.APIProblem
//	@Router			/insight/maintenance/train [post]
func (m *Module) handleTrainMaintenance(w http.ResponseWriter, r *http.Request) {
	m.handleTrain(w, r, m.trainMaintenance)
}

func (m *Module) handleTrain(w http.ResponseWriter, r *http.Request, fn func(context.Context) (*analytics.ClassifierResult, error)) {
	res, err := fn(r.Context())
	if errors.Is(err, errNoReadingSource) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		m.logger.Warn("training failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "training failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePredictRisk scores a hypothetical reading with the latest risk model.
//
//	@Summary		Predict emergency risk
//	@Tags			insight
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PredictRequest	true	"Reading"
//	@Success		200		{object}	analytics.RiskPrediction
//	@Failure		400		{object}	models.APIProblem
//	@Failure		409		{object}	models.APIProblem
//	@Router			/insight/risk/predict [post]
func (m *Module) handlePredictRisk(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Humidity == nil || req.PH == nil {
		writeError(w, http.StatusBadRequest, "humidity and ph are required")
		return
	}
	if err := models.ValidateRanges(*req.Humidity, *req.PH); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, "model store unavailable")
		return
	}

	saved, err := m.store.LatestModel(r.Context(), KindRisk)
	if errors.Is(err, ErrNoModel) {
		writeError(w, http.StatusConflict, "no risk model trained yet; POST /insight/risk/train first")
		return
	}
	if err != nil {
		m.logger.Warn("failed to load risk model", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load risk model")
		return
	}

	history, ok := m.loadWindow(r.Context(), w)
	if !ok {
		return
	}
	candidate := models.SensorReading{
		Humidity:          *req.Humidity,
		PH:                *req.PH,
		PhosphorusPresent: req.PhosphorusPresent,
		PotassiumPresent:  req.PotassiumPresent,
		Temperature:       req.Temperature,
	}
	if req.Timestamp != nil {
		candidate.Timestamp = *req.Timestamp
	}
	writeJSON(w, http.StatusOK, PredictRisk(saved, history, candidate))
}

// handleForecast projects soil humidity.
//
//	@Summary		Humidity forecast
//	@Description	ARIMA projection over the resampled humidity series, with a drying trend and an alert below the irrigation threshold.
//	@Tags			insight
//	@Produce		json
//	@Success		200	{object}	analytics.Forecast
//	@Failure		422	{object}	models.APIProblem
//	@Router			/insight/forecast [get]
func (m *Module) handleForecast(w http.ResponseWriter, r *http.Request) {
	fc, err := m.forecast(r.Context())
	var insufficient *forecast.InsufficientDataError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, fc)
	case errors.As(err, &insufficient):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errNoReadingSource):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		m.logger.Warn("forecast failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "forecast failed")
	}
}

// handleCosts estimates water and energy spend.
//
//	@Summary		Operational costs
//	@Tags			insight
//	@Produce		json
//	@Success		200	{object}	analytics.CostReport
//	@Router			/insight/costs [get]
func (m *Module) handleCosts(w http.ResponseWriter, r *http.Request) {
	rs, ok := m.loadWindow(r.Context(), w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, CostReport(rs, float64(m.forecastCfg.IntervalMinutes), m.costs))
}

// handleDiagnostics returns plain-language findings.
//
//	@Summary		Diagnostics
//	@Tags			insight
//	@Produce		json
//	@Success		200	{object}	analytics.Diagnostics
//	@Router			/insight/diagnostics [get]
func (m *Module) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	rs, ok := m.loadWindow(r.Context(), w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Diagnose(rs, m.thresholds))
}

// handleBaselines returns the live drift baselines.
//
//	@Summary		Drift baselines
//	@Tags			insight
//	@Produce		json
//	@Success		200	{array}	BaselineView
//	@Router			/insight/baselines [get]
func (m *Module) handleBaselines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.drift.views())
}

// handleListModels returns stored training results, newest first.
//
//	@Summary		Model history
//	@Tags			insight
//	@Produce		json
//	@Param			kind	query		string	false	"risk or maintenance"	default(risk)
//	@Param			limit	query		int		false	"Maximum results"		default(20)
//	@Success		200		{array}		analytics.ClassifierResult
//	@Failure		400		{object}	models.APIProblem
//	@Router			/insight/models [get]
func (m *Module) handleListModels(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = KindRisk
	}
	if kind != KindRisk && kind != KindMaintenance {
		writeError(w, http.StatusBadRequest, "kind must be risk or maintenance")
		return
	}
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, "model store unavailable")
		return
	}
	out, err := m.store.ListModels(r.Context(), kind, parseLimit(r, 20))
	if err != nil {
		m.logger.Warn("failed to list models", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list models")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func parseLimit(r *http.Request, defaultVal int) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}

// writeJSON encodes data before writing the header so an unencodable
// value becomes a 500 problem rather than an empty 200.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
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
