package readings

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/farmtech/irrigation/pkg/models"
	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/readings", Handler: m.handleList},
		{Method: "POST", Path: "/readings", Handler: m.handleCreate},
		{Method: "GET", Path: "/readings/{id}", Handler: m.handleGet},
		{Method: "PATCH", Path: "/readings/{id}", Handler: m.handleUpdate},
		{Method: "DELETE", Path: "/readings/{id}", Handler: m.handleDelete},
		{Method: "GET", Path: "/alerts", Handler: m.handleAlerts},
		{Method: "GET", Path: "/export.csv", Handler: m.handleExport},
	}
}

// CreateRequest is the body of a manual reading entry.
type CreateRequest struct {
	Timestamp         *time.Time `json:"timestamp,omitempty"`
	Humidity          *float64   `json:"humidity" example:"32.5"`
	PH                *float64   `json:"ph" example:"6.2"`
	PhosphorusPresent bool       `json:"phosphorus_present"`
	PotassiumPresent  bool       `json:"potassium_present"`
	Temperature       *float64   `json:"temperature,omitempty"`
	PumpOn            bool       `json:"pump_on"`
	DecisionReason    string     `json:"decision_reason,omitempty"`
	IsEmergency       bool       `json:"is_emergency"`
	// AutoDecide replaces the decision columns with the engine's output.
	AutoDecide bool `json:"auto_decide"`
}

// UpdateRequest changes a single field of a reading.
type UpdateRequest struct {
	Field string `json:"field" example:"humidity"`
	Value any    `json:"value"`
}

// handleList returns recent readings, newest first.
//
//	@Summary		List readings
//	@Description	Returns the most recent sensor readings, newest first.
//	@Tags			readings
//	@Produce		json
//	@Param			limit	query		int	false	"Max results (0 = all)"	default(100)
//	@Success		200		{array}		models.SensorReading
//	@Failure		500		{object}	models.APIProblem
//	@Router			/readings/readings [get]
func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreUnavailable.Error())
		return
	}
	limit := queryInt(r, "limit", m.cfg.DefaultLimit)
	if m.cfg.MaxLimit > 0 && (limit == 0 || limit > m.cfg.MaxLimit) {
		limit = m.cfg.MaxLimit
	}

	out, err := m.Recent(r.Context(), limit)
	if err != nil {
		m.logger.Warn("failed to list readings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list readings")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGet returns one reading.
//
//	@Summary		Get reading
//	@Tags			readings
//	@Produce		json
//	@Param			id	path		int	true	"Reading ID"
//	@Success		200	{object}	models.SensorReading
//	@Failure		400	{object}	models.APIProblem
//	@Failure		404	{object}	models.APIProblem
//	@Router			/readings/readings/{id} [get]
func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreUnavailable.Error())
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	reading, err := m.store.Get(r.Context(), id)
	if err != nil {
		m.writeStoreError(w, err, "failed to get reading")
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

// handleCreate stores a manually entered reading.
//
//	@Summary		Add reading
//	@Description	Stores a manual reading. With auto_decide the pump decision is computed by the engine.
//	@Tags			readings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateRequest	true	"Reading"
//	@Success		201		{object}	models.SensorReading
//	@Failure		400		{object}	models.APIProblem
//	@Failure		409		{object}	models.APIProblem
//	@Router			/readings/readings [post]
func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreUnavailable.Error())
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Humidity == nil || req.PH == nil {
		writeError(w, http.StatusBadRequest, "humidity and ph are required")
		return
	}

	reading := &models.SensorReading{
		Humidity:          *req.Humidity,
		PH:                *req.PH,
		PhosphorusPresent: req.PhosphorusPresent,
		PotassiumPresent:  req.PotassiumPresent,
		Temperature:       req.Temperature,
		PumpOn:            req.PumpOn,
		DecisionReason:    req.DecisionReason,
		IsEmergency:       req.IsEmergency,
	}
	if req.Timestamp != nil {
		reading.Timestamp = *req.Timestamp
	}
	if err := reading.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AutoDecide {
		m.Decided(reading)
	} else if reading.DecisionReason == "" {
		reading.DecisionReason = models.ReasonManual
	}

	stored, err := m.Record(r.Context(), reading, models.SourceManual)
	if err != nil {
		m.writeStoreError(w, err, "failed to add reading")
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// handleUpdate changes one field of a reading.
//
//	@Summary		Update reading field
//	@Description	Sets one field of a reading. Allowed fields: timestamp, humidity, ph, phosphorus_present, potassium_present, temperature, pump_on, decision_reason, is_emergency.
//	@Tags			readings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int				true	"Reading ID"
//	@Param			request	body		UpdateRequest	true	"Field and value"
//	@Success		200		{object}	models.SensorReading
//	@Failure		400		{object}	models.APIProblem
//	@Failure		404		{object}	models.APIProblem
//	@Failure		409		{object}	models.APIProblem
//	@Router			/readings/readings/{id} [patch]
func (m *Module) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreUnavailable.Error())
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	field, err := ParseField(req.Field)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := m.Update(r.Context(), id, field, req.Value)
	if err != nil {
		m.writeStoreError(w, err, "failed to update reading")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDelete removes a reading.
//
//	@Summary		Delete reading
//	@Tags			readings
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Reading ID"
//	@Success		204
//	@Failure		404	{object}	models.APIProblem
//	@Router			/readings/readings/{id} [delete]
func (m *Module) handleDelete(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreUnavailable.Error())
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := m.Delete(r.Context(), id); err != nil {
		m.writeStoreError(w, err, "failed to delete reading")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAlerts checks the latest readings for critical values.
//
//	@Summary		Recent alerts
//	@Description	Critical humidity and out-of-band pH over the last 5 readings.
//	@Tags			readings
//	@Produce		json
//	@Success		200	{array}		Alert
//	@Failure		500	{object}	models.APIProblem
//	@Router			/readings/alerts [get]
func (m *Module) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreUnavailable.Error())
		return
	}
	recent, err := m.Recent(r.Context(), AlertWindow)
	if err != nil {
		m.logger.Warn("failed to load recent readings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load recent readings")
		return
	}
	writeJSON(w, http.StatusOK, RecentAlerts(recent, m.thresholds))
}

// handleExport streams every reading as CSV, oldest first.
//
//	@Summary		Export readings
//	@Tags			readings
//	@Produce		text/csv
//	@Success		200	{string}	string
//	@Failure		500	{object}	models.APIProblem
//	@Router			/readings/export.csv [get]
func (m *Module) handleExport(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreUnavailable.Error())
		return
	}
	all, err := m.store.Recent(r.Context(), 0)
	if err != nil {
		m.logger.Warn("failed to export readings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to export readings")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="readings.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := WriteCSV(w, all); err != nil {
		m.logger.Warn("csv export interrupted", zap.Error(err))
	}
}

// CSVHeader is the column row of the export.
var CSVHeader = []string{
	"id", "timestamp", "humidity", "ph", "phosphorus_present", "potassium_present",
	"temperature", "pump_on", "decision_reason", "is_emergency",
}

// WriteCSV writes readings (newest first, as Recent returns them) in
// chronological order.
func WriteCSV(w io.Writer, readings []models.SensorReading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for i := len(readings) - 1; i >= 0; i-- {
		r := readings[i]
		temp := ""
		if r.Temperature != nil {
			temp = strconv.FormatFloat(*r.Temperature, 'f', -1, 64)
		}
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.Humidity, 'f', -1, 64),
			strconv.FormatFloat(r.PH, 'f', -1, 64),
			strconv.FormatBool(r.PhosphorusPresent),
			strconv.FormatBool(r.PotassiumPresent),
			temp,
			strconv.FormatBool(r.PumpOn),
			r.DecisionReason,
			strconv.FormatBool(r.IsEmergency),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeStoreError maps store errors onto problem responses.
func (m *Module) writeStoreError(w http.ResponseWriter, err error, fallback string) {
	var unknown *UnknownFieldError
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &unknown), errors.Is(err, ErrInvalidValue):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateTimestamp):
		writeError(w, http.StatusConflict, err.Error())
	default:
		m.logger.Warn(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "reading id must be a positive integer")
		return 0, false
	}
	return id, true
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

func queryInt(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
