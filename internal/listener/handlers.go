package listener

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/farmtech/irrigation/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/listeners", Handler: m.handleList},
		{Method: "POST", Path: "/listeners", Handler: m.handleCreate},
		{Method: "GET", Path: "/listeners/{name}", Handler: m.handleStatus},
		{Method: "DELETE", Path: "/listeners/{name}", Handler: m.handleRemove},
		{Method: "POST", Path: "/listeners/{name}/start", Handler: m.handleStart},
		{Method: "POST", Path: "/listeners/{name}/stop", Handler: m.control((*Manager).Stop)},
		{Method: "POST", Path: "/listeners/{name}/pause", Handler: m.control((*Manager).Pause)},
		{Method: "POST", Path: "/listeners/{name}/resume", Handler: m.control((*Manager).Resume)},
	}
}

// CreateRequest is the body of POST /listeners.
type CreateRequest struct {
	Name string `json:"name" example:"field-1"`
	// IntervalSeconds defaults to the configured interval; values below 5 are raised to 5.
	IntervalSeconds float64 `json:"interval_seconds,omitempty" example:"10"`
	Start           bool    `json:"start"`
}

// handleList returns all listeners.
//
//	@Summary		List listeners
//	@Tags			listener
//	@Produce		json
//	@Success		200	{array}	Status
//	@Router			/listener/listeners [get]
func (m *Module) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.manager.List())
}

// handleCreate registers a listener, optionally starting it.
//
//	@Summary		Create listener
//	@Description	Creates a named listener. An existing name returns the existing listener with 200.
//	@Tags			listener
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateRequest	true	"Listener"
//	@Success		201		{object}	Status
//	@Success		200		{object}	Status
//	@Failure		400		{object}	models.APIProblem
//	@Router			/listener/listeners [post]
func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		req.Name = m.cfg.DefaultName
	}
	if req.IntervalSeconds < 0 {
		writeError(w, http.StatusBadRequest, "interval_seconds must not be negative")
		return
	}

	interval := time.Duration(req.IntervalSeconds * float64(time.Second))
	l, created, err := m.manager.Create(req.Name, interval)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Start {
		l.Start()
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, l.Status())
}

// handleStatus returns one listener.
//
//	@Summary		Listener status
//	@Tags			listener
//	@Produce		json
//	@Param			name	path		string	true	"Listener name"
//	@Success		200		{object}	Status
//	@Failure		404		{object}	models.APIProblem
//	@Router			/listener/listeners/{name} [get]
func (m *Module) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := m.manager.Status(r.PathValue("name"))
	if err != nil {
		writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleRemove stops and deletes a listener.
//
//	@Summary		Remove listener
//	@Tags			listener
//	@Security		BearerAuth
//	@Param			name	path	string	true	"Listener name"
//	@Success		204
//	@Failure		404	{object}	models.APIProblem
//	@Router			/listener/listeners/{name} [delete]
func (m *Module) handleRemove(w http.ResponseWriter, r *http.Request) {
	if err := m.manager.Remove(r.PathValue("name")); err != nil {
		writeManagerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStart starts a listener, creating it when missing.
//
//	@Summary		Start listener
//	@Tags			listener
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name	path		string	true	"Listener name"
//	@Success		200		{object}	Status
//	@Failure		400		{object}	models.APIProblem
//	@Router			/listener/listeners/{name}/start [post]
func (m *Module) handleStart(w http.ResponseWriter, r *http.Request) {
	l, err := m.manager.Start(r.PathValue("name"))
	if err != nil {
		writeManagerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l.Status())
}

// control wraps stop, pause and resume.
//
//	@Summary		Control listener
//	@Description	Stops, pauses or resumes a listener. Pausing keeps the loop running without sampling.
//	@Tags			listener
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name	path		string	true	"Listener name"
//	@Param			action	path		string	true	"stop, pause or resume"
//	@Success		200		{object}	Status
//	@Failure		404		{object}	models.APIProblem
//	@Router			/listener/listeners/{name}/{action} [post]
func (m *Module) control(op func(*Manager, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if err := op(m.manager, name); err != nil {
			writeManagerError(w, err)
			return
		}
		st, err := m.manager.Status(name)
		if err != nil {
			writeManagerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidName):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
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
