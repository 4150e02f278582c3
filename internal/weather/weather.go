// Package weather provides the rain forecast that can override an
// irrigation decision. It fills the "weather" role; failures degrade to an
// Outlook with a message and never block a decision.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/farmtech/irrigation/pkg/plugin"
	"github.com/farmtech/irrigation/pkg/roles"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ roles.RainForecaster = (*Module)(nil)
)

// Outlook is what the API reports about expected rain.
type Outlook struct {
	Available bool        `json:"available"`
	Message   string      `json:"message,omitempty"`
	RainMM    *float64    `json:"rain_next_24h_mm,omitempty"`
	Daily     []DailyRain `json:"daily,omitempty"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	FetchedAt time.Time   `json:"fetched_at,omitempty"`
}

// Module implements the weather plugin.
type Module struct {
	logger *zap.Logger
	cfg    Config
	client *Client
	now    func() time.Time

	mu      sync.Mutex
	cached  *Outlook
	expires time.Time
}

// New creates a new weather plugin instance.
func New() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "weather",
		Version:     "0.1.0",
		Description: "Open-Meteo rain forecast for irrigation overrides",
		Roles:       []string{roles.RoleWeather},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal weather config: %w", err)
		}
	}
	m.client = NewClient(m.cfg.BaseURL, m.cfg.Timeout)

	m.logger.Info("weather module initialized",
		zap.Bool("enabled", m.cfg.Enabled),
		zap.Float64("latitude", m.cfg.Latitude),
		zap.Float64("longitude", m.cfg.Longitude),
	)
	return nil
}

func (m *Module) ValidateConfig() error {
	if m.cfg.Latitude < -90 || m.cfg.Latitude > 90 {
		return fmt.Errorf("weather latitude %v outside [-90, 90]", m.cfg.Latitude)
	}
	if m.cfg.Longitude < -180 || m.cfg.Longitude > 180 {
		return fmt.Errorf("weather longitude %v outside [-180, 180]", m.cfg.Longitude)
	}
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	if !m.cfg.Enabled {
		return plugin.HealthStatus{Status: "healthy", Message: "disabled"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil && !m.cached.Available {
		return plugin.HealthStatus{Status: "degraded", Message: m.cached.Message}
	}
	return plugin.HealthStatus{Status: "healthy"}
}

// Outlook returns the (possibly cached) rain outlook. It never fails.
func (m *Module) Outlook(ctx context.Context) Outlook {
	base := Outlook{Latitude: m.cfg.Latitude, Longitude: m.cfg.Longitude}
	if !m.cfg.Enabled {
		base.Message = "weather forecast disabled"
		return base
	}

	m.mu.Lock()
	if m.cached != nil && m.now().Before(m.expires) {
		out := *m.cached
		m.mu.Unlock()
		return out
	}
	m.mu.Unlock()

	f, err := m.client.Fetch(ctx, m.cfg.Latitude, m.cfg.Longitude)
	now := m.now()
	if err != nil {
		m.logger.Warn("weather forecast unavailable", zap.Error(err))
		base.Message = "weather forecast unavailable: " + err.Error()
	} else {
		base.Available = true
		base.Daily = f.Daily
		base.FetchedAt = now.UTC()
		if rain, ok := f.NextDay(now.UTC().Truncate(time.Hour)); ok {
			base.RainMM = &rain
		} else {
			base.Message = "forecast carried no precipitation data"
		}
	}

	ttl := m.cfg.CacheTTL
	if !base.Available && m.cfg.RetryAfter < ttl {
		ttl = m.cfg.RetryAfter
	}
	m.mu.Lock()
	m.cached = &base
	m.expires = now.Add(ttl)
	m.mu.Unlock()
	return base
}

// ExpectedRain implements roles.RainForecaster.
func (m *Module) ExpectedRain(ctx context.Context) (*float64, error) {
	o := m.Outlook(ctx)
	if !o.Available {
		return nil, nil
	}
	return o.RainMM, nil
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/forecast", Handler: m.handleForecast},
	}
}

// handleForecast returns the rain outlook.
//
//	@Summary		Rain forecast
//	@Description	Expected precipitation for the configured field location. Degrades to available=false with a message.
//	@Tags			weather
//	@Produce		json
//	@Success		200	{object}	Outlook
//	@Router			/weather/forecast [get]
func (m *Module) handleForecast(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(m.Outlook(r.Context()))
}
