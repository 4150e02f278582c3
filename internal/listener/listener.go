// Package listener runs named field listeners. Each listener samples the
// simulator on a ticker, takes the pump decision through the irrigation
// engine (optionally adjusted by the rain forecast) and records the
// reading through the readings role.
package listener

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/farmtech/irrigation/pkg/plugin"
	"github.com/farmtech/irrigation/pkg/roles"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
	_ plugin.Validator     = (*Module)(nil)
)

var errNoReadingSink = errors.New("no reading sink available")

// Module implements the listener plugin.
type Module struct {
	logger     *zap.Logger
	cfg        Config
	thresholds irrigation.Thresholds
	plugins    plugin.PluginResolver
	manager    *Manager
}

// New creates a new listener plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "listener",
		Version:      "0.1.0",
		Description:  "Simulated field listeners feeding the readings store",
		Dependencies: []string{"readings"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal listener config: %w", err)
		}
	}

	th, err := irrigation.ThresholdsFromConfig(deps.Global)
	if err != nil {
		return err
	}
	m.thresholds = th
	m.plugins = deps.Plugins
	m.manager = NewManager(SinkFunc(m.record), m.decide, m.cfg.Interval, m.cfg.Seed, m.logger)

	m.logger.Info("listener module initialized",
		zap.Bool("autostart", m.cfg.Autostart),
		zap.Duration("interval", m.cfg.Interval),
		zap.Bool("use_weather", m.cfg.UseWeather),
	)
	return nil
}

func (m *Module) ValidateConfig() error {
	if m.cfg.Interval < 0 {
		return fmt.Errorf("listener interval must not be negative, got %s", m.cfg.Interval)
	}
	if m.cfg.Autostart && !namePattern.MatchString(m.cfg.DefaultName) {
		return fmt.Errorf("listener default_name: %w", ErrInvalidName)
	}
	return m.thresholds.Validate()
}

func (m *Module) Start(_ context.Context) error {
	if !m.cfg.Autostart {
		return nil
	}
	if _, err := m.manager.Start(m.cfg.DefaultName); err != nil {
		return fmt.Errorf("autostart listener %q: %w", m.cfg.DefaultName, err)
	}
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.manager != nil {
		m.manager.StopAll()
	}
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	details := map[string]string{
		"listeners":    strconv.Itoa(len(m.manager.List())),
		"running":      strconv.Itoa(m.manager.Running()),
		"reading_sink": strconv.FormatBool(m.sink() != nil),
	}
	if m.sink() == nil {
		return plugin.HealthStatus{Status: "degraded", Message: errNoReadingSink.Error(), Details: details}
	}
	return plugin.HealthStatus{Status: "healthy", Details: details}
}

// Manager exposes the listener manager, used by the listen command.
func (m *Module) Manager() *Manager {
	return m.manager
}

func (m *Module) sink() roles.ReadingSink {
	if m.plugins == nil {
		return nil
	}
	for _, p := range m.plugins.ResolveByRole(roles.RoleReadings) {
		if s, ok := p.(roles.ReadingSink); ok {
			return s
		}
	}
	return nil
}

func (m *Module) forecaster() roles.RainForecaster {
	if m.plugins == nil {
		return nil
	}
	for _, p := range m.plugins.ResolveByRole(roles.RoleWeather) {
		if f, ok := p.(roles.RainForecaster); ok {
			return f
		}
	}
	return nil
}

// record forwards to the readings role, resolved per call so the module
// tolerates the readings module being registered later.
func (m *Module) record(ctx context.Context, r *models.SensorReading, source string) (*models.SensorReading, error) {
	s := m.sink()
	if s == nil {
		return nil, errNoReadingSink
	}
	return s.Record(ctx, r, source)
}

func (m *Module) decide(ctx context.Context, in irrigation.Input) irrigation.Decision {
	if !m.cfg.UseWeather {
		return irrigation.Decide(in, m.thresholds)
	}
	var rain *float64
	if f := m.forecaster(); f != nil {
		mm, err := f.ExpectedRain(ctx)
		if err != nil {
			m.logger.Debug("rain forecast unavailable", zap.Error(err))
		} else {
			rain = mm
		}
	}
	return irrigation.DecideWithRain(in, rain, m.thresholds)
}
