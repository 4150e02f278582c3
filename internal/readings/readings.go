// Package readings owns the sensor_readings table: CRUD over HTTP, the
// recent-alert panel, CSV export, and the reading roles other modules use
// to read history and submit new samples.
package readings

import (
	"context"
	"fmt"
	"strconv"
	"time"

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
	_ roles.ReadingSource  = (*Module)(nil)
	_ roles.ReadingSink    = (*Module)(nil)
)

// Module implements the readings plugin.
type Module struct {
	logger     *zap.Logger
	cfg        Config
	thresholds irrigation.Thresholds
	store      *ReadingStore
	cache      *recentCache
	bus        plugin.EventBus
}

// New creates a new readings plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "readings",
		Version:     "0.1.0",
		Description: "Sensor reading storage, alerts and export",
		Required:    true,
		Roles:       []string{roles.RoleReadings},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal readings config: %w", err)
		}
	}

	th, err := irrigation.ThresholdsFromConfig(deps.Global)
	if err != nil {
		return err
	}
	if err := th.Validate(); err != nil {
		return fmt.Errorf("readings thresholds: %w", err)
	}
	m.thresholds = th

	if deps.Store != nil {
		if err := deps.Store.Migrate(ctx, "readings", migrations()); err != nil {
			return fmt.Errorf("readings migrations: %w", err)
		}
		m.store = NewStore(deps.Store.DB())
	}

	m.cache = newRecentCache(m.cfg.CacheTTL)
	m.bus = deps.Bus

	m.logger.Info("readings module initialized",
		zap.Duration("cache_ttl", m.cfg.CacheTTL),
		zap.Int("default_limit", m.cfg.DefaultLimit),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }

func (m *Module) Stop(_ context.Context) error {
	m.cache.invalidate()
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	if m.store == nil {
		return plugin.HealthStatus{
			Status:  "degraded",
			Details: map[string]string{"store": "unavailable"},
		}
	}
	n, err := m.store.Count(ctx)
	if err != nil {
		return plugin.HealthStatus{
			Status:  "unhealthy",
			Message: err.Error(),
			Details: map[string]string{"store": "error"},
		}
	}
	return plugin.HealthStatus{
		Status: "healthy",
		Details: map[string]string{
			"store":    "connected",
			"readings": strconv.Itoa(n),
		},
	}
}

// Store exposes the underlying store, mainly for seeding and tests.
func (m *Module) Store() *ReadingStore {
	return m.store
}

// Thresholds returns the thresholds the module was configured with.
func (m *Module) Thresholds() irrigation.Thresholds {
	return m.thresholds
}

// Recent implements roles.ReadingSource.
func (m *Module) Recent(ctx context.Context, limit int) ([]models.SensorReading, error) {
	if m.store == nil {
		return nil, errStoreUnavailable
	}
	if cached, ok := m.cache.get(limit); ok {
		return cached, nil
	}
	out, err := m.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	m.cache.put(limit, out)
	return out, nil
}

// Record implements roles.ReadingSink.
func (m *Module) Record(ctx context.Context, r *models.SensorReading, source string) (*models.SensorReading, error) {
	if m.store == nil {
		return nil, errStoreUnavailable
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if err := m.store.Add(ctx, r); err != nil {
		return nil, err
	}
	m.cache.invalidate()
	ingestedTotal.WithLabelValues(source).Inc()

	m.logger.Debug("reading recorded",
		zap.Int64("reading_id", r.ID),
		zap.String("source", source),
		zap.Bool("pump_on", r.PumpOn),
	)
	m.publishEvent(ctx, TopicReadingCreated, CreatedEvent{Reading: *r, Source: source})
	return r, nil
}

// Update changes one field of a stored reading.
func (m *Module) Update(ctx context.Context, id int64, field Field, value any) (*models.SensorReading, error) {
	if m.store == nil {
		return nil, errStoreUnavailable
	}
	updated, err := m.store.UpdateField(ctx, id, field, value)
	if err != nil {
		return nil, err
	}
	m.cache.invalidate()
	m.publishEvent(ctx, TopicReadingUpdated, UpdatedEvent{Reading: *updated, Field: field})
	return updated, nil
}

// Delete removes a stored reading.
func (m *Module) Delete(ctx context.Context, id int64) error {
	if m.store == nil {
		return errStoreUnavailable
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.cache.invalidate()
	m.publishEvent(ctx, TopicReadingDeleted, DeletedEvent{ID: id})
	return nil
}

// Decided fills the decision columns of r from the engine.
func (m *Module) Decided(r *models.SensorReading) {
	d := irrigation.Decide(irrigation.Input{
		Humidity:   r.Humidity,
		PH:         r.PH,
		Phosphorus: r.PhosphorusPresent,
		Potassium:  r.PotassiumPresent,
	}, m.thresholds)
	irrigation.Observe(d)
	r.PumpOn = d.PumpOn
	r.DecisionReason = d.Reason
	r.IsEmergency = d.IsEmergency
}

func (m *Module) publishEvent(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "readings",
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
