// Package insight is the analysis pipeline over stored readings:
// descriptive statistics, correlation, anomaly flags, the emergency-risk
// and pump-maintenance classifiers, humidity forecasting, cost estimates
// and diagnostics. It also watches new readings for sustained drift.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/internal/readings"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/farmtech/irrigation/pkg/plugin"
	"github.com/farmtech/irrigation/pkg/roles"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
	_ plugin.Validator       = (*Module)(nil)
)

var errNoReadingSource = errors.New("no reading source available")

// Module implements the insight plugin.
type Module struct {
	logger      *zap.Logger
	cfg         Config
	forecastCfg ForecastSettings
	thresholds  irrigation.Thresholds
	costs       irrigation.Costs
	store       *InsightStore
	bus         plugin.EventBus
	plugins     plugin.PluginResolver
	drift       *driftWatcher
	now         func() time.Time

	// trainMu serializes training so manual and scheduled runs do not overlap.
	trainMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new insight plugin instance.
func New() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "insight",
		Version:      "0.1.0",
		Description:  "Statistics, classifiers and humidity forecasting",
		Dependencies: []string{"readings"},
		Roles:        []string{roles.RoleAnalytics},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal insight config: %w", err)
		}
	}

	var err error
	if m.forecastCfg, err = forecastFromConfig(deps.Global); err != nil {
		return err
	}
	if m.thresholds, err = irrigation.ThresholdsFromConfig(deps.Global); err != nil {
		return err
	}
	if m.costs, err = irrigation.CostsFromConfig(deps.Global); err != nil {
		return err
	}

	m.drift = newDriftWatcher(m.cfg.Drift)
	if deps.Store != nil {
		if err := deps.Store.Migrate(ctx, "insight", migrations()); err != nil {
			return fmt.Errorf("insight migrations: %w", err)
		}
		m.store = NewInsightStore(deps.Store.DB())
		saved, err := m.store.LoadBaselines(ctx)
		if err != nil {
			m.logger.Warn("failed to restore baselines", zap.Error(err))
		} else {
			m.drift.restore(saved)
		}
	}

	m.bus = deps.Bus
	m.plugins = deps.Plugins

	m.logger.Info("insight module initialized",
		zap.Float64("zscore_threshold", m.cfg.ZScoreThreshold),
		zap.Int("history_limit", m.cfg.HistoryLimit),
		zap.Duration("retrain_interval", m.cfg.RetrainInterval),
		zap.Stringer("arima", m.forecastCfg.ARIMA),
		zap.Int("baselines_restored", m.drift.count()),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if err := m.cfg.Validate(); err != nil {
		return fmt.Errorf("insight: %w", err)
	}
	if err := m.forecastCfg.Validate(); err != nil {
		return fmt.Errorf("insight: %w", err)
	}
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.startMaintenance()
	m.logger.Info("insight module started")
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	if m.store != nil {
		m.persistBaselines(ctx)
	}
	m.logger.Info("insight module stopped")
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	count := 0
	if m.drift != nil {
		count = m.drift.count()
	}
	details := map[string]string{
		"baselines_tracked": strconv.Itoa(count),
		"reading_source":    strconv.FormatBool(m.source() != nil),
	}
	if m.store == nil {
		details["store"] = "unavailable"
		return plugin.HealthStatus{Status: "degraded", Details: details}
	}
	details["store"] = "connected"
	return plugin.HealthStatus{Status: "healthy", Details: details}
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: readings.TopicReadingCreated, Handler: m.handleReadingCreated},
	}
}

// handleReadingCreated feeds a new reading to the drift watcher.
func (m *Module) handleReadingCreated(ctx context.Context, event plugin.Event) {
	created, ok := event.Payload.(readings.CreatedEvent)
	if !ok {
		m.logger.Debug("ignored reading event: unexpected payload type",
			zap.String("source", event.Source))
		return
	}
	for _, ev := range m.drift.observe(created.Reading) {
		m.logger.Info("sustained drift detected",
			zap.Int64("reading_id", ev.ReadingID),
			zap.String("metric", ev.Metric),
			zap.String("direction", ev.Observation.Direction),
			zap.String("severity", ev.Severity),
			zap.Float64("value", ev.Observation.Value),
			zap.Float64("baseline", ev.Observation.Mean),
		)
		m.publishEvent(ctx, TopicAnomalyDetected, ev)
	}
}

func (m *Module) source() roles.ReadingSource {
	if m.plugins == nil {
		return nil
	}
	for _, p := range m.plugins.ResolveByRole(roles.RoleReadings) {
		if src, ok := p.(roles.ReadingSource); ok {
			return src
		}
	}
	return nil
}

// readings loads the analysis window, newest first.
func (m *Module) readings(ctx context.Context) ([]models.SensorReading, error) {
	src := m.source()
	if src == nil {
		return nil, errNoReadingSource
	}
	return src.Recent(ctx, m.cfg.HistoryLimit)
}

func (m *Module) publishEvent(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	m.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "insight",
		Timestamp: m.now(),
		Payload:   payload,
	})
}
