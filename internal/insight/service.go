package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/farmtech/irrigation/pkg/analytics"
	"github.com/farmtech/irrigation/pkg/models"
	"go.uber.org/zap"
)

type trainFunc func(ctx context.Context, rs []models.SensorReading, now time.Time) (*Training, error)

// train runs fn over the current window, stores the snapshot and
// announces it. Untrained results are returned without being stored.
func (m *Module) train(ctx context.Context, kind string, fn trainFunc) (*analytics.ClassifierResult, error) {
	m.trainMu.Lock()
	defer m.trainMu.Unlock()

	rs, err := m.readings(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	t, err := fn(ctx, rs, m.now())
	trainingSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	res := t.Result
	if !res.Trained {
		m.logger.Info("model not trained", zap.String("model", kind), zap.String("reason", res.Message))
		return &res, nil
	}

	if m.store != nil {
		saved := &SavedModel{ID: res.ModelID, Kind: kind, Result: res, Forest: t.Forest, TrainedAt: res.TrainedAt}
		if err := m.store.SaveModel(ctx, saved); err != nil {
			return nil, fmt.Errorf("save %s model: %w", kind, err)
		}
	}
	m.logger.Info("model trained",
		zap.String("model", kind),
		zap.String("model_id", res.ModelID),
		zap.Float64("accuracy", res.Accuracy),
		zap.Int("train_size", res.TrainSize),
		zap.Duration("elapsed", time.Since(start)),
	)
	m.publishEvent(ctx, TopicModelTrained, res)
	return &res, nil
}

func (m *Module) trainRisk(ctx context.Context) (*analytics.ClassifierResult, error) {
	return m.train(ctx, KindRisk, func(ctx context.Context, rs []models.SensorReading, now time.Time) (*Training, error) {
		return TrainRisk(ctx, rs, m.cfg.Risk, now)
	})
}

func (m *Module) trainMaintenance(ctx context.Context) (*analytics.ClassifierResult, error) {
	return m.train(ctx, KindMaintenance, func(ctx context.Context, rs []models.SensorReading, now time.Time) (*Training, error) {
		return TrainMaintenance(ctx, rs, m.cfg.Maintenance, now)
	})
}

// forecast builds the humidity projection and publishes its alert.
func (m *Module) forecast(ctx context.Context) (*analytics.Forecast, error) {
	rs, err := m.readings(ctx)
	if err != nil {
		return nil, err
	}
	fc, err := BuildForecast(rs, m.forecastCfg, m.thresholds, m.now())
	if err != nil {
		return nil, err
	}
	if fc.Alert != nil {
		m.logger.Warn("humidity forecast below threshold",
			zap.Float64("threshold", fc.Alert.Threshold),
			zap.Float64("min_value", fc.Alert.MinValue),
			zap.Time("first_at", fc.Alert.FirstAt),
		)
		m.publishEvent(ctx, TopicForecastAlert, ForecastAlertEvent{Alert: *fc.Alert, Forecast: *fc})
	}
	return fc, nil
}
