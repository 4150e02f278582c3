package insight

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// keepModels is how many snapshots of each kind survive pruning.
const keepModels = 10

// startMaintenance launches a background goroutine that periodically
// retrains the risk model, persists drift baselines and prunes old model
// snapshots. Nothing runs when RetrainInterval is zero.
func (m *Module) startMaintenance() {
	if m.cfg.RetrainInterval <= 0 {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.RetrainInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.runMaintenance()
			}
		}
	}()
}

// runMaintenance executes a single maintenance cycle.
func (m *Module) runMaintenance() {
	ctx, cancel := context.WithTimeout(m.ctx, 5*time.Minute)
	defer cancel()

	if _, err := m.trainRisk(ctx); err != nil {
		m.logger.Warn("scheduled risk training failed", zap.Error(err))
	}
	if m.store == nil {
		return
	}
	m.persistBaselines(ctx)

	for _, kind := range []string{KindRisk, KindMaintenance} {
		deleted, err := m.store.PruneModels(ctx, kind, keepModels)
		if err != nil {
			m.logger.Warn("failed to prune models", zap.String("kind", kind), zap.Error(err))
		} else if deleted > 0 {
			m.logger.Info("pruned old models", zap.String("kind", kind), zap.Int64("count", deleted))
		}
	}
}

// persistBaselines writes the drift trackers to the database.
func (m *Module) persistBaselines(ctx context.Context) {
	snap := m.drift.snapshot()
	now := m.now()
	persisted := 0
	for metric, t := range snap {
		if err := m.store.UpsertBaseline(ctx, metric, t, now); err != nil {
			m.logger.Warn("failed to persist baseline",
				zap.String("metric", metric),
				zap.Error(err),
			)
			continue
		}
		persisted++
	}
	if persisted > 0 {
		m.logger.Debug("persisted baselines", zap.Int("count", persisted))
	}
}
