package insight

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/farmtech/irrigation/internal/insight/baseline"
	"github.com/farmtech/irrigation/internal/insight/forest"
	"github.com/farmtech/irrigation/pkg/analytics"
)

// ErrNoModel is returned when no snapshot of the requested kind exists.
var ErrNoModel = errors.New("no trained model")

// Model kinds stored in insight_models.
const (
	KindRisk        = "risk"
	KindMaintenance = "maintenance"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SavedModel is one persisted classifier.
type SavedModel struct {
	ID        string
	Kind      string
	Result    analytics.ClassifierResult
	Forest    *forest.Forest
	TrainedAt time.Time
}

// InsightStore provides database access for the insight module.
type InsightStore struct {
	db *sql.DB
}

// NewInsightStore creates a new InsightStore backed by the given database.
func NewInsightStore(db *sql.DB) *InsightStore {
	return &InsightStore{db: db}
}

// -- Models --

// SaveModel stores a classifier snapshot.
func (s *InsightStore) SaveModel(ctx context.Context, m *SavedModel) error {
	result, err := json.Marshal(m.Result)
	if err != nil {
		return fmt.Errorf("encode model result: %w", err)
	}
	f, err := json.Marshal(m.Forest)
	if err != nil {
		return fmt.Errorf("encode forest: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO insight_models (id, kind, result, forest, trained_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Kind, string(result), string(f), m.TrainedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert model: %w", err)
	}
	return nil
}

// LatestModel loads the newest snapshot of kind, or ErrNoModel.
func (s *InsightStore) LatestModel(ctx context.Context, kind string) (*SavedModel, error) {
	var (
		m             SavedModel
		result, fjson string
		trainedAt     string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, result, forest, trained_at
		FROM insight_models WHERE kind = ?
		ORDER BY trained_at DESC LIMIT 1`, kind,
	).Scan(&m.ID, &m.Kind, &result, &fjson, &trainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoModel
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s model: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(result), &m.Result); err != nil {
		return nil, fmt.Errorf("decode model result: %w", err)
	}
	m.Forest = &forest.Forest{}
	if err := json.Unmarshal([]byte(fjson), m.Forest); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if m.TrainedAt, err = time.Parse(timeLayout, trainedAt); err != nil {
		return nil, fmt.Errorf("parse trained_at: %w", err)
	}
	return &m, nil
}

// ListModels returns stored training results of kind, newest first.
func (s *InsightStore) ListModels(ctx context.Context, kind string, limit int) ([]analytics.ClassifierResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT result FROM insight_models WHERE kind = ?
		ORDER BY trained_at DESC LIMIT ?`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	out := []analytics.ClassifierResult{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan model row: %w", err)
		}
		var r analytics.ClassifierResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("decode model result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneModels keeps the newest keep snapshots of kind and deletes the rest.
func (s *InsightStore) PruneModels(ctx context.Context, kind string, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM insight_models WHERE kind = ? AND id NOT IN (
			SELECT id FROM insight_models WHERE kind = ?
			ORDER BY trained_at DESC LIMIT ?
		)`, kind, kind, keep)
	if err != nil {
		return 0, fmt.Errorf("prune models: %w", err)
	}
	return res.RowsAffected()
}

// -- Baselines --

// UpsertBaseline persists the tracker state for one metric.
func (s *InsightStore) UpsertBaseline(ctx context.Context, metric string, t *baseline.Tracker, now time.Time) error {
	state, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO insight_baselines (metric, state, samples, updated_at)
		VALUES (?, ?, ?, ?)`,
		metric, string(state), t.EWMA.Samples, now.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert baseline: %w", err)
	}
	return nil
}

// LoadBaselines returns every persisted tracker keyed by metric.
func (s *InsightStore) LoadBaselines(ctx context.Context) (map[string]*baseline.Tracker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT metric, state FROM insight_baselines`)
	if err != nil {
		return nil, fmt.Errorf("load baselines: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*baseline.Tracker)
	for rows.Next() {
		var metric, raw string
		if err := rows.Scan(&metric, &raw); err != nil {
			return nil, fmt.Errorf("scan baseline row: %w", err)
		}
		var t baseline.Tracker
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decode baseline %s: %w", metric, err)
		}
		if t.EWMA == nil || t.CUSUM == nil {
			continue
		}
		out[metric] = &t
	}
	return out, rows.Err()
}
