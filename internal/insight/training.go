package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farmtech/irrigation/internal/insight/features"
	"github.com/farmtech/irrigation/internal/insight/forest"
	"github.com/farmtech/irrigation/pkg/analytics"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/google/uuid"
)

// Training outcome: the public result plus the fitted forest, which is
// nil when the result is not trained.
type Training struct {
	Result analytics.ClassifierResult
	Forest *forest.Forest
}

func notTrained(model string, m features.Matrix, msg string, now time.Time) *Training {
	return &Training{Result: analytics.ClassifierResult{
		Model:     model,
		Message:   msg,
		Features:  m.Names,
		TrainSize: len(m.Rows),
		TrainedAt: now,
	}}
}

// splitOrExplain holds out testSize of m stratified by label, or explains
// why the data cannot be split.
func splitOrExplain(m features.Matrix, testSize float64, seed uint64) (train, test []int, msg string) {
	neg, pos := m.Classes()
	if neg == 0 || pos == 0 {
		return nil, nil, fmt.Sprintf("not enough data: both classes are required (have %d negative, %d positive)", neg, pos)
	}
	train, test, err := forest.StratifiedSplit(m.Labels, testSize, seed)
	if err != nil {
		return nil, nil, fmt.Sprintf("not enough data: %v", err)
	}
	return train, test, ""
}

// TrainRisk fits the emergency-risk forest: stratified holdout, grid
// search with stratified k-fold accuracy, then a refit of the best
// parameters on the whole training split.
func TrainRisk(ctx context.Context, readings []models.SensorReading, cfg RiskConfig, now time.Time) (*Training, error) {
	m := features.Risk(readings)
	trainIdx, testIdx, msg := splitOrExplain(m, cfg.TestSize, cfg.Seed)
	if msg != "" {
		return notTrained(KindRisk, m, msg, now), nil
	}
	xTrain, yTrain := forest.Subset(m.Rows, m.Labels, trainIdx)
	xTest, yTest := forest.Subset(m.Rows, m.Labels, testIdx)

	grid := forest.DefaultGrid(forest.Params{Balanced: true, Seed: cfg.Seed})
	best, err := forest.GridSearch(ctx, xTrain, yTrain, grid, cfg.CVFolds)
	if err != nil {
		return nil, fmt.Errorf("risk grid search: %w", err)
	}
	f, err := forest.Train(ctx, xTrain, yTrain, best.Params)
	if errors.Is(err, forest.ErrSingleClass) {
		return notTrained(KindRisk, m, "not enough data: training split holds a single class", now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("train risk forest: %w", err)
	}

	t := evaluate(KindRisk, f, m.Names, xTrain, xTest, yTest, now)
	t.Result.BestParams = &analytics.ForestParams{
		Trees:    best.Params.Trees,
		MaxDepth: best.Params.MaxDepth,
		MinLeaf:  best.Params.MinLeaf,
	}
	t.Result.CVScore = best.Score
	return t, nil
}

// TrainMaintenance fits the pump-wear forest with a fixed configuration.
func TrainMaintenance(ctx context.Context, readings []models.SensorReading, cfg MaintenanceConfig, now time.Time) (*Training, error) {
	m := features.Maintenance(readings, cfg.RuntimeThresholdHours)
	trainIdx, testIdx, msg := splitOrExplain(m, cfg.TestSize, cfg.Seed)
	if msg != "" {
		return notTrained(KindMaintenance, m, msg, now), nil
	}
	xTrain, yTrain := forest.Subset(m.Rows, m.Labels, trainIdx)
	xTest, yTest := forest.Subset(m.Rows, m.Labels, testIdx)

	p := forest.Params{Trees: cfg.Trees, MinLeaf: 1, Balanced: true, Seed: cfg.Seed}
	f, err := forest.Train(ctx, xTrain, yTrain, p)
	if errors.Is(err, forest.ErrSingleClass) {
		return notTrained(KindMaintenance, m, "not enough data: training split holds a single class", now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("train maintenance forest: %w", err)
	}
	t := evaluate(KindMaintenance, f, m.Names, xTrain, xTest, yTest, now)
	t.Result.BestParams = &analytics.ForestParams{Trees: p.Trees, MaxDepth: p.MaxDepth, MinLeaf: p.MinLeaf}
	return t, nil
}

func evaluate(kind string, f *forest.Forest, names []string, xTrain, xTest [][]float64, yTest []int, now time.Time) *Training {
	pred := f.PredictAll(xTest)
	return &Training{
		Forest: f,
		Result: analytics.ClassifierResult{
			ModelID:         uuid.New().String(),
			Model:           kind,
			Trained:         true,
			Accuracy:        forest.Accuracy(yTest, pred),
			ConfusionMatrix: forest.Confusion(yTest, pred),
			Features:        names,
			TrainSize:       len(xTrain),
			TestSize:        len(xTest),
			TrainedAt:       now,
		},
	}
}

// PredictRisk scores candidate as the next reading after history.
func PredictRisk(saved *SavedModel, history []models.SensorReading, candidate models.SensorReading) analytics.RiskPrediction {
	p := saved.Forest.Proba(features.RiskRow(history, candidate))
	return analytics.RiskPrediction{
		ModelID:     saved.ID,
		Probability: p,
		Emergency:   p > 0.5,
	}
}
