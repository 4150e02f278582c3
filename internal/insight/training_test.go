package insight

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/farmtech/irrigation/internal/insight/features"
	"github.com/farmtech/irrigation/internal/testutil"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// riskHistory is hourly readings where humidity below 15 % is an emergency.
func riskHistory(n int) []models.SensorReading {
	out := make([]models.SensorReading, n)
	for i := range out {
		h := float64(5 + (i*7)%50)
		r := testutil.NewReading(
			testutil.WithHumidity(h),
			testutil.WithTimestamp(testutil.BaseTime.Add(time.Duration(i)*time.Hour)),
		)
		r.ID = int64(i + 1)
		if h < 15 {
			r.IsEmergency = true
			r.PumpOn = true
		}
		out[i] = r
	}
	return out
}

func TestTrainRisk(t *testing.T) {
	cfg := DefaultConfig().Risk
	tr, err := TrainRisk(context.Background(), riskHistory(60), cfg, testutil.BaseTime)
	require.NoError(t, err)

	res := tr.Result
	require.True(t, res.Trained, res.Message)
	require.NotNil(t, tr.Forest)
	assert.Equal(t, KindRisk, res.Model)
	assert.NotEmpty(t, res.ModelID)
	assert.Equal(t, features.RiskNames, res.Features)
	assert.Equal(t, 60, res.TrainSize+res.TestSize)
	assert.GreaterOrEqual(t, res.Accuracy, 0.75)
	require.NotNil(t, res.BestParams)
	assert.Contains(t, []int{50, 100, 200}, res.BestParams.Trees)
	assert.Contains(t, []int{2, 4}, res.BestParams.MinLeaf)
	assert.Greater(t, res.CVScore, 0.0)

	var total int
	for _, row := range res.ConfusionMatrix {
		total += row[0] + row[1]
	}
	assert.Equal(t, res.TestSize, total)
}

func TestTrainRisk_SingleClass(t *testing.T) {
	rs := testutil.Series(time.Hour, 40, 41, 42, 43, 44, 45)
	tr, err := TrainRisk(context.Background(), rs, DefaultConfig().Risk, testutil.BaseTime)
	require.NoError(t, err)

	assert.False(t, tr.Result.Trained)
	assert.Nil(t, tr.Forest)
	assert.True(t, strings.HasPrefix(tr.Result.Message, "not enough data"), tr.Result.Message)
}

func TestTrainRisk_OneEmergencyCannotSplit(t *testing.T) {
	rs := testutil.Series(time.Hour, 40, 41, 10, 43, 44)
	rs[2].IsEmergency = true
	tr, err := TrainRisk(context.Background(), rs, DefaultConfig().Risk, testutil.BaseTime)
	require.NoError(t, err)
	assert.False(t, tr.Result.Trained)
}

func TestTrainMaintenance(t *testing.T) {
	// One long pump run: runtime climbs 1 h per reading.
	rs := testutil.Series(time.Hour, flatSeries(40, 30)...)
	for i := range rs {
		rs[i].PumpOn = true
	}
	cfg := DefaultConfig().Maintenance
	cfg.RuntimeThresholdHours = 20
	cfg.Trees = 20

	tr, err := TrainMaintenance(context.Background(), rs, cfg, testutil.BaseTime)
	require.NoError(t, err)

	res := tr.Result
	require.True(t, res.Trained, res.Message)
	assert.Equal(t, KindMaintenance, res.Model)
	assert.Equal(t, features.MaintenanceNames, res.Features)
	assert.Equal(t, 10, res.TestSize)
	assert.GreaterOrEqual(t, res.Accuracy, 0.9)
	require.NotNil(t, res.BestParams)
	assert.Equal(t, 20, res.BestParams.Trees)
}

func TestTrainMaintenance_NoLongRuns(t *testing.T) {
	rs := testutil.Series(time.Hour, flatSeries(10, 30)...)
	tr, err := TrainMaintenance(context.Background(), rs, DefaultConfig().Maintenance, testutil.BaseTime)
	require.NoError(t, err)
	assert.False(t, tr.Result.Trained)
	assert.Contains(t, tr.Result.Message, "both classes")
}

func TestPredictRisk(t *testing.T) {
	history := riskHistory(60)
	tr, err := TrainRisk(context.Background(), history, DefaultConfig().Risk, testutil.BaseTime)
	require.NoError(t, err)
	require.True(t, tr.Result.Trained)

	saved := &SavedModel{ID: tr.Result.ModelID, Kind: KindRisk, Result: tr.Result, Forest: tr.Forest}
	dry := PredictRisk(saved, history, testutil.NewReading(testutil.WithHumidity(6)))
	wet := PredictRisk(saved, history, testutil.NewReading(testutil.WithHumidity(50)))

	assert.Equal(t, saved.ID, dry.ModelID)
	assert.Greater(t, dry.Probability, wet.Probability)
	assert.False(t, wet.Emergency)
}
