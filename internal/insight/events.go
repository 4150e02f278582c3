package insight

import (
	"time"

	"github.com/farmtech/irrigation/internal/insight/baseline"
	"github.com/farmtech/irrigation/pkg/analytics"
)

// Event topics published by the insight module.
const (
	TopicAnomalyDetected = "insight.anomaly.detected"
	TopicForecastAlert   = "insight.forecast.alert"
	TopicModelTrained    = "insight.model.trained"
)

// DriftEvent is published when a live metric shifts away from its baseline.
type DriftEvent struct {
	ReadingID   int64                `json:"reading_id"`
	Timestamp   time.Time            `json:"timestamp"`
	Metric      string               `json:"metric"`
	Severity    string               `json:"severity"`
	Observation baseline.Observation `json:"observation"`
}

// ForecastAlertEvent carries a projected humidity shortfall.
type ForecastAlertEvent struct {
	Alert    analytics.ForecastAlert `json:"alert"`
	Forecast analytics.Forecast      `json:"forecast"`
}
