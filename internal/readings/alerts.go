package readings

import (
	"fmt"

	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/pkg/models"
)

// AlertWindow is how many of the most recent readings are checked.
const AlertWindow = 5

// Alert severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Alert flags one out-of-band value in a recent reading.
type Alert struct {
	ReadingID int64   `json:"reading_id"`
	Timestamp string  `json:"timestamp"`
	Severity  string  `json:"severity"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Message   string  `json:"message"`
}

// RecentAlerts checks readings (newest first) for critical humidity and pH
// outside the safe band. Only the first AlertWindow readings are examined.
// Alerts come back oldest first.
func RecentAlerts(readings []models.SensorReading, th irrigation.Thresholds) []Alert {
	if len(readings) > AlertWindow {
		readings = readings[:AlertWindow]
	}
	alerts := []Alert{}
	for i := len(readings) - 1; i >= 0; i-- {
		r := readings[i]
		when := r.Timestamp.Format("02/01 15:04")
		if r.Humidity < th.HumidityCriticalLow {
			alerts = append(alerts, Alert{
				ReadingID: r.ID,
				Timestamp: formatTime(r.Timestamp),
				Severity:  SeverityCritical,
				Metric:    "humidity",
				Value:     r.Humidity,
				Message:   fmt.Sprintf("Critical humidity (%.1f%%) at %s", r.Humidity, when),
			})
		}
		if th.PHCritical(r.PH) {
			alerts = append(alerts, Alert{
				ReadingID: r.ID,
				Timestamp: formatTime(r.Timestamp),
				Severity:  SeverityWarning,
				Metric:    "ph",
				Value:     r.PH,
				Message:   fmt.Sprintf("pH outside safe band (%.1f) at %s", r.PH, when),
			})
		}
	}
	return alerts
}
