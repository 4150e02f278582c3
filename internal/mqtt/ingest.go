package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farmtech/irrigation/internal/calibration"
	"github.com/farmtech/irrigation/pkg/models"
)

var errMissingValue = errors.New("payload needs humidity or humidity_raw and ph or ph_raw")

// IngestPayload is what field nodes publish on <prefix>/sensors/<id>/reading.
// Calibrated values win over raw ADC counts when both are present.
type IngestPayload struct {
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Humidity    *float64   `json:"humidity,omitempty"`
	PH          *float64   `json:"ph,omitempty"`
	HumidityRaw *float64   `json:"humidity_raw,omitempty"`
	PHRaw       *float64   `json:"ph_raw,omitempty"`
	Phosphorus  bool       `json:"phosphorus_present"`
	Potassium   bool       `json:"potassium_present"`
	Temperature *float64   `json:"temperature,omitempty"`
}

// ParseIngest decodes and calibrates a sensor payload into a reading
// without decision columns. now stamps payloads that carry no timestamp.
func ParseIngest(data []byte, curve calibration.PHCurve, now time.Time) (models.SensorReading, error) {
	var p IngestPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return models.SensorReading{}, fmt.Errorf("decode payload: %w", err)
	}

	r := models.SensorReading{
		Timestamp:         now.UTC(),
		PhosphorusPresent: p.Phosphorus,
		PotassiumPresent:  p.Potassium,
		Temperature:       p.Temperature,
	}
	if p.Timestamp != nil {
		r.Timestamp = p.Timestamp.UTC()
	}

	switch {
	case p.Humidity != nil:
		r.Humidity = *p.Humidity
	case p.HumidityRaw != nil:
		r.Humidity = calibration.HumidityFromADC(*p.HumidityRaw)
	default:
		return models.SensorReading{}, errMissingValue
	}
	switch {
	case p.PH != nil:
		r.PH = *p.PH
	case p.PHRaw != nil:
		r.PH = curve.PH(*p.PHRaw)
	default:
		return models.SensorReading{}, errMissingValue
	}

	if err := r.Validate(); err != nil {
		return models.SensorReading{}, err
	}
	return r, nil
}

// SensorID extracts the <id> segment of <prefix>/sensors/<id>/reading.
func SensorID(prefix, topic string) string {
	rest, ok := strings.CutPrefix(topic, prefix+"/sensors/")
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, "/reading")
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
