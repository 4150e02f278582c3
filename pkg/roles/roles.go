// Package roles defines typed contracts for module roles.
// Modules that fill a role (declared via PluginInfo.Roles) implement the
// matching interface so peers can resolve them with
// PluginResolver.ResolveByRole followed by a type assertion.
package roles

import (
	"context"

	"github.com/farmtech/irrigation/pkg/models"
)

// Role name constants match the strings used in PluginInfo.Roles.
const (
	RoleReadings  = "readings"
	RoleWeather   = "weather"
	RoleAnalytics = "analytics"
)

// ReadingSource is implemented by the module that owns stored readings.
type ReadingSource interface {
	// Recent returns up to limit readings, newest first. limit <= 0 means all.
	Recent(ctx context.Context, limit int) ([]models.SensorReading, error)
}

// ReadingSink accepts new readings from producers (listeners, MQTT ingest).
type ReadingSink interface {
	// Record validates and persists r, returning the stored copy.
	Record(ctx context.Context, r *models.SensorReading, source string) (*models.SensorReading, error)
}

// RainForecaster is implemented by weather providers.
type RainForecaster interface {
	// ExpectedRain returns the precipitation expected over the coming day
	// in millimetres. A nil value with a nil error means no forecast is
	// available; callers treat that as "no rain forecast".
	ExpectedRain(ctx context.Context) (*float64, error)
}
