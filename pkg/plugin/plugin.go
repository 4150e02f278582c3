// Package plugin provides the module SDK shared by every FarmTech component.
// Built-in modules (readings, insight, listener, weather, mqtt) implement
// these interfaces and are composed at compile time in cmd/farmtech.
package plugin

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// API version constants for module compatibility checking.
const (
	APIVersionMin     = 1
	APIVersionCurrent = 1
)

// Plugin defines the lifecycle every FarmTech module implements.
type Plugin interface {
	// Info returns the module's metadata and dependency declarations.
	Info() PluginInfo

	// Init wires the module to its dependencies. No background work yet.
	Init(ctx context.Context, deps Dependencies) error

	// Start begins background operations (loops, broker connections).
	Start(ctx context.Context) error

	// Stop gracefully shuts down the module.
	Stop(ctx context.Context) error
}

// PluginInfo contains module metadata and dependency declarations.
type PluginInfo struct {
	Name         string   // Unique identifier: "readings", "insight", "listener", ...
	Version      string   // Semantic version string
	Description  string   // Human-readable summary
	Dependencies []string // Module names that must initialize first
	Required     bool     // If true, the server refuses to start without this module
	Roles        []string // Roles this module fills: "readings", "weather"
	APIVersion   int
}

// Dependencies is the explicit application context handed to each module
// during Init. It replaces process-wide singletons: everything a module
// needs (config, logger, database, bus, peers) arrives through here.
type Dependencies struct {
	Config  Config      // Scoped to plugins.<name>
	Global  Config      // Whole configuration tree (thresholds, forecast, costs)
	Logger  *zap.Logger // Named logger for this module
	Store   Store
	Bus     EventBus
	Plugins PluginResolver
}

// Store is the database handle shared by all modules.
type Store interface {
	DB() *sql.DB
	Tx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Migrate(ctx context.Context, component string, migrations []Migration) error
}

// Migration is a single forward-only schema change owned by one module.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// Route represents an HTTP route exposed by a module.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// HTTPProvider is implemented by modules that expose API routes. Routes are
// mounted under /api/v1/<module name>.
type HTTPProvider interface {
	Routes() []Route
}

// HealthChecker is implemented by modules that report their own health.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// Validator is implemented by modules that validate configuration after Init.
type Validator interface {
	ValidateConfig() error
}

// EventSubscriber is implemented by modules that listen on the event bus.
// The registry wires Subscriptions after Init.
type EventSubscriber interface {
	Subscriptions() []Subscription
}

// HealthStatus represents a module's health report.
type HealthStatus struct {
	Status  string            `json:"status"` // "healthy", "degraded", "unhealthy"
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Config abstracts configuration access. Wraps Viper.
type Config interface {
	Unmarshal(target any) error
	Get(key string) any
	GetString(key string) string
	GetInt(key string) int
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber receives events from the bus.
type Subscriber interface {
	Subscribe(topic string, handler EventHandler) (unsubscribe func())
}

// EventBus provides publish/subscribe between modules.
type EventBus interface {
	Publisher
	Subscriber
	PublishAsync(ctx context.Context, event Event)
	SubscribeAll(handler EventHandler) (unsubscribe func())
}

// Event represents a typed message on the event bus.
type Event struct {
	Topic     string
	Source    string // Module name that emitted the event
	Timestamp time.Time
	Payload   any // Type depends on topic
}

// EventHandler processes events from the bus.
type EventHandler func(ctx context.Context, event Event)

// Subscription declares a topic subscription for EventSubscriber modules.
type Subscription struct {
	Topic   string
	Handler EventHandler
}

// PluginResolver allows modules to locate peers by name or role.
type PluginResolver interface {
	Resolve(name string) (Plugin, bool)
	ResolveByRole(role string) []Plugin
}
