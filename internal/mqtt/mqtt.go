// Package mqtt bridges the irrigation monitor to an MQTT broker. Field
// nodes publish readings on <prefix>/sensors/<id>/reading; the bridge
// calibrates them, takes the pump decision and records them. In the
// other direction it publishes reading state, pump commands, alerts and
// optional Home Assistant discovery configs.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/farmtech/irrigation/internal/calibration"
	"github.com/farmtech/irrigation/internal/insight"
	"github.com/farmtech/irrigation/internal/irrigation"
	"github.com/farmtech/irrigation/internal/readings"
	"github.com/farmtech/irrigation/pkg/models"
	"github.com/farmtech/irrigation/pkg/plugin"
	"github.com/farmtech/irrigation/pkg/roles"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
	_ plugin.Validator       = (*Module)(nil)
)

var errNoReadingSink = errors.New("no reading sink available")

// Module implements the MQTT bridge plugin.
type Module struct {
	logger     *zap.Logger
	cfg        Config
	curve      calibration.PHCurve
	thresholds irrigation.Thresholds
	plugins    plugin.PluginResolver
	now        func() time.Time
	client     pahomqtt.Client
	mu         sync.RWMutex
}

// New creates a new MQTT bridge plugin instance.
func New() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "mqtt",
		Version:      "0.1.0",
		Description:  "Sensor ingest and state publishing over MQTT",
		Dependencies: []string{"readings"},
		Roles:        []string{"integration"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.cfg = DefaultConfig()

	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal mqtt config: %w", err)
		}
	}

	m.curve = calibration.DefaultPHCurve
	if len(m.cfg.PHCurve) > 0 {
		curve, err := calibration.ParsePHCurve(m.cfg.PHCurve)
		if err != nil {
			return fmt.Errorf("mqtt ph_curve: %w", err)
		}
		m.curve = curve
	}

	th, err := irrigation.ThresholdsFromConfig(deps.Global)
	if err != nil {
		return err
	}
	m.thresholds = th
	m.plugins = deps.Plugins

	if m.cfg.BrokerURL == "" {
		m.logger.Warn("MQTT broker URL not configured; bridge disabled",
			zap.String("component", "mqtt"),
		)
	}

	m.logger.Info("mqtt module initialized",
		zap.String("broker_url", m.cfg.BrokerURL),
		zap.String("client_id", m.cfg.ClientID),
		zap.String("topic_prefix", m.cfg.TopicPrefix),
		zap.Uint8("qos", m.cfg.QoS),
		zap.Bool("ingest", m.cfg.Ingest),
		zap.Bool("ha_discovery", m.cfg.HADiscovery),
	)
	return nil
}

func (m *Module) ValidateConfig() error {
	if m.cfg.QoS > 2 {
		return fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", m.cfg.QoS)
	}
	if m.cfg.TopicPrefix == "" {
		return errors.New("mqtt topic_prefix must not be empty")
	}
	return nil
}

func (m *Module) Start(_ context.Context) error {
	if m.cfg.BrokerURL == "" {
		m.logger.Info("mqtt module started (no-op: no broker configured)")
		return nil
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(m.cfg.BrokerURL).
		SetClientID(m.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(m.cfg.Timeout).
		SetOnConnectHandler(m.onConnect)

	if m.cfg.Username != "" {
		opts.SetUsername(m.cfg.Username)
		opts.SetPassword(m.cfg.Password) //nolint:gosec // G101: config field
	}

	m.mu.Lock()
	m.client = pahomqtt.NewClient(opts)
	client := m.client
	m.mu.Unlock()

	token := client.Connect()
	switch {
	case !token.WaitTimeout(m.cfg.Timeout):
		m.logger.Warn("mqtt connection timed out; will reconnect in background")
	case token.Error() != nil:
		m.logger.Warn("mqtt connection failed; will reconnect in background",
			zap.Error(token.Error()),
		)
	default:
		m.logger.Info("mqtt connected to broker",
			zap.String("broker_url", m.cfg.BrokerURL),
		)
	}
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
		m.logger.Info("mqtt disconnected")
	}
	return nil
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: readings.TopicReadingCreated, Handler: m.publishEvent},
		{Topic: insight.TopicAnomalyDetected, Handler: m.publishEvent},
		{Topic: insight.TopicForecastAlert, Handler: m.publishEvent},
	}
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	if m.cfg.BrokerURL == "" {
		return plugin.HealthStatus{
			Status:  "healthy",
			Message: "no broker configured (no-op mode)",
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil || !m.client.IsConnected() {
		return plugin.HealthStatus{
			Status:  "degraded",
			Message: "not connected to MQTT broker",
			Details: map[string]string{"broker_url": m.cfg.BrokerURL},
		}
	}
	return plugin.HealthStatus{
		Status: "healthy",
		Details: map[string]string{
			"broker_url": m.cfg.BrokerURL,
			"ingest":     strconv.FormatBool(m.cfg.Ingest),
		},
	}
}

// IngestTopic is the wildcard subscription for field nodes.
func (m *Module) IngestTopic() string {
	return m.cfg.TopicPrefix + "/sensors/+/reading"
}

// PumpCommandTopic carries ON/OFF for the pump actuator.
func (m *Module) PumpCommandTopic() string {
	return m.cfg.TopicPrefix + "/pump/command"
}

// onConnect runs after every (re)connect: subscriptions do not survive a
// clean session, and discovery configs are re-announced.
func (m *Module) onConnect(client pahomqtt.Client) {
	if m.cfg.Ingest {
		token := client.Subscribe(m.IngestTopic(), m.cfg.QoS, m.handleMessage)
		if !token.WaitTimeout(m.cfg.Timeout) || token.Error() != nil {
			m.logger.Warn("mqtt ingest subscription failed",
				zap.String("topic", m.IngestTopic()),
				zap.Error(token.Error()),
			)
		} else {
			m.logger.Info("mqtt ingest subscribed", zap.String("topic", m.IngestTopic()))
		}
	}
	if m.cfg.HADiscovery {
		m.publishHADiscovery(client, BuildFieldDiscoveryConfigs(m.cfg.TopicPrefix, m.cfg.HADiscoveryPrefix, m.cfg.DeviceName))
	}
}

func (m *Module) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()

	stored, err := m.ingest(ctx, msg.Topic(), msg.Payload())
	if err != nil {
		m.logger.Warn("mqtt reading rejected",
			zap.String("topic", msg.Topic()),
			zap.Error(err),
		)
		return
	}
	m.logger.Debug("mqtt reading recorded",
		zap.String("sensor", SensorID(m.cfg.TopicPrefix, msg.Topic())),
		zap.Int64("reading_id", stored.ID),
	)
}

// ingest parses, decides and records one sensor payload.
func (m *Module) ingest(ctx context.Context, topic string, payload []byte) (*models.SensorReading, error) {
	r, err := ParseIngest(payload, m.curve, m.now())
	if err != nil {
		ingestTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	d := irrigation.Decide(irrigation.Input{
		Humidity:   r.Humidity,
		PH:         r.PH,
		Phosphorus: r.PhosphorusPresent,
		Potassium:  r.PotassiumPresent,
	}, m.thresholds)
	irrigation.Observe(d)
	r.PumpOn = d.PumpOn
	r.DecisionReason = d.Reason
	r.IsEmergency = d.IsEmergency

	sink := m.sink()
	if sink == nil {
		ingestTotal.WithLabelValues("error").Inc()
		return nil, errNoReadingSink
	}
	stored, err := sink.Record(ctx, &r, models.SourceMQTT)
	if err != nil {
		ingestTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("record reading from %s: %w", topic, err)
	}
	ingestTotal.WithLabelValues("ok").Inc()
	return stored, nil
}

func (m *Module) sink() roles.ReadingSink {
	if m.plugins == nil {
		return nil
	}
	for _, p := range m.plugins.ResolveByRole(roles.RoleReadings) {
		if s, ok := p.(roles.ReadingSink); ok {
			return s
		}
	}
	return nil
}

// mqttTopicFromEvent maps an internal event topic to its MQTT topic.
func (m *Module) mqttTopicFromEvent(eventTopic string) string {
	switch eventTopic {
	case readings.TopicReadingCreated:
		return m.cfg.TopicPrefix + "/reading/created"
	case insight.TopicAnomalyDetected:
		return m.cfg.TopicPrefix + "/alert/drift"
	case insight.TopicForecastAlert:
		return m.cfg.TopicPrefix + "/alert/forecast"
	default:
		return m.cfg.TopicPrefix + "/unknown"
	}
}

func (m *Module) publishEvent(_ context.Context, event plugin.Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.client == nil || !m.client.IsConnected() {
		return
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		m.logger.Warn("failed to marshal MQTT payload",
			zap.String("topic", event.Topic),
			zap.Error(err),
		)
		return
	}

	mqttTopic := m.mqttTopicFromEvent(event.Topic)
	token := m.client.Publish(mqttTopic, m.cfg.QoS, m.cfg.Retain, payload)
	if !token.WaitTimeout(m.cfg.Timeout) {
		m.logger.Warn("mqtt publish timed out",
			zap.String("mqtt_topic", mqttTopic),
		)
		return
	}
	if token.Error() != nil {
		m.logger.Warn("mqtt publish failed",
			zap.String("mqtt_topic", mqttTopic),
			zap.Error(token.Error()),
		)
		return
	}

	m.logger.Debug("mqtt event published",
		zap.String("mqtt_topic", mqttTopic),
		zap.String("event_topic", event.Topic),
	)

	for topic, value := range m.statesForEvent(event) {
		m.publishState(topic, value)
	}
}

// statesForEvent returns the retained state values an event updates,
// keyed by MQTT topic. A created reading also updates the pump command.
func (m *Module) statesForEvent(event plugin.Event) map[string]string {
	p := m.cfg.TopicPrefix
	switch event.Topic {
	case readings.TopicReadingCreated:
		r := extractReading(event.Payload)
		if r == nil {
			return nil
		}
		states := map[string]string{
			StateTopic(p, "humidity"):  strconv.FormatFloat(r.Humidity, 'f', 1, 64),
			StateTopic(p, "ph"):        strconv.FormatFloat(r.PH, 'f', 1, 64),
			StateTopic(p, "pump"):      onOff(r.PumpOn),
			StateTopic(p, "emergency"): onOff(r.IsEmergency),
			m.PumpCommandTopic():       onOff(r.PumpOn),
		}
		if r.Temperature != nil {
			states[StateTopic(p, "temperature")] = strconv.FormatFloat(*r.Temperature, 'f', 1, 64)
		}
		return states

	case insight.TopicAnomalyDetected:
		d := extractDrift(event.Payload)
		if d == nil {
			return nil
		}
		return map[string]string{
			StateTopic(p, "drift_alert"): fmt.Sprintf("%s %s (%s)", d.Metric, d.Observation.Direction, d.Severity),
		}

	case insight.TopicForecastAlert:
		a := extractForecastAlert(event.Payload)
		if a == nil {
			return nil
		}
		return map[string]string{StateTopic(p, "forecast_alert"): a.Alert.Message}
	}
	return nil
}

// publishHADiscovery publishes a batch of HA discovery config payloads.
func (m *Module) publishHADiscovery(client pahomqtt.Client, configs []DiscoveryConfig) {
	for i := range configs {
		// Discovery configs are always retained so HA picks them up on restart.
		token := client.Publish(configs[i].Topic, m.cfg.QoS, true, configs[i].Payload)
		if !token.WaitTimeout(m.cfg.Timeout) {
			m.logger.Warn("ha discovery publish timed out",
				zap.String("topic", configs[i].Topic),
			)
			continue
		}
		if token.Error() != nil {
			m.logger.Warn("ha discovery publish failed",
				zap.String("topic", configs[i].Topic),
				zap.Error(token.Error()),
			)
			continue
		}
		m.logger.Debug("ha discovery published", zap.String("topic", configs[i].Topic))
	}
}

// publishState publishes a retained state value to an MQTT topic.
func (m *Module) publishState(topic, value string) {
	token := m.client.Publish(topic, m.cfg.QoS, true, []byte(value))
	if !token.WaitTimeout(m.cfg.Timeout) {
		m.logger.Warn("state publish timed out", zap.String("topic", topic))
		return
	}
	if token.Error() != nil {
		m.logger.Warn("state publish failed",
			zap.String("topic", topic),
			zap.Error(token.Error()),
		)
		return
	}
	m.logger.Debug("state published", zap.String("topic", topic), zap.String("value", value))
}

// extractReading attempts to extract the reading from a created event payload.
func extractReading(payload any) *models.SensorReading {
	switch v := payload.(type) {
	case readings.CreatedEvent:
		return &v.Reading
	case *readings.CreatedEvent:
		return &v.Reading
	default:
		// Try JSON round-trip for payloads that were serialized.
		var ev readings.CreatedEvent
		if !roundTrip(payload, &ev) || ev.Reading.Timestamp.IsZero() {
			return nil
		}
		return &ev.Reading
	}
}

func extractDrift(payload any) *insight.DriftEvent {
	switch v := payload.(type) {
	case insight.DriftEvent:
		return &v
	case *insight.DriftEvent:
		return v
	default:
		var ev insight.DriftEvent
		if !roundTrip(payload, &ev) || ev.Metric == "" {
			return nil
		}
		return &ev
	}
}

func extractForecastAlert(payload any) *insight.ForecastAlertEvent {
	switch v := payload.(type) {
	case insight.ForecastAlertEvent:
		return &v
	case *insight.ForecastAlertEvent:
		return v
	default:
		var ev insight.ForecastAlertEvent
		if !roundTrip(payload, &ev) || ev.Alert.Message == "" {
			return nil
		}
		return &ev
	}
}

func roundTrip(payload, target any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, target) == nil
}
