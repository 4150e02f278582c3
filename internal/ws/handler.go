// Package ws streams live readings and alerts to browsers over WebSocket.
package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/farmtech/irrigation/internal/insight"
	"github.com/farmtech/irrigation/internal/readings"
	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
)

// Handler provides the WebSocket endpoint for live readings.
type Handler struct {
	hub            *Hub
	bus            plugin.EventBus
	originPatterns []string
	logger         *zap.Logger
	unsubscribe    []func()
}

// Compile-time check that Handler implements the server interface.
var _ interface {
	RegisterRoutes(mux *http.ServeMux)
} = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes to reading and
// alert events. originPatterns lists extra origins allowed to connect;
// same-origin requests are always accepted.
func NewHandler(bus plugin.EventBus, originPatterns []string, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:            NewHub(logger),
		bus:            bus,
		originPatterns: originPatterns,
		logger:         logger,
	}
	h.subscribeToEvents()
	return h
}

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws/readings", h.handleReadingStream)
}

// Close drops the event subscriptions.
func (h *Handler) Close() {
	for _, unsub := range h.unsubscribe {
		unsub()
	}
	h.unsubscribe = nil
}

// Hub exposes the client hub.
func (h *Handler) Hub() *Hub {
	return h.hub
}

// handleReadingStream upgrades the connection and streams events.
//
//	@Summary		Live reading stream
//	@Description	WebSocket stream of reading.created, alert.drift and alert.forecast messages. Filter with types=reading.created,alert.drift.
//	@Tags			stream
//	@Param			types	query	string	false	"Comma-separated message types"
//	@Success		101
//	@Failure		400
//	@Router			/ws/readings [get]
func (h *Handler) handleReadingStream(w http.ResponseWriter, r *http.Request) {
	types, err := ParseTypes(r.URL.Query().Get("types"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	client := newClient(conn, r.RemoteAddr, types, h.logger)
	h.hub.Register(client)

	// Run read and write pumps. When either exits, clean up.
	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribeToEvents forwards reading and alert events to connected clients.
func (h *Handler) subscribeToEvents() {
	if h.bus == nil {
		return
	}

	h.unsubscribe = append(h.unsubscribe,
		h.bus.Subscribe(readings.TopicReadingCreated, func(_ context.Context, event plugin.Event) {
			created, ok := event.Payload.(readings.CreatedEvent)
			if !ok {
				return
			}
			h.hub.Broadcast(Message{
				Type:      MessageReadingCreated,
				Timestamp: event.Timestamp,
				Data:      created,
			})
		}),
		h.bus.Subscribe(insight.TopicAnomalyDetected, func(_ context.Context, event plugin.Event) {
			drift, ok := event.Payload.(insight.DriftEvent)
			if !ok {
				return
			}
			h.hub.Broadcast(Message{
				Type:      MessageDriftAlert,
				Timestamp: event.Timestamp,
				Data:      drift,
			})
		}),
		h.bus.Subscribe(insight.TopicForecastAlert, func(_ context.Context, event plugin.Event) {
			alert, ok := event.Payload.(insight.ForecastAlertEvent)
			if !ok {
				return
			}
			h.hub.Broadcast(Message{
				Type:      MessageForecastAlert,
				Timestamp: event.Timestamp,
				Data:      alert.Alert,
			})
		}),
	)

	h.logger.Info("subscribed to reading and alert events for WebSocket broadcasting")
}
