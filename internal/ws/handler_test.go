package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/farmtech/irrigation/internal/event"
	"github.com/farmtech/irrigation/internal/insight"
	"github.com/farmtech/irrigation/internal/readings"
	"github.com/farmtech/irrigation/internal/testutil"
	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
)

type testServer struct {
	bus     *event.Bus
	handler *Handler
	url     string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	bus := event.NewBus(zap.NewNop())
	h := NewHandler(bus, nil, zap.NewNop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		h.Close()
	})
	return &testServer{
		bus:     bus,
		handler: h,
		url:     "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/readings",
	}
}

func (s *testServer) dial(t *testing.T, ctx context.Context, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, s.url+query, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func (s *testServer) waitClients(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.handler.Hub().ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", s.handler.Hub().ClientCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandler_StreamsReadingCreated(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := s.dial(t, ctx, "")
	s.waitClients(t, 1)

	r := testutil.NewReading(testutil.WithHumidity(25))
	r.ID = 7
	if err := s.bus.Publish(ctx, plugin.Event{
		Topic:     readings.TopicReadingCreated,
		Source:    "readings",
		Timestamp: time.Now(),
		Payload:   readings.CreatedEvent{Reading: r, Source: "manual"},
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var msg struct {
		Type MessageType `json:"type"`
		Data struct {
			Reading struct {
				ID       int64   `json:"id"`
				Humidity float64 `json:"humidity"`
			} `json:"reading"`
			Source string `json:"source"`
		} `json:"data"`
	}
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if msg.Type != MessageReadingCreated {
		t.Errorf("type = %q, want %q", msg.Type, MessageReadingCreated)
	}
	if msg.Data.Reading.ID != 7 || msg.Data.Reading.Humidity != 25 {
		t.Errorf("reading = %+v, want id 7 humidity 25", msg.Data.Reading)
	}
	if msg.Data.Source != "manual" {
		t.Errorf("source = %q, want manual", msg.Data.Source)
	}
}

func TestHandler_TypeFilter(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := s.dial(t, ctx, "?types=alert.drift")
	s.waitClients(t, 1)

	// The reading is filtered out, so the first frame is the drift alert.
	_ = s.bus.Publish(ctx, plugin.Event{
		Topic:   readings.TopicReadingCreated,
		Payload: readings.CreatedEvent{Reading: testutil.NewReading()},
	})
	_ = s.bus.Publish(ctx, plugin.Event{
		Topic:   insight.TopicAnomalyDetected,
		Payload: insight.DriftEvent{ReadingID: 3, Metric: "humidity"},
	})

	var msg Message
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if msg.Type != MessageDriftAlert {
		t.Errorf("type = %q, want %q", msg.Type, MessageDriftAlert)
	}
}

func TestHandler_RejectsUnknownType(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, s.url+"?types=bogus", nil)
	if err == nil {
		t.Fatal("Dial should fail for unknown type filter")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %v, want 400", resp)
	}
}

func TestHandler_CloseUnsubscribes(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	h := NewHandler(bus, nil, zap.NewNop())
	if got := bus.SubscriberCount(readings.TopicReadingCreated); got != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", got)
	}
	h.Close()
	if got := bus.SubscriberCount(readings.TopicReadingCreated); got != 0 {
		t.Errorf("SubscriberCount after Close = %d, want 0", got)
	}
}

func TestHandler_DisconnectUnregisters(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	s.waitClients(t, 1)
	conn.Close(websocket.StatusNormalClosure, "bye")
	s.waitClients(t, 0)
}
