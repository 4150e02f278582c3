package ws

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(remote string, types ...MessageType) *Client {
	return newClient(nil, remote, types, zap.NewNop())
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	a := newTestClient("10.0.0.1:5000")
	b := newTestClient("10.0.0.2:5000")

	hub.Register(a)
	hub.Register(b)
	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("ClientCount() = %d, want 2", got)
	}

	hub.Unregister(a)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() after unregister = %d, want 1", got)
	}
	if _, ok := <-a.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestHub_UnregisterTwice(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := newTestClient("10.0.0.1:5000")
	hub.Register(c)

	hub.Unregister(c)
	// Second call must not close the channel again.
	hub.Unregister(c)
	hub.Unregister(newTestClient("never-registered"))

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
}

func TestHub_BroadcastFiltersByType(t *testing.T) {
	hub := NewHub(zap.NewNop())
	all := newTestClient("all")
	alerts := newTestClient("alerts", MessageDriftAlert, MessageForecastAlert)
	hub.Register(all)
	hub.Register(alerts)

	hub.Broadcast(Message{Type: MessageReadingCreated, Timestamp: time.Now()})
	hub.Broadcast(Message{Type: MessageDriftAlert, Timestamp: time.Now()})

	if got := len(all.send); got != 2 {
		t.Errorf("unfiltered client got %d messages, want 2", got)
	}
	if got := len(alerts.send); got != 1 {
		t.Fatalf("filtered client got %d messages, want 1", got)
	}
	if msg := <-alerts.send; msg.Type != MessageDriftAlert {
		t.Errorf("filtered client got %q, want %q", msg.Type, MessageDriftAlert)
	}
}

func TestHub_BroadcastDropsWhenFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	slow := newTestClient("slow")
	hub.Register(slow)

	for i := 0; i < sendBuffer+10; i++ {
		hub.Broadcast(Message{Type: MessageReadingCreated})
	}
	if got := len(slow.send); got != sendBuffer {
		t.Errorf("buffered = %d, want %d", got, sendBuffer)
	}
}

func TestParseTypes(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"blank", "   ", 0, false},
		{"single", "reading.created", 1, false},
		{"spaces", "alert.drift, alert.forecast", 2, false},
		{"unknown", "reading.created,scan.started", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTypes(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTypes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("ParseTypes(%q) = %v, want %d types", tt.in, got, tt.want)
			}
		})
	}
}
