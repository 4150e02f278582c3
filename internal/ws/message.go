package ws

import (
	"fmt"
	"strings"
	"time"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageReadingCreated MessageType = "reading.created"
	MessageDriftAlert     MessageType = "alert.drift"
	MessageForecastAlert  MessageType = "alert.forecast"
)

var knownTypes = map[MessageType]bool{
	MessageReadingCreated: true,
	MessageDriftAlert:     true,
	MessageForecastAlert:  true,
}

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// ParseTypes reads a comma-separated type filter such as
// "reading.created,alert.drift". Blank input means every type.
func ParseTypes(s string) ([]MessageType, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []MessageType
	for _, part := range strings.Split(s, ",") {
		t := MessageType(strings.TrimSpace(part))
		if !knownTypes[t] {
			return nil, fmt.Errorf("unknown message type %q", t)
		}
		out = append(out, t)
	}
	return out, nil
}
