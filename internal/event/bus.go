// Package event provides the in-process plugin.EventBus used to fan out
// reading, decision, and forecast events between modules.
package event

import (
	"context"
	"strings"
	"sync"

	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
)

var _ plugin.EventBus = (*Bus)(nil)

// Wildcard matches every topic. A topic ending in ".*" matches every topic
// with that prefix, so "readings.*" receives "readings.reading.created".
const Wildcard = "*"

// Bus is an in-memory event bus. Publish runs handlers in the caller's
// goroutine; PublishAsync runs each handler in its own goroutine.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]entry
	nextID uint64
	logger *zap.Logger
}

type entry struct {
	id      uint64
	handler plugin.EventHandler
}

// NewBus creates an empty bus. A nil logger is replaced with a no-op one.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[string][]entry),
		logger: logger,
	}
}

// Publish delivers event synchronously to every matching handler.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	for _, h := range b.matching(event.Topic) {
		b.safeCall(ctx, h, event)
	}
	return nil
}

// PublishAsync delivers event to every matching handler without waiting.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	for _, h := range b.matching(event.Topic) {
		go b.safeCall(ctx, h, event)
	}
}

// Subscribe registers handler for topic (exact, "prefix.*" or "*").
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[topic] = append(b.subs[topic], entry{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) (unsubscribe func()) {
	return b.Subscribe(Wildcard, handler)
}

// SubscriberCount returns the number of handlers registered under topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Bus) remove(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.subs[topic]
	for i, e := range entries {
		if e.id == id {
			b.subs[topic] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// matching snapshots the handlers for topic so delivery runs unlocked.
func (b *Bus) matching(topic string) []plugin.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []plugin.EventHandler
	for pattern, entries := range b.subs {
		if !matches(pattern, topic) {
			continue
		}
		for _, e := range entries {
			out = append(out, e.handler)
		}
	}
	return out
}

func matches(pattern, topic string) bool {
	switch {
	case pattern == Wildcard:
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(topic, strings.TrimSuffix(pattern, "*"))
	default:
		return pattern == topic
	}
}

func (b *Bus) safeCall(ctx context.Context, handler plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.String("source", event.Source),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, event)
}
