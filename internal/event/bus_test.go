package event

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/farmtech/irrigation/pkg/plugin"
	"go.uber.org/zap"
)

func TestBus_PublishExactTopic(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got []string
	bus.Subscribe("readings.reading.created", func(_ context.Context, e plugin.Event) {
		got = append(got, e.Topic)
	})
	bus.Subscribe("irrigation.decision", func(_ context.Context, _ plugin.Event) {
		t.Error("handler for another topic must not fire")
	})

	_ = bus.Publish(context.Background(), plugin.Event{Topic: "readings.reading.created", Source: "readings"})
	if len(got) != 1 {
		t.Fatalf("handler calls = %d, want 1", len(got))
	}
}

func TestBus_PrefixAndWildcard(t *testing.T) {
	bus := NewBus(nil)

	var prefix, all int
	bus.Subscribe("readings.*", func(context.Context, plugin.Event) { prefix++ })
	bus.SubscribeAll(func(context.Context, plugin.Event) { all++ })

	ctx := context.Background()
	_ = bus.Publish(ctx, plugin.Event{Topic: "readings.reading.created"})
	_ = bus.Publish(ctx, plugin.Event{Topic: "readings.reading.deleted"})
	_ = bus.Publish(ctx, plugin.Event{Topic: "insight.forecast.alert"})

	if prefix != 2 {
		t.Errorf("prefix handler calls = %d, want 2", prefix)
	}
	if all != 3 {
		t.Errorf("wildcard handler calls = %d, want 3", all)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	calls := 0
	unsub := bus.Subscribe("t", func(context.Context, plugin.Event) { calls++ })
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "t"})
	unsub()
	unsub() // idempotent
	_ = bus.Publish(context.Background(), plugin.Event{Topic: "t"})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := bus.SubscriberCount("t"); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}
}

func TestBus_PanicIsRecovered(t *testing.T) {
	bus := NewBus(zap.NewNop())

	after := false
	bus.Subscribe("t", func(context.Context, plugin.Event) { panic("boom") })
	bus.Subscribe("t", func(context.Context, plugin.Event) { after = true })

	if err := bus.Publish(context.Background(), plugin.Event{Topic: "t"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !after {
		t.Error("second handler should still run after a panic")
	}
}

func TestBus_PublishAsync(t *testing.T) {
	bus := NewBus(nil)

	var wg sync.WaitGroup
	var n atomic.Int32
	wg.Add(2)
	for i := 0; i < 2; i++ {
		bus.Subscribe("t", func(context.Context, plugin.Event) {
			n.Add(1)
			wg.Done()
		})
	}
	bus.PublishAsync(context.Background(), plugin.Event{Topic: "t"})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handlers did not run")
	}
	if n.Load() != 2 {
		t.Errorf("handler count = %d, want 2", n.Load())
	}
}
