package notify

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// The writer only dials on WriteMessages, so a notifier pointed at an
// unreachable broker can be constructed and closed without network access
// as long as nothing reaches the drain goroutine's write path.

func TestKafkaNotifier_publishAfterClose(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	failures := 0
	n := NewKafkaNotifier(KafkaOptions{
		Brokers: []string{"127.0.0.1:1"},
		Topic:   "tantika.events",
		OnError: func() { failures++ },
	}, zap.New(core))
	n.Close()

	event := NewEvent(EventOrderStatusChanged, "admin-1", "order-1", nil)
	if err := n.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish after Close: %v", err)
	}

	if failures != 1 {
		t.Errorf("delivery failures = %d, want 1", failures)
	}
	entries := logs.FilterMessage("notification delivery failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d warnings, want 1", len(entries))
	}
	if entries[0].ContextMap()["ref"] != event.EventID {
		t.Errorf("ref field = %v", entries[0].ContextMap()["ref"])
	}
}

func TestKafkaNotifier_closeIdempotent(t *testing.T) {
	n := NewKafkaNotifier(KafkaOptions{
		Brokers: []string{"127.0.0.1:1"},
		Topic:   "tantika.events",
	}, zap.NewNop())
	n.Close()
	n.Close()
}
