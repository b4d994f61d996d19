package notify

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventOrderStatusChanged, "admin-1", "order-1", StatusChangedPayload{
		Entity:     "order",
		OrderNum:   "TNT-ABC",
		FromStatus: "pending",
		ToStatus:   "confirmed",
	})

	if e.EventID == "" {
		t.Error("event id should be set")
	}
	if e.EventType != EventOrderStatusChanged {
		t.Errorf("event type = %q", e.EventType)
	}
	if e.Actor != "admin-1" || e.EntityID != "order-1" {
		t.Errorf("actor = %q, entity = %q", e.Actor, e.EntityID)
	}
	if e.OccurredAt.IsZero() {
		t.Error("occurred_at should be set")
	}

	var p StatusChangedPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		t.Fatalf("payload unmarshal: %v", err)
	}
	if p.OrderNum != "TNT-ABC" || p.ToStatus != "confirmed" {
		t.Errorf("payload = %+v", p)
	}
}

func TestNewEvent_uniqueIDs(t *testing.T) {
	a := NewEvent(EventOrderContacted, "x", "o1", nil)
	b := NewEvent(EventOrderContacted, "x", "o1", nil)
	if a.EventID == b.EventID {
		t.Error("event ids should be unique")
	}
}

func TestNewEvent_unmarshalablePayload(t *testing.T) {
	// A payload that cannot marshal degrades to null instead of dropping
	// the event.
	e := NewEvent(EventArtisanVerified, "x", "a1", func() {})
	if string(e.Payload) != "null" {
		t.Errorf("payload = %s, want null", e.Payload)
	}
}

func TestLogNotifier_Publish(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	event := NewEvent(EventArtisanStatusChanged, "admin-1", "artisan-1", VerifiedPayload{Kind: "id_proof"})
	if err := n.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	entries := logs.FilterMessage("notification").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != EventArtisanStatusChanged {
		t.Errorf("event_type field = %v", fields["event_type"])
	}
	if fields["entity_id"] != "artisan-1" {
		t.Errorf("entity_id field = %v", fields["entity_id"])
	}
}
