package integration

import (
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/ESAditya1729/tantika/model"
)

func TestResilience_idempotentStatusUpdate(t *testing.T) {
	h := NewHarness(t)
	admin := h.GenerateToken(AdminClaims())
	order := placeOrder(t, h)

	body := map[string]any{"status": "contacted"}
	headers := map[string]string{"X-Idempotency-Key": "retry-1"}

	resp := h.PUTWithHeaders("/api/orders/"+order.ID+"/status", body, admin, headers)
	var first model.Order
	h.AssertJSON(t, resp, http.StatusOK, &first)

	// A network retry with the same key replays the cached response
	// instead of re-running the now-illegal transition.
	resp = h.PUTWithHeaders("/api/orders/"+order.ID+"/status", body, admin, headers)
	if resp.Header.Get("X-Idempotency-Replay") != "true" {
		t.Error("replay header missing on duplicate request")
	}
	var second model.Order
	h.AssertJSON(t, resp, http.StatusOK, &second)
	if second.Version != first.Version {
		t.Errorf("replayed version = %d, want %d", second.Version, first.Version)
	}

	// The same key with a different payload is rejected.
	resp = h.PUTWithHeaders("/api/orders/"+order.ID+"/status",
		map[string]any{"status": "confirmed"}, admin, headers)
	h.AssertStatus(t, resp, http.StatusConflict)
}

func TestResilience_concurrentTransitions(t *testing.T) {
	h := NewHarness(t)
	admin := h.GenerateToken(AdminClaims())
	order := placeOrder(t, h)

	// Two admins race to advance the same pending order. Exactly one
	// transition may land; the loser sees either an illegal-transition or
	// a version-conflict error, never a silent double apply.
	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := h.PUT("/api/orders/"+order.ID+"/status",
				map[string]any{"status": "contacted"}, admin)
			codes[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, code := range codes {
		if code == http.StatusOK {
			ok++
		} else if code != http.StatusBadRequest && code != http.StatusConflict {
			t.Errorf("unexpected status %d", code)
		}
	}
	if ok != 1 {
		t.Errorf("successful transitions = %d, want exactly 1", ok)
	}

	var got model.Order
	resp := h.GET("/api/orders/"+order.ID, admin)
	h.AssertJSON(t, resp, http.StatusOK, &got)
	if got.Status != model.OrderContacted || len(got.History) != 2 {
		t.Errorf("final state = %s with %d history entries", got.Status, len(got.History))
	}
}

func TestResilience_malformedJSON(t *testing.T) {
	h := NewHarness(t)

	req, err := http.NewRequest(http.MethodPost, h.BaseURL()+"/api/orders/",
		strings.NewReader("{truncated"))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	h.AssertStatus(t, resp, http.StatusBadRequest)
}

func TestResilience_correlationIDPropagation(t *testing.T) {
	h := NewHarness(t)

	resp := h.GET("/health", "")
	if resp.Header.Get("X-Correlation-Id") == "" {
		t.Error("response missing generated correlation id")
	}
	resp.Body.Close()

	resp = h.POSTWithHeaders("/api/orders/", OrderFixture(), "",
		map[string]string{"X-Correlation-Id": "trace-me-1"})
	if got := resp.Header.Get("X-Correlation-Id"); got != "trace-me-1" {
		t.Errorf("correlation id = %q, want trace-me-1", got)
	}
	resp.Body.Close()
}

func TestResilience_unknownRoute(t *testing.T) {
	h := NewHarness(t)

	resp := h.GET("/api/unknown", "")
	h.AssertStatus(t, resp, http.StatusNotFound)
}
