package transport

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/ESAditya1729/tantika/internal/config"
	"github.com/ESAditya1729/tantika/internal/idempotency"
	"github.com/ESAditya1729/tantika/internal/notify"
	"github.com/ESAditya1729/tantika/internal/store"
	"github.com/ESAditya1729/tantika/internal/workflow"
	"github.com/ESAditya1729/tantika/model"
)

// newSecureRouter builds the router with token verification enabled, so
// admin routes demand a bearer token. The JWKS endpoint is never reached
// because requests in these tests carry no Authorization header.
func newSecureRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Defaults()
	cfg.Identity.Issuer = "https://auth.tantika.in"
	cfg.Identity.Audience = "tantika-api"
	cfg.Identity.JWKSURL = "https://auth.tantika.in/.well-known/jwks.json"

	logger := zap.NewNop()
	engine := workflow.NewEngine(
		store.NewMemoryOrderStore(),
		store.NewMemoryArtisanStore(),
		notify.NewLogNotifier(logger),
		nil,
		logger,
	)

	return NewRouter(Dependencies{
		Config:      cfg,
		Engine:      engine,
		Logger:      logger,
		Idempotency: idempotency.NewMemoryStore(),
	})
}

func TestRouter_healthEndpoint(t *testing.T) {
	h := newSecureRouter(t)

	w := doJSON(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decode[struct {
		Status string `json:"status"`
	}](t, w)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestRouter_readyEndpoint(t *testing.T) {
	h := newSecureRouter(t)

	w := doJSON(t, h, http.MethodGet, "/ready", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRouter_metricsEndpoint(t *testing.T) {
	h := newSecureRouter(t)

	w := doJSON(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRouter_adminRoutesRequireToken(t *testing.T) {
	h := newSecureRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/orders/"},
		{http.MethodGet, "/api/orders/stats"},
		{http.MethodGet, "/api/orders/some-id"},
		{http.MethodPut, "/api/orders/some-id/status"},
		{http.MethodPost, "/api/orders/some-id/contact"},
		{http.MethodPost, "/api/orders/bulk/update"},
		{http.MethodGet, "/api/artisans/all"},
		{http.MethodGet, "/api/artisans/stats"},
		{http.MethodPut, "/api/artisans/some-id/approve"},
		{http.MethodPost, "/api/artisans/bulk-approve"},
	}
	for _, p := range paths {
		w := doJSON(t, h, p.method, p.path, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", p.method, p.path, w.Code)
		}
		if code := errorCode(t, w); code != model.ErrUnauthorized {
			t.Errorf("%s %s: code = %q, want %q", p.method, p.path, code, model.ErrUnauthorized)
		}
	}
}

func TestRouter_publicRoutesSkipAuth(t *testing.T) {
	h := newSecureRouter(t)

	// Storefront order intake works with no token.
	order := placeOrder(t, h)

	// So does the payment gateway webhook.
	w := doJSON(t, h, http.MethodPost, "/api/orders/"+order.ID+"/payment",
		map[string]any{"status": "paid"})
	if w.Code != http.StatusOK {
		t.Errorf("payment webhook: status = %d body %s", w.Code, w.Body.String())
	}

	// And the artisan application.
	applyArtisan(t, h, "anita@example.com")
}

func TestRouter_correlationID(t *testing.T) {
	h := newSecureRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("X-Correlation-Id") == "" {
		t.Error("generated correlation id missing from response")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-Id", "corr-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("X-Correlation-Id"); got != "corr-123" {
		t.Errorf("correlation id = %q, want corr-123", got)
	}
}

func TestRouter_securityHeaders(t *testing.T) {
	h := newSecureRouter(t)

	w := doJSON(t, h, http.MethodGet, "/health", nil)
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestRouter_corsPreflight(t *testing.T) {
	cfg := config.Defaults()
	cfg.Identity.Insecure = true
	cfg.Server.CORS.AllowedOrigins = []string{"https://admin.tantika.in"}

	logger := zap.NewNop()
	engine := workflow.NewEngine(
		store.NewMemoryOrderStore(),
		store.NewMemoryArtisanStore(),
		notify.NewLogNotifier(logger),
		nil,
		logger,
	)
	h := NewRouter(Dependencies{Config: cfg, Engine: engine, Logger: logger})

	req := httptest.NewRequest(http.MethodOptions, "/api/orders/", nil)
	req.Header.Set("Origin", "https://admin.tantika.in")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://admin.tantika.in" {
		t.Errorf("allow-origin = %q", got)
	}

	// Unlisted origins get no CORS headers.
	req = httptest.NewRequest(http.MethodOptions, "/api/orders/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("allow-origin set for unlisted origin")
	}
}

func TestRouter_idempotencyReplay(t *testing.T) {
	h, _ := newTestRouter(t)
	order := placeOrder(t, h)

	body := []byte(`{"status":"contacted"}`)
	send := func(payload []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/orders/"+order.ID+"/status",
			bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(IdempotencyHeader, "key-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	first := send(body)
	if first.Code != http.StatusOK {
		t.Fatalf("first request: status = %d body %s", first.Code, first.Body.String())
	}
	if first.Header().Get("X-Idempotency-Replay") != "" {
		t.Error("first request marked as replay")
	}

	// Same key, same body: the cached response comes back without the
	// engine re-running the (now illegal) transition.
	second := send(body)
	if second.Code != http.StatusOK {
		t.Fatalf("replay: status = %d body %s", second.Code, second.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replay") != "true" {
		t.Error("replay header missing")
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("replayed body differs from original")
	}

	// Same key, different body: conflict.
	third := send([]byte(`{"status":"confirmed"}`))
	if third.Code != http.StatusConflict {
		t.Errorf("mismatched body: status = %d, want 409", third.Code)
	}
	if code := errorCode(t, third); code != model.ErrConflict {
		t.Errorf("code = %q, want %q", code, model.ErrConflict)
	}
}

func TestRouter_idempotencySkipsGET(t *testing.T) {
	h, _ := newTestRouter(t)
	placeOrder(t, h)
	placeOrder(t, h)

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/stats", nil)
		req.Header.Set(IdempotencyHeader, "key-2")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	first := get()
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d", first.Code)
	}
	second := get()
	if second.Header().Get("X-Idempotency-Replay") != "" {
		t.Error("GET request was cached")
	}
}

func TestRouter_unknownRoute(t *testing.T) {
	h := newSecureRouter(t)

	w := doJSON(t, h, http.MethodGet, "/api/unknown", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRouter_panicRecovery(t *testing.T) {
	logger := zap.NewNop()

	rec := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	w := httptest.NewRecorder()
	rec.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if code := errorCode(t, w); code != model.ErrInternalError {
		t.Errorf("code = %q, want %q", code, model.ErrInternalError)
	}
}
