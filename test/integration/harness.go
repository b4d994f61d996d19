// Package integration provides a reusable harness for end-to-end testing of
// the tantika lifecycle service. It starts the full HTTP server with
// in-memory stores and a test JWT issuer serving its own JWKS endpoint.
package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ESAditya1729/tantika/internal/config"
	"github.com/ESAditya1729/tantika/internal/idempotency"
	"github.com/ESAditya1729/tantika/internal/notify"
	"github.com/ESAditya1729/tantika/internal/observability"
	"github.com/ESAditya1729/tantika/internal/store"
	"github.com/ESAditya1729/tantika/internal/transport"
	"github.com/ESAditya1729/tantika/internal/workflow"
)

// TestHarness encapsulates a fully wired service instance for integration
// testing.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server
	issuer *tokenIssuer

	// Internal components exposed for advanced test scenarios.
	Engine      *workflow.Engine
	Orders      *store.MemoryOrderStore
	Artisans    *store.MemoryArtisanStore
	Idempotency *idempotency.MemoryStore

	cfg *config.Config
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	handlerTimeout time.Duration
	idempotencyTTL time.Duration
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.handlerTimeout = d
	}
}

// WithIdempotencyTTL overrides how long cached idempotent responses live.
func WithIdempotencyTTL(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.idempotencyTTL = d
	}
}

// NewHarness starts a full service instance backed by in-memory stores and
// returns a harness for driving it over HTTP. The server and its JWKS issuer
// are torn down via t.Cleanup.
func NewHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		handlerTimeout: 10 * time.Second,
		idempotencyTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(hc)
	}

	h := &TestHarness{
		t:           t,
		Orders:      store.NewMemoryOrderStore(),
		Artisans:    store.NewMemoryArtisanStore(),
		Idempotency: idempotency.NewMemoryStore(),
	}

	h.issuer = newTokenIssuer(t)

	logger := zap.NewNop()
	h.Engine = workflow.NewEngine(
		h.Orders, h.Artisans,
		notify.NewLogNotifier(logger),
		observability.InitMetrics(prometheus.NewRegistry()),
		logger,
	)

	cfg := config.Defaults()
	cfg.Server.HandlerTimeout = hc.handlerTimeout
	cfg.Server.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Identity.Issuer = h.issuer.Issuer()
	cfg.Identity.Audience = h.issuer.Audience()
	cfg.Identity.JWKSURL = h.issuer.JWKSURL()
	cfg.Identity.Algorithms = []string{"RS256"}
	cfg.Idempotency.DefaultTTL = hc.idempotencyTTL
	h.cfg = cfg

	router := transport.NewRouter(transport.Dependencies{
		Config:      cfg,
		Engine:      h.Engine,
		Logger:      logger,
		Idempotency: h.Idempotency,
	})

	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// GenerateToken creates a valid JWT token with the given claims.
func (h *TestHarness) GenerateToken(claims TestClaims) string {
	return h.issuer.GenerateToken(claims)
}

// GenerateExpiredToken creates a JWT that has already expired.
func (h *TestHarness) GenerateExpiredToken(claims TestClaims) string {
	return h.issuer.GenerateExpiredToken(claims)
}

// --- HTTP client helpers ---

// GET performs an authenticated GET request.
func (h *TestHarness) GET(path, token string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodGet, path, nil, token, nil)
}

// POST performs an authenticated POST request with a JSON body.
func (h *TestHarness) POST(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodPost, path, body, token, nil)
}

// POSTWithHeaders performs an authenticated POST request with extra headers.
func (h *TestHarness) POSTWithHeaders(path string, body any, token string, headers map[string]string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodPost, path, body, token, headers)
}

// PUT performs an authenticated PUT request with a JSON body.
func (h *TestHarness) PUT(path string, body any, token string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodPut, path, body, token, nil)
}

// PUTWithHeaders performs an authenticated PUT request with extra headers.
func (h *TestHarness) PUTWithHeaders(path string, body any, token string, headers map[string]string) *http.Response {
	h.t.Helper()
	return h.doRequest(http.MethodPut, path, body, token, headers)
}

func (h *TestHarness) doRequest(method, path string, body any, token string, headers map[string]string) *http.Response {
	h.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, h.server.URL+path, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// ReadBody reads and returns the response body as bytes.
func (h *TestHarness) ReadBody(resp *http.Response) []byte {
	h.t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	return data
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Errorf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks the expected status and parses the body into target.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// --- Default test claims ---

// AdminClaims returns TestClaims for a marketplace admin user.
func AdminClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-admin",
		Email:     "admin@tantika.in",
		Roles:     []string{"admin"},
	}
}

// SupportClaims returns TestClaims for a support user without the admin role.
func SupportClaims() TestClaims {
	return TestClaims{
		SubjectID: "user-support",
		Email:     "support@tantika.in",
		Roles:     []string{"support"},
	}
}

// OrderFixture returns a request body for a typical storefront order.
func OrderFixture() map[string]any {
	return map[string]any{
		"customer": map[string]any{
			"name":    "Rina Das",
			"email":   "rina@example.com",
			"phone":   "+919800000001",
			"address": "12 Lake Road, Kolkata",
		},
		"items": []map[string]any{
			{
				"product_id":   "prod-1",
				"name":         "Jamdani Saree",
				"unit_price":   450000,
				"quantity":     1,
				"artisan_id":   "artisan-1",
				"artisan_name": "Mrinmoy Pal",
			},
		},
		"subtotal":       450000,
		"tax":            22500,
		"shipping":       5000,
		"discount":       0,
		"total":          477500,
		"payment_method": "upi",
	}
}

// ArtisanFixture returns a request body for a typical artisan application.
func ArtisanFixture(email string) map[string]any {
	return map[string]any{
		"business_name":    "Kantha Works",
		"full_name":        "Anita Roy",
		"email":            email,
		"phone":            "+919800000002",
		"years_experience": 8,
		"specializations":  []string{"kantha", "embroidery"},
		"id_proof":         map[string]any{"type": "aadhaar", "number": "XXXX-1234"},
		"bank_details": map[string]any{
			"account_name":   "Anita Roy",
			"account_number": "1234567890",
			"ifsc":           "SBIN0000001",
			"bank_name":      "State Bank of India",
		},
	}
}
