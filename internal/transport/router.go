package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ESAditya1729/tantika/internal/config"
	"github.com/ESAditya1729/tantika/internal/idempotency"
	"github.com/ESAditya1729/tantika/internal/observability"
	"github.com/ESAditya1729/tantika/internal/workflow"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config      *config.Config
	Engine      *workflow.Engine
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Idempotency idempotency.Store
	Readiness   observability.ReadinessChecks
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, metrics, storefront order intake,
// artisan application intake, and the payment gateway webhook bypass
// authentication; everything else requires a bearer token with the admin
// role.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &handlers{engine: deps.Engine, logger: logger}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(logger))
	r.Use(CORS(deps.Config.Server.CORS))
	if deps.Config.Observability.Tracing.Enabled {
		r.Use(observability.TracingMiddleware)
	}
	r.Use(RequestID)
	r.Use(SecurityHeaders)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.MetricsMiddleware)
	}

	// Operational endpoints.
	r.Get("/health", observability.HandleHealth())
	r.Get("/ready", observability.HandleReady(deps.Readiness))
	if deps.Config.Observability.Metrics.Enabled {
		r.Method(http.MethodGet, deps.Config.Observability.Metrics.Path, observability.Handler())
	}

	jwks := NewJWKSClient(deps.Config.Identity.JWKSURL, deps.Config.Identity.JWKSCacheTTL, logger)
	authenticate := JWTAuthenticator(deps.Config.Identity, jwks)
	requireAdmin := RequireRole(deps.Config.Identity.AdminRole)

	public := func(r chi.Router) chi.Router {
		return r.With(
			HandlerTimeout(deps.Config.Server.HandlerTimeout),
			RequestLogging(logger),
		)
	}
	admin := func(r chi.Router) chi.Router {
		mws := []func(http.Handler) http.Handler{
			authenticate,
			BuildRequestContext,
			requireAdmin,
			HandlerTimeout(deps.Config.Server.HandlerTimeout),
			RequestLogging(logger),
		}
		if deps.Config.Idempotency.Enabled && deps.Idempotency != nil {
			mws = append(mws, Idempotency(
				deps.Idempotency, "admin",
				deps.Config.Idempotency.DefaultTTL, deps.Metrics))
		}
		return r.With(mws...)
	}

	r.Route("/api/orders", func(r chi.Router) {
		// Storefront intake and the payment gateway webhook carry no user
		// token.
		public(r).Post("/", h.createOrder)
		public(r).Post("/{id}/payment", h.recordPayment)

		ar := admin(r)
		ar.Get("/", h.listOrders)
		ar.Get("/stats", h.orderStats)
		ar.Get("/{id}", h.getOrder)
		ar.Put("/{id}/status", h.updateOrderStatus)
		ar.Post("/{id}/contact", h.recordContact)
		ar.Post("/bulk/update", h.bulkUpdateOrders)
	})

	r.Route("/api/artisans", func(r chi.Router) {
		public(r).Post("/", h.createArtisan)

		ar := admin(r)
		ar.Get("/stats", h.artisanStats)
		ar.Get("/id/{id}", h.getArtisan)
		ar.Post("/bulk-approve", h.bulkArtisan(workflow.ActionApprove))
		ar.Post("/bulk-reject", h.bulkArtisan(workflow.ActionReject))
		ar.Post("/bulk-suspend", h.bulkArtisan(workflow.ActionSuspend))
		ar.Post("/bulk-reactivate", h.bulkArtisan(workflow.ActionReactivate))
		// chi allows one wildcard name per position: this segment is a
		// status filter on GET and an artisan id on the action routes.
		ar.Get("/{key}", h.listArtisans)
		ar.Put("/{key}/approve", h.approveArtisan)
		ar.Put("/{key}/reject", h.rejectArtisan)
		ar.Put("/{key}/suspend", h.suspendArtisan)
		ar.Put("/{key}/reactivate", h.reactivateArtisan)
		ar.Put("/{key}/verify-id", h.verifyIDProof)
		ar.Put("/{key}/verify-bank", h.verifyBank)
	})

	return r
}

// handlers carries the engine and logger for all route handlers.
type handlers struct {
	engine *workflow.Engine
	logger *zap.Logger
}
