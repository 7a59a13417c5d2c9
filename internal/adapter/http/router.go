package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler        *handler.AuthHandler
	TransactionHandler *handler.TransactionHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler

	Tokens           middleware.TokenVerifier
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          Recorder
	MetricsHandler   http.Handler
	CORSOrigins      []string
	Logger           zerolog.Logger
}

// Recorder is the metrics sink used by the router's middleware.
type Recorder interface {
	middleware.HTTPRecorder
	middleware.AuthRecorder
	IdempotentReplay()
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(cors.Handler(corsOptions(cfg.CORSOrigins)))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	var authRecorder middleware.AuthRecorder
	if cfg.Metrics != nil {
		authRecorder = cfg.Metrics
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", cfg.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.Tokens, authRecorder))

			// Idempotency keys are scoped to the account, so this runs after auth
			if cfg.IdempotencyStore != nil {
				idem := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
				if cfg.Metrics != nil {
					idem.OnReplay(cfg.Metrics.IdempotentReplay)
				}
				r.Use(idem.Wrap)
			}

			r.Get("/auth/me", cfg.AuthHandler.Me)

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", cfg.TransactionHandler.List)
				r.Post("/", cfg.TransactionHandler.Create)
				r.Get("/{id}", cfg.TransactionHandler.Get)
				r.Get("/{id}/events", cfg.TransactionHandler.Events)
				r.Get("/{id}/ledger", cfg.TransactionHandler.Ledger)
			})

			r.Route("/ledger", func(r chi.Router) {
				r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
				r.Get("/reconciliation", cfg.LedgerHandler.Reconciliation)
			})
		})
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader, "X-Request-Id"},
		ExposedHeaders:   []string{"X-Idempotency-Replay", "X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}
