// Package http assembles the chi router that serves the ledger API.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/adapter/http/handler"
	"github.com/iho/cashledger/internal/adapter/http/middleware"
	"github.com/iho/cashledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler  *handler.AccountHandler
	EntryHandler    *handler.EntryHandler
	TransferHandler *handler.TransferHandler
	SaleHandler     *handler.SaleHandler
	SequenceHandler *handler.SequenceHandler
	LedgerHandler   *handler.LedgerHandler
	AuditHandler    *handler.AuditHandler
	HealthHandler   *handler.HealthHandler

	// IdempotencyStore enables Idempotency-Key replay when set.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// RateLimiter is applied to the API routes when set.
	RateLimiter *middleware.RateLimiter
	// TokenVerifier switches actor resolution from X-Actor-ID to bearer
	// tokens when set.
	TokenVerifier middleware.TokenVerifier
	Logger        zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.RequireActor(cfg.TokenVerifier))
		} else {
			r.Use(middleware.HeaderActor)
		}
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Open)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/balance", cfg.AccountHandler.Balance)
			r.Get("/{id}/dashboard", cfg.AccountHandler.Dashboard)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByAccount)
			r.Get("/{id}/transfers", cfg.TransferHandler.ListByAccount)
			r.Get("/{id}/totals", cfg.LedgerHandler.Totals)
			r.Get("/{id}/totals/periods", cfg.LedgerHandler.Periods)
			r.Get("/{id}/totals/categories", cfg.LedgerHandler.Categories)
			r.Get("/{id}/reconciliation", cfg.LedgerHandler.ReconcileAccount)
		})

		r.Post("/entries", cfg.EntryHandler.Record)
		r.Post("/expenses", cfg.EntryHandler.CreateExpense)
		r.Post("/labor-payments", cfg.EntryHandler.CreateLaborPayment)
		r.Post("/purchases", cfg.EntryHandler.CreatePurchase)

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", cfg.SaleHandler.Create)
			r.Get("/{id}", cfg.SaleHandler.Get)
			r.Post("/{id}/settlements", cfg.SaleHandler.Settle)
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Post("/", cfg.TransferHandler.Propose)
			r.Get("/{id}", cfg.TransferHandler.Get)
			r.Post("/{id}/approve", cfg.TransferHandler.Approve)
			r.Post("/{id}/reject", cfg.TransferHandler.Reject)
		})

		r.Post("/sequences/{kind}/next", cfg.SequenceHandler.Next)
		r.Get("/ledger/reconciliation", cfg.LedgerHandler.ReconcileAll)
		r.Get("/audit-logs", cfg.AuditHandler.List)
	})

	return r
}
