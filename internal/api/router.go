package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seojin/crm-dispatch/internal/auth"
	"github.com/seojin/crm-dispatch/internal/dispatch"
	"github.com/seojin/crm-dispatch/internal/progress"
	"github.com/seojin/crm-dispatch/internal/storage"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	DB            *storage.DB
	Queries       storage.Querier
	Resolver      *auth.Resolver
	Orchestrator  *dispatch.Orchestrator
	Broker        progress.Broker
	SessionCookie string
	Keepalive     time.Duration
	Log           zerolog.Logger
}

// NewRouter builds the chi router with the full middleware chain and all
// routes. Tracking endpoints are unauthenticated; they are hit by mail
// clients, not logged-in users.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(deps.Log))
	r.Use(RecoverMiddleware(deps.Log))

	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(deps.DB))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/t/o/{attemptID}", OpenTrackingHandler(deps.Queries))
	r.Get("/t/c/{attemptID}", ClickTrackingHandler(deps.Queries))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.SessionAuth(deps.Resolver, deps.SessionCookie))

		r.Post("/dispatch", DispatchHandler(deps.Orchestrator))
		r.Get("/dispatch/progress", ProgressHandler(deps.Broker, deps.Keepalive))
		r.Get("/interactions", ListInteractionsHandler(deps.Queries))
		r.Get("/interactions/{interactionID}", GetInteractionHandler(deps.Queries))
	})

	return r
}
