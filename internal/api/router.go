// Package api provides the HTTP surface: routing, middleware and handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/finbook/finbook-server/internal/ledger"
)

type Router struct {
	handler *Handler
	log     zerolog.Logger
}

func NewRouter(service *ledger.Service, log zerolog.Logger) *Router {
	return &Router{
		handler: NewHandler(service, log),
		log:     log,
	}
}

// Setup wires all routes. CORS is global so OPTIONS preflights are handled
// before anything else; the claimed-identity middleware runs on every
// request because any write may need the ownership hint.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS)
	r.Use(RequestMetrics)
	r.Use(ClaimedIdentity(rt.log))

	r.Get("/", rt.handler.HealthText)
	r.Get("/healthz", rt.handler.Health)

	r.Get("/accounts", rt.handler.ListAccounts)
	r.Post("/accounts", rt.handler.CreateAccount)

	r.Get("/transactions", rt.handler.ListTransactions)
	r.Post("/transactions", rt.handler.CreateTransaction)

	r.Get("/categories", rt.handler.ListCategories)
	r.Post("/categories", rt.handler.CreateCategory)

	r.Get("/recurring_transactions", rt.handler.ListRecurringTransactions)
	r.Post("/recurring_transactions", rt.handler.CreateRecurringTransaction)

	r.Get("/goals", rt.handler.ListGoals)
	r.Post("/goals", rt.handler.CreateGoal)

	r.Get("/budgets", rt.handler.ListBudgets)
	r.Post("/budgets", rt.handler.CreateBudget)

	r.Post("/users/sync", rt.handler.SyncUser)

	r.Get("/settings", rt.handler.GetSettings)
	r.Post("/settings", rt.handler.UpdateSettings)

	r.Get("/subscriptions/me", rt.handler.MySubscription)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
