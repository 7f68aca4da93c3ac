/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind a proxy
  3. Logger:     Structured request logging (slog)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Metrics:    Prometheus request counters and latencies
  6. CORS:       Cross-origin requests for the frontend, with credentials

ROUTE GROUPS:
  /healthz              Liveness + database ping
  /metrics              Prometheus exposition
  /api/auth             PIN login, session lookup, logout (public)
  /api/expenses/*       Recurring expenses       (session required)
  /api/people/*         People + their ledgers   (session required)
  /api/loans/*          Loans + payments         (session required)
  /api/dashboard        Aggregated summary       (session required)
  /*                    Static files (frontend)

STATIC FILE SERVING:
  When StaticDir exists, serves the built frontend from it and falls back to
  index.html for client-side routing.

SEE ALSO:
  - handlers.go: Shared handler plumbing
  - middleware.go: Request logging and session enforcement
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds the router options that do not belong to a handler.
type RouterConfig struct {
	AllowedOrigins []string
	StaticDir      string
	Metrics        *Metrics     // a fresh registry when nil
	Logger         *slog.Logger // slog.Default() when nil
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	h.metrics = cfg.Metrics

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cfg.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", cfg.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Session routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/", h.Login)
			r.Get("/", h.CurrentUser)
			r.Delete("/", h.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireUser)

			// Recurring expense routes
			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", h.ListExpenses)
				r.Post("/", h.CreateExpense)
				r.Get("/{id}", h.GetExpense)
				r.Put("/{id}", h.UpdateExpense)
				r.Delete("/{id}", h.DeleteExpense)
			})

			// People + ledger routes
			r.Route("/people", func(r chi.Router) {
				r.Get("/", h.ListPeople)
				r.Post("/", h.CreatePerson)
				r.Get("/{id}", h.GetPerson)
				r.Put("/{id}", h.UpdatePerson)
				r.Delete("/{id}", h.DeletePerson)
				r.Post("/{id}/transactions", h.RecordTransaction)
				r.Patch("/{id}/transactions/{txId}", h.SetDisregarded)
			})

			// Loan routes
			r.Route("/loans", func(r chi.Router) {
				r.Get("/", h.ListLoans)
				r.Post("/", h.CreateLoan)
				r.Get("/{id}", h.GetLoan)
				r.Put("/{id}", h.UpdateLoan)
				r.Delete("/{id}", h.DeleteLoan)
				r.Get("/{id}/payments", h.ListPayments)
				r.Post("/{id}/payments", h.RecordPayment)
			})

			r.Get("/dashboard", h.Dashboard)
		})
	})

	if cfg.StaticDir != "" {
		if _, err := os.Stat(cfg.StaticDir); err == nil {
			r.Get("/*", spaHandler(cfg.StaticDir))
		}
	}

	return r
}

// spaHandler serves files from dir and index.html for unknown paths.
func spaHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		fullPath := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	}
}
