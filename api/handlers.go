/*
handlers.go - HTTP API handlers for the personal finance tracker

PURPOSE:
  Exposes the expense planner, the person ledger and the loan tracker via a
  REST API. Handles HTTP request/response, JSON serialization, and delegates
  to domain logic.

ENDPOINTS:
  Auth (public):
    POST   /api/auth                        Login, or register an unknown handle
    GET    /api/auth                        Current user, or {"user": null}
    DELETE /api/auth                        Logout (clears the cookie)

  Recurring expenses:
    GET    /api/expenses                    Grouped list + totals (?active=true&recurrence=)
    POST   /api/expenses                    Create
    GET    /api/expenses/{id}               Get
    PUT    /api/expenses/{id}               Replace
    DELETE /api/expenses/{id}               Delete

  People + ledger:
    GET    /api/people                      People with balances + totals
    POST   /api/people                      Create
    GET    /api/people/{id}                 Person with transactions + balance
    PUT    /api/people/{id}                 Replace
    DELETE /api/people/{id}                 Delete (cascades)
    POST   /api/people/{id}/transactions    Record a transaction
    PATCH  /api/people/{id}/transactions/{txId}  Toggle disregarded

  Loans:
    GET    /api/loans                       List (?active=true&person_id=&direction=)
    POST   /api/loans                       Create (optionally with a new person)
    GET    /api/loans/{id}                  Get with payments
    PUT    /api/loans/{id}                  Replace
    DELETE /api/loans/{id}                  Delete (cascades)
    GET    /api/loans/{id}/payments         Payments, newest first
    POST   /api/loans/{id}/payments         Record a payment

  Dashboard:
    GET    /api/dashboard                   Expenses + ledger + loan summary

ARCHITECTURE:
  Handler struct holds all dependencies. Every handler under RequireUser
  reads the acting user from the request context and passes it to the
  domain layer, which scopes every query by it.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing/invalid session, wrong PIN
  - 404: Resource not found, or owned by another user
  - 500: Internal errors (logged, details withheld)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/pocket-ledger/auth"
	"github.com/warp/pocket-ledger/generic"
	"github.com/warp/pocket-ledger/ledger"
	"github.com/warp/pocket-ledger/recurring"
	"github.com/warp/pocket-ledger/store/sqlite"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Users    auth.UserStore
	Auth     *auth.PINAuthenticator
	Sessions *auth.SessionManager
	Book     *ledger.Book
	Planner  *recurring.Planner

	// Pinger backs /healthz.
	Pinger interface{ Ping(ctx context.Context) error }

	// SecureCookie marks the session cookie Secure (HTTPS deployments).
	SecureCookie bool

	now     func() time.Time
	metrics *Metrics
}

// NewHandler wires every domain service onto one store.
func NewHandler(store *sqlite.Store, sessions *auth.SessionManager) *Handler {
	return &Handler{
		Users:    store,
		Auth:     auth.NewPINAuthenticator(store),
		Sessions: sessions,
		Book:     ledger.NewBook(store),
		Planner:  recurring.NewPlanner(store),
		Pinger:   store,
		now:      time.Now,
	}
}

// WithClock replaces the time source of the handler and every service it
// owns. Used by tests.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	h.Book.WithClock(now)
	h.Planner.WithClock(now)
	h.Sessions.WithClock(now)
	return h
}

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.Pinger.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// currentUser is the acting user placed on the context by RequireUser.
func currentUser(r *http.Request) generic.UserID {
	id, _ := auth.UserIDFrom(r.Context())
	return id
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error onto its status code. what names
// the entity for 404 messages ("loan" -> "Loan not found").
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, what string) {
	var verr *generic.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error(), nil)
	case errors.Is(err, generic.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s not found", capitalize(what)), nil)
	case errors.Is(err, generic.ErrWrongPIN):
		writeError(w, http.StatusUnauthorized, "Wrong PIN", nil)
	case errors.Is(err, generic.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func capitalize(s string) string {
	if s == "" {
		return "Resource"
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
