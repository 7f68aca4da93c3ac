package api

import (
	"errors"
	"net/http"

	"github.com/warp/pocket-ledger/generic"
)

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login logs in with a handle and PIN. An unknown handle is registered on
// the spot and answered with 201.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, created, err := h.Auth.LoginOrRegister(r.Context(), req.Username, req.PIN)
	if err != nil {
		if errors.Is(err, generic.ErrWrongPIN) {
			h.metrics.countLogin("wrong_pin")
		}
		writeDomainError(w, r, err, "user")
		return
	}

	if err := h.setSessionCookie(w, user); err != nil {
		writeDomainError(w, r, err, "session")
		return
	}

	if created {
		h.metrics.countLogin("register")
		writeJSON(w, http.StatusCreated, AuthResponse{
			User:      toUserDTO(user),
			Message:   "Account created",
			IsNewUser: true,
		})
		return
	}

	h.metrics.countLogin("login")
	writeJSON(w, http.StatusOK, AuthResponse{User: toUserDTO(user), Message: "Logged in"})
}

// CurrentUser never fails: an anonymous caller gets {"user": null}.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusOK, SessionResponse{})
		return
	}

	claims, err := h.Sessions.Validate(cookie.Value)
	if err != nil {
		writeJSON(w, http.StatusOK, SessionResponse{})
		return
	}

	user, err := h.Users.GetUserByID(r.Context(), generic.UserID(claims.UserID))
	if err != nil {
		writeJSON(w, http.StatusOK, SessionResponse{})
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{User: toUserDTO(user)})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
