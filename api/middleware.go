package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/pocket-ledger/auth"
	"github.com/warp/pocket-ledger/generic"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// requestLogger logs one line per request. Client errors log at WARN and
// server errors at ERROR.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// RequireUser resolves the acting user from the session cookie and puts it
// on the request context. Anything else is a 401.
//
// Sessions roll: once a token is past half its lifetime a fresh cookie is
// issued, so an active user is never logged out.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}

		claims, err := h.Sessions.Validate(cookie.Value)
		if err != nil {
			h.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}

		// The account may have been removed since the token was issued.
		user, err := h.Users.GetUserByID(r.Context(), generic.UserID(claims.UserID))
		if generic.IsNotFound(err) {
			h.clearSessionCookie(w)
			writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		if err != nil {
			writeDomainError(w, r, err, "user")
			return
		}

		if claims.IssuedAt != nil && h.now().Sub(claims.IssuedAt.Time) > h.Sessions.Lifetime()/2 {
			if err := h.setSessionCookie(w, user); err != nil {
				slog.WarnContext(r.Context(), "session renewal failed", "user", user.Username, "error", err)
			}
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), user.ID)))
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, user *auth.User) error {
	token, err := h.Sessions.Issue(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Sessions.Lifetime().Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
