package middleware

import (
	"context"
	"net/http"
	"time"

	"vidstream/internal/apperr"
	"vidstream/internal/auth"
	"vidstream/internal/flash"
	"vidstream/internal/logging"
)

// SessionCookie is the cookie holding the session token
const SessionCookie = "session_token"

// Authenticator resolves session tokens
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// AuthMiddleware loads the session identity and guards routes
type AuthMiddleware struct {
	auth         Authenticator
	flash        *flash.Store
	secureCookie bool
}

// NewAuthMiddleware creates a new authentication middleware instance
func NewAuthMiddleware(a Authenticator, notices *flash.Store, secureCookie bool) *AuthMiddleware {
	return &AuthMiddleware{
		auth:         a,
		flash:        notices,
		secureCookie: secureCookie,
	}
}

// LoadSession puts the identity of the session cookie, if any, into the
// request context. The identity is read fresh from the store on every
// request so privilege changes apply immediately.
func (m *AuthMiddleware) LoadSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			next(w, r)
			return
		}

		id, err := m.auth.Authenticate(r.Context(), cookie.Value)
		switch {
		case err == nil:
			next(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		case apperr.Is(err, apperr.KindAuth):
			// Stale or unknown token
			m.ClearSessionCookie(w)
			next(w, r)
		default:
			// Store trouble: carry on anonymously, the handler reports it
			logging.Ctx(r.Context()).Warn().Err(err).Msg("session lookup failed")
			next(w, r)
		}
	}
}

// RequireLogin redirects anonymous visitors to the login page
func (m *AuthMiddleware) RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFrom(r.Context()); !ok {
			m.flash.Add(w, r, flash.Warning, "Please log in to access this page.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// RequireAdmin lets only administrators through. Anonymous visitors are sent
// to log in, other users go home.
func (m *AuthMiddleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			m.flash.Add(w, r, flash.Warning, "Please log in to access this page.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !id.IsAdmin {
			m.flash.Add(w, r, flash.Danger, "Admin privileges required.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// RequireGuest sends logged-in users away from the login and register pages
func (m *AuthMiddleware) RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFrom(r.Context()); ok && r.Method == http.MethodGet {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// SetSessionCookie hands the session token to the browser
func (m *AuthMiddleware) SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie from the browser
func (m *AuthMiddleware) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
