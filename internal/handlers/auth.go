package handlers

import (
	"net/http"
	"strings"

	"vidstream/internal/auth"
	"vidstream/internal/flash"
	"vidstream/internal/logging"
	"vidstream/internal/middleware"
)

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	responder
	auth     *auth.Service
	sessions *middleware.AuthMiddleware
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(svc *auth.Service, sessions *middleware.AuthMiddleware, view *Renderer, notices *flash.Store) *AuthHandler {
	return &AuthHandler{
		responder: responder{view: view, flash: notices},
		auth:      svc,
		sessions:  sessions,
	}
}

// RegisterHandler handles user registration (GET: show form, POST: process registration)
func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.view.Render(w, r, http.StatusOK, "register", "Register", nil)
	case http.MethodPost:
		h.processRegistration(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AuthHandler) processRegistration(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/register", flash.Danger, "Invalid form data.")
		return
	}

	in := auth.RegisterInput{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	if _, err := h.auth.Register(r.Context(), in); err != nil {
		h.fail(w, r, err, "/register")
		return
	}

	h.redirect(w, r, "/login", flash.Success, "Registration successful! Please log in.")
}

// LoginHandler handles user login (GET: show form, POST: process login)
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.view.Render(w, r, http.StatusOK, "login", "Login", nil)
	case http.MethodPost:
		h.processLogin(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AuthHandler) processLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirect(w, r, "/login", flash.Danger, "Invalid form data.")
		return
	}

	sess, err := h.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		h.fail(w, r, err, "/login")
		return
	}

	h.sessions.SetSessionCookie(w, sess.Token, sess.ExpiresAt)
	logging.Ctx(r.Context()).Info().Int64("user_id", sess.Identity.UserID).Msg("🔑 User logged in")
	h.redirect(w, r, "/", flash.Success, "Welcome back, "+sess.Identity.Username+"!")
}

// LogoutHandler ends the session; it always succeeds
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		h.auth.Logout(r.Context(), cookie.Value)
	}
	h.sessions.ClearSessionCookie(w)
	h.redirect(w, r, "/", flash.Info, "You have been logged out.")
}

// LoginLimited answers POST /login once a client exceeds the rate limit
func (h *AuthHandler) LoginLimited(w http.ResponseWriter, r *http.Request) {
	logging.Ctx(r.Context()).Warn().Str("remote", r.RemoteAddr).Msg("login rate limit exceeded")
	h.redirect(w, r, "/login", flash.Danger, "Too many login attempts. Please try again later.")
}
