package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vidstream/internal/auth"
	"vidstream/internal/config"
	"vidstream/internal/content"
	"vidstream/internal/flash"
	"vidstream/internal/logging"
	"vidstream/internal/middleware"
	"vidstream/internal/reports"
	"vidstream/internal/uploads"
)

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router wires together
type Deps struct {
	Config  *config.Config
	Auth    *auth.Service
	Content *content.Service
	Reports *reports.Service
	Store   Pinger
	Blobs   uploads.Storage
	Flash   *flash.Store
	View    *Renderer
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's r.Use
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// NewRouter builds the complete HTTP surface
func NewRouter(d Deps) http.Handler {
	sessions := middleware.NewAuthMiddleware(d.Auth, d.Flash, d.Config.Security.CookieSecure)

	authHandler := NewAuthHandler(d.Auth, sessions, d.View, d.Flash)
	videosHandler := NewVideosHandler(d.Content, d.Reports, d.Config.Uploads.MaxBytes, d.View, d.Flash)
	adminHandler := NewAdminHandler(d.Content, d.Reports, d.View, d.Flash)
	reportsHandler := NewReportsHandler(d.Reports, d.View, d.Flash)

	r := chi.NewRouter()
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chiMiddleware(middleware.Instrument))
	r.Use(chimiddleware.Recoverer)

	// Infrastructure routes skip the session lookup
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthHandler(d.Store))
	if local, ok := d.Blobs.(*uploads.Local); ok {
		r.Handle("/uploads/*", thumbnailServer(local.Dir()))
	}

	r.Group(func(r chi.Router) {
		r.Use(chiMiddleware(sessions.LoadSession))

		r.Get("/", videosHandler.IndexHandler)
		r.Get("/video/{id:[0-9]+}", videosHandler.ViewHandler)
		r.Get("/trending", reportsHandler.TrendingHandler)
		r.Get("/leaderboard", reportsHandler.LeaderboardHandler)
		r.Get("/user/{username}", reportsHandler.UserProfileHandler)
		r.Get("/stats/video/{id:[0-9]+}", reportsHandler.VideoStatsHandler)

		r.Get("/register", sessions.RequireGuest(authHandler.RegisterHandler))
		r.Post("/register", authHandler.RegisterHandler)
		r.Get("/login", sessions.RequireGuest(authHandler.LoginHandler))
		r.With(loginLimit(d.Config.Security, authHandler.LoginLimited)).Post("/login", authHandler.LoginHandler)
		r.Get("/logout", authHandler.LogoutHandler)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(sessions.RequireLogin))

			r.Get("/upload", videosHandler.UploadHandler)
			r.Post("/upload", videosHandler.UploadHandler)
			r.Post("/video/{id:[0-9]+}/comment", videosHandler.CommentHandler)
			r.Post("/comment/{id:[0-9]+}/reply", videosHandler.ReplyHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(sessions.RequireAdmin))

			r.Get("/admin", adminHandler.DashboardHandler)
			r.Post("/admin/delete/video/{id:[0-9]+}", adminHandler.DeleteVideoHandler)
			r.Post("/admin/delete/comment/{id:[0-9]+}", adminHandler.DeleteCommentHandler)
			r.Get("/activity-log", adminHandler.ActivityLogHandler)
		})
	})

	return r
}

// loginLimit caps POST /login per client IP; a non-positive limit disables it
func loginLimit(cfg config.SecurityConfig, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if cfg.LoginRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.LoginRateLimit,
		cfg.LoginRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(onLimit),
	)
}

// healthHandler reports 200 while the store answers a ping
func healthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := store.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	}
}

// thumbnailServer serves stored thumbnails without directory listings
func thumbnailServer(dir string) http.Handler {
	files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
