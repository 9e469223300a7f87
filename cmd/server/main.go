package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vidstream/internal/activity"
	"vidstream/internal/auth"
	"vidstream/internal/config"
	"vidstream/internal/content"
	"vidstream/internal/database"
	"vidstream/internal/flash"
	"vidstream/internal/handlers"
	"vidstream/internal/logging"
	"vidstream/internal/reports"
	"vidstream/internal/uploads"
)

const sessionCleanupInterval = 30 * time.Minute

func main() {
	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.Info().Str("environment", cfg.Environment).Msg("🚀 Starting VidStream server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to initialize database")
	}
	defer store.Close()

	blobs, err := uploads.New(ctx, cfg.Uploads)
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to initialize thumbnail storage")
	}
	logging.Info().Str("backend", blobs.Name()).Msg("🖼️  Thumbnail storage ready")

	recorder := activity.NewRecorder(store)
	authSvc := auth.NewService(store, recorder, cfg.Security.SessionTTL)
	contentSvc := content.NewService(store, blobs, uploads.NewPolicy(cfg.Uploads.AllowedExtensions), recorder,
		content.WithCommentsLimit(cfg.Pages.CommentsPerPage))
	reportsSvc := reports.NewService(store, cfg.Pages, time.Now)

	if err := authSvc.PromoteAdmins(ctx, cfg.Admin.Usernames); err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to promote administrators")
	}
	if _, err := authSvc.CleanupExpiredSessions(ctx); err != nil {
		logging.Warn().Err(err).Msg("⚠️ Error cleaning up expired sessions")
	}
	go startSessionCleanup(ctx, authSvc)

	notices := flash.NewStore(cfg.Security.SecretKey, cfg.Security.CookieSecure)
	view, err := handlers.NewRenderer(cfg.Site.Name, notices, blobs, time.Now)
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Failed to parse templates")
	}

	router := handlers.NewRouter(handlers.Deps{
		Config:  cfg,
		Auth:    authSvc,
		Content: contentSvc,
		Reports: reportsSvc,
		Store:   store,
		Blobs:   blobs,
		Flash:   notices,
		View:    view,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Str("db", store.Driver()).Msg("🌐 Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Error().Err(err).Msg("❌ Server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("🛑 Shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("forced shutdown")
	}
	logging.Info().Msg("👋 Goodbye!")
}

// startSessionCleanup prunes expired sessions until ctx is cancelled
func startSessionCleanup(ctx context.Context, svc *auth.Service) {
	logger := logging.WithComponent("session-cleanup")
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.CleanupExpiredSessions(ctx); err != nil {
				logger.Warn().Err(err).Msg("⚠️ Error cleaning up expired sessions")
			}
		}
	}
}
