package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"vidstream/internal/database"
	"vidstream/internal/flash"
	"vidstream/internal/reports"
)

// ReportsHandler serves the read-only statistics pages
type ReportsHandler struct {
	responder
	reports *reports.Service
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(rep *reports.Service, view *Renderer, notices *flash.Store) *ReportsHandler {
	return &ReportsHandler{
		responder: responder{view: view, flash: notices},
		reports:   rep,
	}
}

// TrendingHandler ranks recent videos by views, then comments
func (h *ReportsHandler) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reports.GetTrending(r.Context(), 0, 0)
	if err != nil {
		h.degrade(w, r, err)
		entries = []database.TrendingEntry{}
	}
	h.view.Render(w, r, http.StatusOK, "trending", "Trending", entries)
}

// LeaderboardHandler ranks users by engagement score
func (h *ReportsHandler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reports.GetLeaderboard(r.Context(), 0)
	if err != nil {
		h.degrade(w, r, err)
		entries = []database.LeaderboardEntry{}
	}
	h.view.Render(w, r, http.StatusOK, "leaderboard", "Leaderboard", entries)
}

// UserProfileHandler shows a user's totals and videos
func (h *ReportsHandler) UserProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile, err := h.reports.GetUserActivity(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.view.Render(w, r, http.StatusOK, "user_profile", profile.Activity.Username, profile)
}

// VideoStatsHandler shows one video's engagement numbers
func (h *ReportsHandler) VideoStatsHandler(w http.ResponseWriter, r *http.Request) {
	videoID, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	stats, err := h.reports.GetVideoStats(r.Context(), videoID)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.view.Render(w, r, http.StatusOK, "video_stats", "Stats: "+stats.Title, stats)
}
