package handlers

import (
	"net/http"

	"vidstream/internal/auth"
	"vidstream/internal/content"
	"vidstream/internal/database"
	"vidstream/internal/flash"
	"vidstream/internal/reports"
)

// AdminHandler handles the moderation pages. Every route is behind
// RequireAdmin; the content service checks the role again.
type AdminHandler struct {
	responder
	content *content.Service
	reports *reports.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(c *content.Service, rep *reports.Service, view *Renderer, notices *flash.Store) *AdminHandler {
	return &AdminHandler{
		responder: responder{view: view, flash: notices},
		content:   c,
		reports:   rep,
	}
}

// DashboardHandler lists every video and comment for moderation
func (h *AdminHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := h.reports.AdminDashboard(r.Context())
	if err != nil {
		h.degrade(w, r, err)
		dash = &reports.Dashboard{}
	}
	h.view.Render(w, r, http.StatusOK, "admin", "Admin Dashboard", dash)
}

// DeleteVideoHandler removes a video, its thread and its thumbnail
func (h *AdminHandler) DeleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	videoID, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	actor, _ := auth.IdentityFrom(r.Context())

	if err := h.content.DeleteVideo(r.Context(), actor, videoID); err != nil {
		h.fail(w, r, err, "/admin")
		return
	}
	h.redirect(w, r, "/admin", flash.Success, "Video deleted successfully!")
}

// DeleteCommentHandler removes a comment and its replies
func (h *AdminHandler) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	commentID, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	actor, _ := auth.IdentityFrom(r.Context())

	if err := h.content.DeleteComment(r.Context(), actor, commentID); err != nil {
		h.fail(w, r, err, "/admin")
		return
	}
	h.redirect(w, r, "/admin", flash.Success, "Comment deleted successfully!")
}

// ActivityLogHandler shows the newest audit entries
func (h *AdminHandler) ActivityLogHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reports.GetActivityLog(r.Context(), 0)
	if err != nil {
		h.degrade(w, r, err)
		entries = []database.ActivityEntry{}
	}
	h.view.Render(w, r, http.StatusOK, "activity_log", "Activity Log", entries)
}
