package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"vidstream/internal/apperr"
	"vidstream/internal/auth"
	"vidstream/internal/content"
	"vidstream/internal/flash"
	"vidstream/internal/reports"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file
const multipartMemory = 8 << 20

// VideosHandler handles the home listing, uploads, the video page and its
// comment thread
type VideosHandler struct {
	responder
	content  *content.Service
	reports  *reports.Service
	maxBytes int64
}

// NewVideosHandler creates a new videos handler
func NewVideosHandler(c *content.Service, rep *reports.Service, maxBytes int64, view *Renderer, notices *flash.Store) *VideosHandler {
	return &VideosHandler{
		responder: responder{view: view, flash: notices},
		content:   c,
		reports:   rep,
		maxBytes:  maxBytes,
	}
}

// IndexHandler lists videos newest first, one page at a time
func (h *VideosHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	list, err := h.reports.ListVideosPage(r.Context(), page)
	if err != nil {
		h.degrade(w, r, err)
		list = &reports.VideoListPage{Page: 1, TotalPages: 1}
	}
	h.view.Render(w, r, http.StatusOK, "index", "Home", list)
}

// UploadHandler handles thumbnail uploads (GET: form, POST: process)
func (h *VideosHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.view.Render(w, r, http.StatusOK, "upload", "Upload", nil)
	case http.MethodPost:
		h.processUpload(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *VideosHandler) processUpload(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	tooLarge := "File is too large. Maximum size is " + sizeLabel(h.maxBytes) + "."
	if r.ContentLength > h.maxBytes {
		h.redirect(w, r, "/upload", flash.Danger, tooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.redirect(w, r, "/upload", flash.Danger, tooLarge)
			return
		}
		h.redirect(w, r, "/upload", flash.Danger, "Invalid form data.")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	in := content.UploadInput{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
	}

	file, header, err := r.FormFile("thumbnail")
	switch {
	case err == nil:
		defer file.Close()
		in.Filename = header.Filename
		in.Body = file
		in.Size = header.Size
		in.ContentType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
		// A file input left empty arrives as a plain field
		if _, sent := r.MultipartForm.Value["thumbnail"]; sent {
			in.Body = strings.NewReader("")
		}
	default:
		h.redirect(w, r, "/upload", flash.Danger, "Invalid form data.")
		return
	}

	if _, err := h.content.UploadVideo(r.Context(), id, in); err != nil {
		h.fail(w, r, err, "/upload")
		return
	}
	h.redirect(w, r, "/", flash.Success, "Video uploaded successfully!")
}

// ViewHandler shows a video with its comments and counts the view
func (h *VideosHandler) ViewHandler(w http.ResponseWriter, r *http.Request) {
	videoID, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	page, err := h.content.ViewVideo(r.Context(), videoID)
	if err != nil {
		h.fail(w, r, err, "/")
		return
	}
	h.view.Render(w, r, http.StatusOK, "video", page.Video.Title, page)
}

// CommentHandler posts a top-level comment
func (h *VideosHandler) CommentHandler(w http.ResponseWriter, r *http.Request) {
	videoID, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	back := videoPath(videoID)
	id, _ := auth.IdentityFrom(r.Context())

	if _, err := h.content.AddComment(r.Context(), id, videoID, r.PostFormValue("content")); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			back = "/"
		}
		h.fail(w, r, err, back)
		return
	}
	h.redirect(w, r, back, flash.Success, "Comment added successfully!")
}

// ReplyHandler answers a comment and returns to the video it belongs to
func (h *VideosHandler) ReplyHandler(w http.ResponseWriter, r *http.Request) {
	commentID, ok := idParam(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	back := "/"
	videoID, err := strconv.ParseInt(r.PostFormValue("video_id"), 10, 64)
	if err == nil && videoID > 0 {
		back = videoPath(videoID)
	}
	id, _ := auth.IdentityFrom(r.Context())

	if _, err := h.content.AddReply(r.Context(), id, commentID, videoID, r.PostFormValue("content")); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.redirect(w, r, back, flash.Success, "Reply added successfully!")
}

func sizeLabel(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d KB", n>>10)
}

func videoPath(id int64) string {
	return "/video/" + strconv.FormatInt(id, 10)
}
