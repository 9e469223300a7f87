package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vidstream/internal/apperr"
	"vidstream/internal/flash"
	"vidstream/internal/logging"
)

// responder holds what every handler needs to answer a request
type responder struct {
	view  *Renderer
	flash *flash.Store
}

// redirect queues a notice and sends the browser to target
func (rs *responder) redirect(w http.ResponseWriter, r *http.Request, target, level, text string) {
	if text != "" {
		rs.flash.Add(w, r, level, text)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// fail turns err into a danger notice and redirects to target.
// Errors without a user-facing message are logged and shown generically.
func (rs *responder) fail(w http.ResponseWriter, r *http.Request, err error, target string) {
	rs.redirect(w, r, target, flash.Danger, rs.notice(r, err))
}

// degrade reports err on a list page that then renders with no rows
func (rs *responder) degrade(w http.ResponseWriter, r *http.Request, err error) {
	rs.flash.Add(w, r, flash.Danger, rs.notice(r, err))
}

func (rs *responder) notice(r *http.Request, err error) string {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindStorageUnavailable, apperr.KindIO:
		logging.Ctx(r.Context()).Error().Err(err).Str("kind", kind.String()).Msg("request failed")
	case apperr.KindUnknown:
		logging.Ctx(r.Context()).Error().Err(err).Msg("❌ Unexpected error")
		return "Something went wrong. Please try again."
	default:
		logging.Ctx(r.Context()).Debug().Err(err).Str("kind", kind.String()).Msg("request rejected")
	}
	return apperr.Message(err, "Something went wrong. Please try again.")
}

// idParam reads a numeric URL parameter; the routes only match digits, so
// failure means the value overflowed
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
