package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"vidstream/internal/auth"
	"vidstream/internal/flash"
	"vidstream/internal/logging"
	"vidstream/internal/uploads"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer executes the page templates inside the shared layout
type Renderer struct {
	pages map[string]*template.Template
	site  string
	flash *flash.Store
	now   func() time.Time
}

// pageData is what every template receives
type pageData struct {
	Site    string
	Title   string
	User    *auth.Identity
	Flashes []flash.Message
	Data    any
}

// NewRenderer parses every page template once at startup
func NewRenderer(site string, notices *flash.Store, blobs uploads.Storage, now func() time.Time) (*Renderer, error) {
	if now == nil {
		now = time.Now
	}
	v := &Renderer{
		pages: make(map[string]*template.Template),
		site:  site,
		flash: notices,
		now:   now,
	}

	funcs := template.FuncMap{
		"timeago": func(t time.Time) string { return TimeAgo(v.now(), t) },
		"thumb":   blobs.URL,
		"date":    func(t time.Time) string { return t.Format("January 02, 2006") },
		"stamp":   func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04:05") },
		"add":     func(a, b int) int { return a + b },
		"rank":    func(i int) int { return i + 1 },
	}

	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, "templates/"), ".html")
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		v.pages[name] = tmpl
	}
	return v, nil
}

// Render writes page with status, consuming pending flash notices
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	tmpl, ok := v.pages[page]
	if !ok {
		logging.Ctx(r.Context()).Error().Str("page", page).Msg("unknown template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, _ := auth.IdentityFrom(r.Context())
	pd := pageData{
		Site:    v.site,
		Title:   title,
		User:    user,
		Flashes: v.flash.Pop(w, r),
		Data:    data,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, pd); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg("❌ Template execution failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// TimeAgo renders t relative to now: "just now", "N minutes ago" and so
// on up to weeks, then the calendar date
func TimeAgo(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	seconds := now.Sub(t).Seconds()

	unit := func(n int, name string) string {
		if n > 1 {
			return fmt.Sprintf("%d %ss ago", n, name)
		}
		return fmt.Sprintf("%d %s ago", n, name)
	}

	switch {
	case seconds < 60:
		return "just now"
	case seconds < 3600:
		return unit(int(seconds/60), "minute")
	case seconds < 86400:
		return unit(int(seconds/3600), "hour")
	case seconds < 604800:
		return unit(int(seconds/86400), "day")
	case seconds < 2592000:
		return unit(int(seconds/604800), "week")
	default:
		return t.Format("January 02, 2006")
	}
}
