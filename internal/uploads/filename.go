// Package uploads decides which thumbnail files are accepted, how they are
// named, and where their bytes are kept.
package uploads

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Policy holds the accepted extensions (lower-case, without the dot)
type Policy struct {
	allowed map[string]struct{}
}

// NewPolicy builds a policy from a list such as ["png", ".JPG"]
func NewPolicy(extensions []string) *Policy {
	p := &Policy{allowed: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			p.allowed[ext] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether filename has an accepted extension
func (p *Policy) Allowed(filename string) bool {
	ext := Extension(filename)
	if ext == "" {
		return false
	}
	_, ok := p.allowed[ext]
	return ok
}

// Extension returns the lower-cased text after the last dot, or ""
func Extension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// SanitizeFilename reduces a client-supplied name to a safe basename:
// path separators become underscores, whitespace runs collapse to one
// underscore, anything outside [A-Za-z0-9._-] is dropped, and leading and
// trailing dots and underscores are trimmed. The result never contains a
// separator or "..".
func SanitizeFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}

// StorageName returns the key a thumbnail is stored under: the upload time
// as YYYYMMDD_HHMMSS_, eight random hex digits and the sanitized name.
// Names that sanitize to nothing usable fall back to "upload.<ext>".
func StorageName(original string, at time.Time) string {
	name := SanitizeFilename(original)
	ext := Extension(original)
	if name == "" || Extension(name) != ext || strings.Contains(name, "..") {
		name = "upload." + ext
	}
	return at.Format("20060102_150405_") + uuid.NewString()[:8] + "_" + name
}
