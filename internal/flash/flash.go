// Package flash keeps one-shot user notices in a signed cookie between a
// redirect and the page it lands on.
package flash

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/securecookie"

	"vidstream/internal/logging"
)

// Severity levels, named after the CSS classes the templates use
const (
	Info    = "info"
	Success = "success"
	Warning = "warning"
	Danger  = "danger"
)

const cookieName = "vidstream_flash"

// Message is a single notice
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Store reads and writes pending notices
type Store struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewStore signs notices with a key derived from secret. An empty secret
// gets a random key, so notices do not survive a restart.
func NewStore(secret string, secure bool) *Store {
	var hashKey []byte
	if secret == "" {
		hashKey = securecookie.GenerateRandomKey(32)
	} else {
		sum := sha256.Sum256([]byte(secret))
		hashKey = sum[:]
	}

	codec := securecookie.New(hashKey, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(3600)
	return &Store{codec: codec, secure: secure}
}

// Add queues a notice for the next rendered page
func (s *Store) Add(w http.ResponseWriter, r *http.Request, level, text string) {
	msgs := s.read(r)
	msgs = append(msgs, Message{Level: level, Text: text})

	encoded, err := s.codec.Encode(cookieName, msgs)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("failed to encode flash cookie")
		return
	}
	http.SetCookie(w, s.cookie(encoded, 0))
	// Later Add calls in the same request see the queued notices
	r.AddCookie(&http.Cookie{Name: cookieName, Value: encoded})
}

// Pop returns the queued notices and clears them
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) []Message {
	msgs := s.read(r)
	if _, err := r.Cookie(cookieName); err == nil {
		http.SetCookie(w, s.cookie("", -1))
	}
	return msgs
}

func (s *Store) read(r *http.Request) []Message {
	var msgs []Message
	// Only the last cookie with our name counts; AddCookie may have stacked one
	var value string
	for _, c := range r.Cookies() {
		if c.Name == cookieName {
			value = c.Value
		}
	}
	if value == "" {
		return nil
	}
	if err := s.codec.Decode(cookieName, value, &msgs); err != nil {
		return nil
	}
	return msgs
}

func (s *Store) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
