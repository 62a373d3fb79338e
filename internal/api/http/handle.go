package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
)

const (
	sessionName   = "quiz-session"
	attemptKey    = "attempt_id"
	attemptHeader = "X-Quiz-Attempt"
)

// AttemptHandles binds an attempt handle to the browser through a signed
// cookie session. API clients may send the handle in X-Quiz-Attempt instead.
type AttemptHandles struct {
	store sessions.Store
}

func NewAttemptHandles(secret string, ttl time.Duration, secure bool) *AttemptHandles {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &AttemptHandles{store: cs}
}

// Get returns the caller's handle or "" when there is none.
func (h *AttemptHandles) Get(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(attemptHeader)); v != "" {
		return v
	}
	s, err := h.store.Get(r, sessionName)
	if err != nil {
		// tampered or rotated-key cookie reads as no session
		return ""
	}
	id, _ := s.Values[attemptKey].(string)
	return id
}

func (h *AttemptHandles) Set(w http.ResponseWriter, r *http.Request, id string) error {
	s, _ := h.store.Get(r, sessionName)
	s.Values[attemptKey] = id
	return s.Save(r, w)
}

func (h *AttemptHandles) Clear(w http.ResponseWriter, r *http.Request) error {
	s, _ := h.store.Get(r, sessionName)
	delete(s.Values, attemptKey)
	s.Options.MaxAge = -1
	return s.Save(r, w)
}
