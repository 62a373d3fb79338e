package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

const (
	pathLanding = "/api/"
	pathSetup   = "/api/quiz/setup"
	pathCurrent = "/api/quiz/question"
	pathSubmit  = "/api/quiz/submit"
)

const (
	msgSessionExpired = "Quiz session expired. Please start a new quiz."
	msgEmptySelection = "No questions available for the selected criteria. Please try different options."
	msgResultNotFound = "Quiz result not found."
	msgUnexpected     = "An unexpected error occurred"
)

type apiError struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, msg, redirect string) {
	respondJSON(w, status, apiError{Error: msg, Redirect: redirect})
}

// respondErr maps domain errors to a status, message and the page the
// client should go to next.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		respondError(w, http.StatusGone, msgSessionExpired, pathSetup)
	case errors.Is(err, quiz.ErrEmptySelection):
		respondError(w, http.StatusUnprocessableEntity, msgEmptySelection, pathSetup)
	case errors.Is(err, session.ErrAlreadyComplete):
		respondError(w, http.StatusConflict, "All questions have been answered.", pathSubmit)
	case errors.Is(err, session.ErrOutOfOrder):
		respondError(w, http.StatusConflict, err.Error(), pathCurrent)
	case errors.Is(err, session.ErrUnknownQuestion):
		respondError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, quiz.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error(), pathLanding)
	case errors.Is(err, quiz.ErrInvalid):
		respondError(w, http.StatusBadRequest, err.Error(), "")
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, msgUnexpected, pathLanding)
	}
}

// decodeJSON reads the body into dst and validates its tags.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: bad json: %v", quiz.ErrInvalid, err)
	}
	return quiz.Check(dst)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", quiz.ErrInvalid, s)
	}
	return id, nil
}

// parseDate accepts RFC3339 or YYYY-MM-DD. A bare date used as an upper
// bound covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", quiz.ErrInvalid, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
