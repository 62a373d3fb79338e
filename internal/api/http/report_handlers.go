package http

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

// GET /api/statistics
func StatisticsHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Statistics(r.Context())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, st)
	}
}

func emailParam(r *http.Request) (string, error) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", quiz.ErrInvalid)
	}
	return email, nil
}

// GET /api/students/results?email=
func StudentResultsHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := emailParam(r)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		out, err := svc.ResultsForStudent(r.Context(), email)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /api/students/stats?email=
func StudentStatsHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, err := emailParam(r)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		st, err := svc.StudentStats(r.Context(), email)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, st)
	}
}

// GET /api/students/search?name=
func StudentSearchHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			respondErr(w, r, fmt.Errorf("%w: name is required", quiz.ErrInvalid))
			return
		}
		rs, err := svc.SearchByName(r.Context(), name)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"name": name, "results": rs})
	}
}

// GET /api/results?from=2024-01-01&to=2024-01-31
func ResultsRangeHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, err := parseDate(q.Get("from"), false)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		to, err := parseDate(q.Get("to"), true)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if to.Before(from) {
			respondErr(w, r, fmt.Errorf("%w: to is before from", quiz.ErrInvalid))
			return
		}
		rs, err := svc.ResultsBetween(r.Context(), from, to)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, rs)
	}
}

// DELETE /api/results/{resultID}
func DeleteResultHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "resultID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if err := svc.DeleteResult(r.Context(), id); err != nil {
			respondErr(w, r, err)
			return
		}
		log.Printf("result %d deleted by %s", id, auth.SubjectFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/events?after=0&limit=100
func EventsHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after := int64(parseIntDefault(r.URL.Query().Get("after"), 0))
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		evs, err := events.Since(r.Context(), after, limit)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, evs)
	}
}
