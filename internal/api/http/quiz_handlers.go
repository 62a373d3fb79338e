package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

// GET /api/
func LandingHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := svc.LandingInfo(r.Context())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, info)
	}
}

// GET /api/quiz/setup
func SetupHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := svc.SetupOptions(r.Context())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, opts)
	}
}

type startRequest struct {
	StudentName   string `json:"student_name" validate:"required,max=255"`
	StudentEmail  string `json:"student_email" validate:"required,email,max=255"`
	Category      string `json:"category" validate:"max=255"`
	Difficulty    string `json:"difficulty" validate:"max=32"`
	QuestionCount int    `json:"question_count" validate:"gte=0,lte=200"`
}

// POST /api/quiz/start
func StartHandler(svc *session.Service, handles *AttemptHandles) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, r, err)
			return
		}
		a, err := svc.StartAttempt(r.Context(), session.StartRequest{
			StudentName:  req.StudentName,
			StudentEmail: req.StudentEmail,
			Category:     req.Category,
			Difficulty:   req.Difficulty,
			Count:        req.QuestionCount,
		})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if err := handles.Set(w, r, a.ID); err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{
			"attempt_id": a.ID,
			"total":      len(a.Questions),
			"next":       pathCurrent,
		})
	}
}

// GET /api/quiz/question
func CurrentQuestionHandler(svc *session.Service, handles *AttemptHandles) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.CurrentQuestion(r.Context(), handles.Get(r))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	}
}

type answerRequest struct {
	QuestionID int64  `json:"question_id" validate:"required,gt=0"`
	Answer     string `json:"answer" validate:"required"`
}

// POST /api/quiz/answer
func AnswerHandler(svc *session.Service, handles *AttemptHandles) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, r, err)
			return
		}
		p, err := svc.SubmitAnswer(r.Context(), handles.Get(r), req.QuestionID, req.Answer)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		next := pathCurrent
		if p.State == session.StateComplete {
			next = pathSubmit
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"state":    p.State,
			"position": p.Answered,
			"total":    p.Total,
			"next":     next,
		})
	}
}

// POST /api/quiz/submit
func SubmitHandler(svc *session.Service, handles *AttemptHandles) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Finalize(r.Context(), handles.Get(r))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if err := handles.Clear(w, r); err != nil {
			log.Printf("clear quiz session: %v", err)
		}
		respondJSON(w, http.StatusCreated, map[string]any{
			"result_id": res.ID,
			"next":      "/api/quiz/result/" + itoa(res.ID),
		})
	}
}

// GET /api/quiz/result/{resultID}
func ResultHandler(svc *session.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "resultID"))
		if err != nil {
			respondError(w, http.StatusNotFound, msgResultNotFound, pathLanding)
			return
		}
		view, err := svc.GetResult(r.Context(), id)
		if errors.Is(err, quiz.ErrNotFound) {
			respondError(w, http.StatusNotFound, msgResultNotFound, pathLanding)
			return
		}
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
	}
}
