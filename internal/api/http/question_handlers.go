package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// listQuestions applies optional ?category= and ?difficulty= filters.
func listQuestions(r *http.Request, store quiz.QuestionStore) ([]quiz.Question, error) {
	ctx := r.Context()
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	difficulty := strings.TrimSpace(r.URL.Query().Get("difficulty"))

	var d quiz.Difficulty
	if quiz.Specific(difficulty) {
		var err error
		if d, err = quiz.ParseDifficulty(difficulty); err != nil {
			return nil, err
		}
	}
	switch {
	case quiz.Specific(category) && d != "":
		return store.QuestionsByCategoryAndDifficulty(ctx, category, d)
	case quiz.Specific(category):
		return store.QuestionsByCategory(ctx, category)
	case d != "":
		return store.QuestionsByDifficulty(ctx, d)
	default:
		return store.ListQuestions(ctx)
	}
}

// GET /api/questions (answer keys hidden)
func ListQuestionsHandler(store quiz.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := listQuestions(r, store)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		for i := range qs {
			qs[i] = qs[i].Redacted()
		}
		respondJSON(w, http.StatusOK, qs)
	}
}

// GET /api/admin/questions
func ExportQuestionsHandler(store quiz.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := listQuestions(r, store)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, qs)
	}
}

// GET /api/questions/{questionID}
func GetQuestionHandler(store quiz.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "questionID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		q, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, q.Redacted())
	}
}

// GET /api/questions/{questionID}/check?answer=B
func CheckAnswerHandler(store quiz.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "questionID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		ans, err := quiz.ParseAnswer(r.URL.Query().Get("answer"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		q, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"question_id":    q.ID,
			"correct":        q.IsCorrect(ans),
			"correct_answer": q.CorrectAnswer,
			"explanation":    q.Explanation,
		})
	}
}

// readQuestion decodes a question body, canonicalizes labels, then validates.
func readQuestion(r *http.Request) (quiz.Question, error) {
	var q quiz.Question
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		return quiz.Question{}, fmt.Errorf("%w: bad json: %v", quiz.ErrInvalid, err)
	}
	q.Normalize()
	if err := quiz.Check(q); err != nil {
		return quiz.Question{}, err
	}
	return q, nil
}

// POST /api/questions
func CreateQuestionHandler(store quiz.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := readQuestion(r)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		q.ID = 0
		created, err := store.CreateQuestion(r.Context(), q)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/questions/"+itoa(created.ID))
		respondJSON(w, http.StatusCreated, created)
	}
}

// PUT /api/questions/{questionID}
func UpdateQuestionHandler(store quiz.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "questionID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		q, err := readQuestion(r)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if q.ID != 0 && q.ID != id {
			respondErr(w, r, fmt.Errorf("%w: body id %d does not match path", quiz.ErrInvalid, q.ID))
			return
		}
		q.ID = id
		updated, err := store.UpdateQuestion(r.Context(), q)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, updated)
	}
}

// DELETE /api/questions/{questionID}
func DeleteQuestionHandler(store quiz.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "questionID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if err := store.DeleteQuestion(r.Context(), id); err != nil {
			respondErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
