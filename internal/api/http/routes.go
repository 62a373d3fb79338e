package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

type Deps struct {
	Service   *session.Service
	Questions quiz.QuestionStore
	Handles   *AttemptHandles
	Auth      *AuthDeps // nil disables /auth/login and staff routes
	Events    *syncx.EventRepo
	Blobs     storage.BlobStore // question-bank snapshots; optional
	DB        *sql.DB           // readiness probe; optional
}

type AuthDeps struct {
	Service  *auth.AuthService
	Accounts []auth.Account
}

// Mount registers every route on r.
func Mount(r chi.Router, d Deps) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(req.Context()); err != nil {
				respondError(w, http.StatusServiceUnavailable, "database unavailable", "")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/", LandingHandler(d.Service))

		ar.Route("/quiz", func(qr chi.Router) {
			qr.Get("/setup", SetupHandler(d.Service))
			qr.Post("/start", StartHandler(d.Service, d.Handles))
			qr.Get("/question", CurrentQuestionHandler(d.Service, d.Handles))
			qr.Post("/answer", AnswerHandler(d.Service, d.Handles))
			qr.Post("/submit", SubmitHandler(d.Service, d.Handles))
			qr.Get("/result/{resultID}", ResultHandler(d.Service))
		})

		ar.Get("/statistics", StatisticsHandler(d.Service))
		ar.Get("/students/results", StudentResultsHandler(d.Service))
		ar.Get("/students/stats", StudentStatsHandler(d.Service))
		ar.Get("/students/search", StudentSearchHandler(d.Service))

		ar.Get("/questions", ListQuestionsHandler(d.Questions))
		ar.Get("/questions/{questionID}", GetQuestionHandler(d.Questions))
		ar.Get("/questions/{questionID}/check", CheckAnswerHandler(d.Questions))

		if d.Auth == nil {
			return
		}
		// staff: JWT -> role in context -> RBAC
		ar.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(d.Auth.Service))

			pr.With(rbac.Require(rbac.PermQuestionUpdate)).
				Get("/admin/questions", ExportQuestionsHandler(d.Questions))
			pr.With(rbac.Require(rbac.PermQuestionCreate)).
				Post("/questions", CreateQuestionHandler(d.Questions))
			pr.With(rbac.Require(rbac.PermQuestionUpdate)).
				Put("/questions/{questionID}", UpdateQuestionHandler(d.Questions))
			pr.With(rbac.Require(rbac.PermQuestionDelete)).
				Delete("/questions/{questionID}", DeleteQuestionHandler(d.Questions))
			pr.With(rbac.Require(rbac.PermQuestionCreate)).
				Post("/admin/questions/import", ImportQuestionsHandler(d.Questions))

			if d.Blobs != nil {
				pr.Route("/admin/snapshots", func(sr chi.Router) {
					sr.Use(rbac.Require(rbac.PermQuestionUpdate))
					sr.Post("/", CreateSnapshotHandler(d.Questions, d.Blobs))
					sr.Get("/", ListSnapshotsHandler(d.Blobs))
					sr.Get("/{name}", GetSnapshotHandler(d.Blobs))
				})
			}

			pr.With(rbac.Require(rbac.PermResultViewAll)).
				Get("/results", ResultsRangeHandler(d.Service))
			pr.With(rbac.Require(rbac.PermResultDelete)).
				Delete("/results/{resultID}", DeleteResultHandler(d.Service))

			if d.Events != nil {
				pr.With(rbac.RequireAny(rbac.PermEventsRead, rbac.PermResultViewAll)).
					Get("/events", EventsHandler(d.Events))
			}
		})
	})

	if d.Auth != nil {
		r.Post("/auth/login", auth.LoginHandler(d.Auth.Service, d.Auth.Accounts...))
	}
}
