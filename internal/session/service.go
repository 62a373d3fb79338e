package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// ResultRecorder is notified after results are persisted or removed.
type ResultRecorder interface {
	ResultRecorded(ctx context.Context, r quiz.Result) error
	ResultDeleted(ctx context.Context, id int64) error
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithTTL(ttl time.Duration) Option      { return func(s *Service) { s.ttl = ttl } }
func WithRecorder(r ResultRecorder) Option  { return func(s *Service) { s.recorder = r } }
func WithDefaultCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultCount = n
		}
	}
}

// Service drives the quiz flow: setup, one question at a time, submit.
type Service struct {
	questions quiz.QuestionStore
	results   quiz.ResultStore
	attempts  AttemptStore
	gen       *quiz.Generator
	engine    *grading.Engine
	recorder  ResultRecorder

	ttl          time.Duration
	defaultCount int
	now          func() time.Time
}

func NewService(questions quiz.QuestionStore, results quiz.ResultStore, attempts AttemptStore, engine *grading.Engine, opts ...Option) *Service {
	if engine == nil {
		engine = grading.NewEngine()
	}
	s := &Service{
		questions:    questions,
		results:      results,
		attempts:     attempts,
		gen:          quiz.NewGenerator(questions),
		engine:       engine,
		ttl:          2 * time.Hour,
		defaultCount: 20,
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StartRequest carries the setup form.
type StartRequest struct {
	StudentName  string
	StudentEmail string
	Category     string
	Difficulty   string
	Count        int
}

func (s *Service) StartAttempt(ctx context.Context, req StartRequest) (Attempt, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = quiz.All
	}
	difficulty := strings.TrimSpace(req.Difficulty)
	if difficulty == "" {
		difficulty = quiz.All
	}
	count := req.Count
	if count <= 0 {
		count = s.defaultCount
	}

	qs, err := s.gen.Generate(ctx, category, difficulty, count)
	if err != nil {
		return Attempt{}, err
	}
	if len(qs) == 0 {
		return Attempt{}, quiz.ErrEmptySelection
	}

	a := Attempt{
		ID:           uuid.NewString(),
		StudentName:  strings.TrimSpace(req.StudentName),
		StudentEmail: strings.TrimSpace(req.StudentEmail),
		Category:     category,
		Questions:    qs,
		Answers:      map[int64]quiz.Answer{},
		StartedAt:    s.now().UTC(),
	}
	if err := s.attempts.Put(ctx, a); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

// load fetches a live attempt; missing or stale handles read as expired.
func (s *Service) load(ctx context.Context, id string) (Attempt, error) {
	if id == "" {
		return Attempt{}, ErrSessionExpired
	}
	a, err := s.attempts.Get(ctx, id)
	if errors.Is(err, errNoAttempt) {
		return Attempt{}, ErrSessionExpired
	}
	if err != nil {
		return Attempt{}, err
	}
	if s.ttl > 0 && s.now().Sub(a.StartedAt) > s.ttl {
		_ = s.attempts.Delete(ctx, id)
		return Attempt{}, ErrSessionExpired
	}
	return a, nil
}

// QuestionView is what a student sees for the current question.
type QuestionView struct {
	Question quiz.Question `json:"question"`
	Position int           `json:"position"` // 1-based
	Total    int           `json:"total"`
	Progress int           `json:"progress"` // percent
}

func (s *Service) CurrentQuestion(ctx context.Context, attemptID string) (QuestionView, error) {
	a, err := s.load(ctx, attemptID)
	if err != nil {
		return QuestionView{}, err
	}
	q, ok := a.Current()
	if !ok {
		return QuestionView{}, ErrAlreadyComplete
	}
	total := len(a.Questions)
	return QuestionView{
		Question: q.Redacted(),
		Position: a.Index + 1,
		Total:    total,
		Progress: (a.Index + 1) * 100 / total,
	}, nil
}

// Progress reports the attempt after an answer was recorded.
type Progress struct {
	State    State `json:"state"`
	Answered int   `json:"position"`
	Total    int   `json:"total"`
}

func (s *Service) SubmitAnswer(ctx context.Context, attemptID string, questionID int64, answer string) (Progress, error) {
	ans, err := quiz.ParseAnswer(answer)
	if err != nil {
		return Progress{}, err
	}
	a, err := s.load(ctx, attemptID)
	if err != nil {
		return Progress{}, err
	}
	if err := a.Record(questionID, ans); err != nil {
		return Progress{}, err
	}
	if err := s.attempts.Put(ctx, a); err != nil {
		return Progress{}, err
	}
	return Progress{State: a.State(), Answered: a.Index, Total: len(a.Questions)}, nil
}

// Finalize scores the attempt, stores the result and discards the attempt.
// Unanswered questions count as incorrect.
func (s *Service) Finalize(ctx context.Context, attemptID string) (quiz.Result, error) {
	a, err := s.load(ctx, attemptID)
	if err != nil {
		return quiz.Result{}, err
	}
	now := s.now().UTC()
	elapsed := int64(now.Sub(a.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	res := s.engine.Evaluate(a.Questions, a.Answers, elapsed)
	res.StudentName = a.StudentName
	res.StudentEmail = a.StudentEmail
	res.Category = a.Category
	res.AttemptedAt = now

	// Consume the attempt first so a retried submit cannot score it twice.
	if err := s.attempts.Delete(ctx, a.ID); err != nil {
		return quiz.Result{}, fmt.Errorf("consume attempt: %w", err)
	}
	res, err = s.results.CreateResult(ctx, res)
	if err != nil {
		if perr := s.attempts.Put(ctx, a); perr != nil {
			log.Printf("attempt %s: restore after failed save: %v", a.ID, perr)
		}
		return quiz.Result{}, fmt.Errorf("save result: %w", err)
	}
	if s.recorder != nil {
		if err := s.recorder.ResultRecorded(ctx, res); err != nil {
			log.Printf("result %d: event log: %v", res.ID, err)
		}
	}
	return res, nil
}

// Sweep drops attempts that outlived the TTL.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	return s.attempts.DeleteStartedBefore(ctx, s.now().Add(-s.ttl))
}
