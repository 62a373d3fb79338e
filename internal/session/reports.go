package session

import (
	"context"
	"log"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const listLimit = 10

type Landing struct {
	QuestionCount int64    `json:"question_count"`
	Categories    []string `json:"categories"`
}

func (s *Service) LandingInfo(ctx context.Context) (Landing, error) {
	n, err := s.questions.CountQuestions(ctx)
	if err != nil {
		return Landing{}, err
	}
	cats, err := s.questions.Categories(ctx)
	if err != nil {
		return Landing{}, err
	}
	return Landing{QuestionCount: n, Categories: cats}, nil
}

type SetupOptions struct {
	Categories   []string          `json:"categories"`
	Difficulties []quiz.Difficulty `json:"difficulties"`
	DefaultCount int               `json:"default_count"`
}

func (s *Service) SetupOptions(ctx context.Context) (SetupOptions, error) {
	cats, err := s.questions.Categories(ctx)
	if err != nil {
		return SetupOptions{}, err
	}
	diffs, err := s.questions.Difficulties(ctx)
	if err != nil {
		return SetupOptions{}, err
	}
	return SetupOptions{Categories: cats, Difficulties: diffs, DefaultCount: s.defaultCount}, nil
}

// ResultView is a result as shown after submission.
type ResultView struct {
	quiz.Result
	Grade       string `json:"grade"`
	TimeMinutes int64  `json:"time_minutes"`
	TimeSeconds int64  `json:"time_seconds"`
}

func viewOf(r quiz.Result) ResultView {
	return ResultView{
		Result:      r,
		Grade:       grading.Grade(r.Score),
		TimeMinutes: r.TimeTaken / 60,
		TimeSeconds: r.TimeTaken % 60,
	}
}

func (s *Service) GetResult(ctx context.Context, id int64) (ResultView, error) {
	r, err := s.results.GetResult(ctx, id)
	if err != nil {
		return ResultView{}, err
	}
	return viewOf(r), nil
}

type Overview struct {
	quiz.Stats
	TotalQuestions int64 `json:"total_questions"`
	TotalStudents  int   `json:"total_students"`
}

type Statistics struct {
	Stats          Overview             `json:"stats"`
	TopScores      []quiz.Result        `json:"top_scores"`
	RecentAttempts []quiz.Result        `json:"recent_attempts"`
	CategoryStats  []quiz.CategoryStats `json:"category_stats"`
}

func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	var out Statistics
	st, err := s.results.Stats(ctx)
	if err != nil {
		return out, err
	}
	nq, err := s.questions.CountQuestions(ctx)
	if err != nil {
		return out, err
	}
	emails, err := s.results.StudentEmails(ctx)
	if err != nil {
		return out, err
	}
	out.Stats = Overview{Stats: st, TotalQuestions: nq, TotalStudents: len(emails)}

	if out.TopScores, err = s.results.TopScores(ctx, quiz.ResultListOpts{Limit: listLimit}); err != nil {
		return out, err
	}
	if out.RecentAttempts, err = s.results.RecentAttempts(ctx, quiz.ResultListOpts{Limit: listLimit}); err != nil {
		return out, err
	}
	if out.CategoryStats, err = s.results.StatsByCategory(ctx); err != nil {
		return out, err
	}
	return out, nil
}

type StudentResults struct {
	StudentEmail string            `json:"student_email"`
	Results      []quiz.Result     `json:"results"`
	Stats        quiz.StudentStats `json:"stats"`
}

// ResultsForStudent lists a student's results, newest first, with a summary.
func (s *Service) ResultsForStudent(ctx context.Context, email string) (StudentResults, error) {
	rs, err := s.results.ResultsByEmail(ctx, email)
	if err != nil {
		return StudentResults{}, err
	}
	return StudentResults{StudentEmail: email, Results: rs, Stats: studentStats(rs)}, nil
}

func (s *Service) StudentStats(ctx context.Context, email string) (quiz.StudentStats, error) {
	rs, err := s.results.ResultsByEmail(ctx, email)
	if err != nil {
		return quiz.StudentStats{}, err
	}
	return studentStats(rs), nil
}

// studentStats expects rs newest first.
func studentStats(rs []quiz.Result) quiz.StudentStats {
	st := quiz.StudentStats{Attempts: len(rs)}
	if len(rs) == 0 {
		return st
	}
	var sum float64
	for i, r := range rs {
		sum += r.Score
		if i == 0 || r.Score > st.Best {
			st.Best = r.Score
		}
	}
	st.Average = sum / float64(len(rs))
	latest := rs[0].AttemptedAt
	st.LatestAttempt = &latest
	return st
}

func (s *Service) SearchByName(ctx context.Context, name string) ([]quiz.Result, error) {
	return s.results.ResultsByName(ctx, name)
}

func (s *Service) ResultsBetween(ctx context.Context, from, to time.Time) ([]quiz.Result, error) {
	return s.results.ResultsBetween(ctx, from, to)
}

func (s *Service) DeleteResult(ctx context.Context, id int64) error {
	if err := s.results.DeleteResult(ctx, id); err != nil {
		return err
	}
	if s.recorder != nil {
		if err := s.recorder.ResultDeleted(ctx, id); err != nil {
			log.Printf("result %d: event log: %v", id, err)
		}
	}
	return nil
}
