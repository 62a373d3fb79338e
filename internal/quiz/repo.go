package quiz

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalid        = errors.New("invalid input")
	ErrEmptySelection = errors.New("no questions available for the selected criteria")
)

type QuestionStore interface {
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	GetQuestion(ctx context.Context, id int64) (Question, error)
	ListQuestions(ctx context.Context) ([]Question, error)
	UpdateQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestion(ctx context.Context, id int64) error

	QuestionsByCategory(ctx context.Context, category string) ([]Question, error)
	QuestionsByDifficulty(ctx context.Context, d Difficulty) ([]Question, error)
	QuestionsByCategoryAndDifficulty(ctx context.Context, category string, d Difficulty) ([]Question, error)

	// Random* return at most limit questions in random order.
	RandomQuestions(ctx context.Context, limit int) ([]Question, error)
	RandomQuestionsByCategory(ctx context.Context, category string, limit int) ([]Question, error)
	RandomQuestionsByDifficulty(ctx context.Context, d Difficulty, limit int) ([]Question, error)

	Categories(ctx context.Context) ([]string, error)
	Difficulties(ctx context.Context) ([]Difficulty, error)
	CountQuestions(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
	CountByDifficulty(ctx context.Context, d Difficulty) (int64, error)
	QuestionExists(ctx context.Context, id int64) (bool, error)
}

// ResultListOpts bounds list queries; Limit <= 0 means no limit.
type ResultListOpts struct {
	Limit int
}

type ResultStore interface {
	CreateResult(ctx context.Context, r Result) (Result, error)
	GetResult(ctx context.Context, id int64) (Result, error)
	ListResults(ctx context.Context) ([]Result, error)
	DeleteResult(ctx context.Context, id int64) error

	// ResultsByEmail is newest first.
	ResultsByEmail(ctx context.Context, email string) ([]Result, error)
	ResultsByName(ctx context.Context, name string) ([]Result, error)
	ResultsByCategory(ctx context.Context, category string) ([]Result, error)
	ResultsBetween(ctx context.Context, from, to time.Time) ([]Result, error)
	TopScores(ctx context.Context, opts ResultListOpts) ([]Result, error)
	RecentAttempts(ctx context.Context, opts ResultListOpts) ([]Result, error)

	Stats(ctx context.Context) (Stats, error)
	StatsByCategory(ctx context.Context) ([]CategoryStats, error)
	BestScoreByEmail(ctx context.Context, email string) (float64, bool, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
	StudentEmails(ctx context.Context) ([]string, error)
}
