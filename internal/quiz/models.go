package quiz

import (
	"fmt"
	"strings"
	"time"
)

// All is the filter sentinel meaning "no constraint".
const All = "All"

// Answer is an option label of a multiple-choice question.
type Answer string

const (
	AnswerA Answer = "A"
	AnswerB Answer = "B"
	AnswerC Answer = "C"
	AnswerD Answer = "D"
)

// ParseAnswer accepts a label in any case, surrounding space ignored.
func ParseAnswer(s string) (Answer, error) {
	switch a := Answer(strings.ToUpper(strings.TrimSpace(s))); a {
	case AnswerA, AnswerB, AnswerC, AnswerD:
		return a, nil
	}
	return "", fmt.Errorf("%w: answer %q", ErrInvalid, s)
}

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Difficulties lists the levels from easiest to hardest.
var Difficulties = []Difficulty{Easy, Medium, Hard}

func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: difficulty %q", ErrInvalid, s)
}

func (d Difficulty) rank() int {
	for i, x := range Difficulties {
		if x == d {
			return i
		}
	}
	return len(Difficulties)
}

type Question struct {
	ID            int64      `json:"id"`
	Text          string     `json:"question_text" validate:"required,max=1000"`
	OptionA       string     `json:"option_a" validate:"required"`
	OptionB       string     `json:"option_b" validate:"required"`
	OptionC       string     `json:"option_c" validate:"required"`
	OptionD       string     `json:"option_d" validate:"required"`
	CorrectAnswer Answer     `json:"correct_answer,omitempty" validate:"required,oneof=A B C D"`
	Category      string     `json:"category" validate:"required,max=255"`
	Difficulty    Difficulty `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Explanation   string     `json:"explanation,omitempty" validate:"max=500"`
}

// Redacted hides the answer key and explanation from students.
func (q Question) Redacted() Question {
	q.CorrectAnswer = ""
	q.Explanation = ""
	return q
}

// IsCorrect compares case-insensitively; an empty answer is never correct.
func (q Question) IsCorrect(a Answer) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(string(a)), string(q.CorrectAnswer))
}

type Result struct {
	ID               int64     `json:"id"`
	StudentName      string    `json:"student_name"`
	StudentEmail     string    `json:"student_email"`
	TotalQuestions   int       `json:"total_questions"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	Score            float64   `json:"score"`
	AttemptedAt      time.Time `json:"attempt_date"`
	TimeTaken        int64     `json:"time_taken"` // seconds
	Category         string    `json:"category"`
	Feedback         string    `json:"feedback"`
}

// Stats aggregates scores over a set of results.
type Stats struct {
	Attempts int64   `json:"total_attempts"`
	Average  float64 `json:"average_score"`
	Highest  float64 `json:"highest_score"`
	Lowest   float64 `json:"lowest_score"`
}

type CategoryStats struct {
	Category string `json:"category"`
	Stats
}

type StudentStats struct {
	Attempts      int        `json:"total_attempts"`
	Average       float64    `json:"average_score"`
	Best          float64    `json:"best_score"`
	LatestAttempt *time.Time `json:"latest_attempt"`
}

// Specific reports whether a filter value constrains the selection.
func Specific(filter string) bool {
	f := strings.TrimSpace(filter)
	return f != "" && !strings.EqualFold(f, All)
}
