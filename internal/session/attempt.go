package session

import (
	"errors"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var (
	ErrSessionExpired  = errors.New("quiz session expired")
	ErrAlreadyComplete = errors.New("all questions answered")
	ErrUnknownQuestion = errors.New("question is not part of this attempt")
	ErrOutOfOrder      = errors.New("question has not been reached yet")
)

type State string

const (
	StateActive   State = "active"
	StateComplete State = "complete"
)

// Attempt is an in-progress quiz owned by one browser session.
type Attempt struct {
	ID           string
	StudentName  string
	StudentEmail string
	Category     string // label as chosen at setup, "All" included
	Questions    []quiz.Question
	Index        int
	Answers      map[int64]quiz.Answer
	StartedAt    time.Time
}

func (a *Attempt) State() State {
	if a.Index >= len(a.Questions) {
		return StateComplete
	}
	return StateActive
}

// Current returns the question at the cursor.
func (a *Attempt) Current() (quiz.Question, bool) {
	if a.Index < 0 || a.Index >= len(a.Questions) {
		return quiz.Question{}, false
	}
	return a.Questions[a.Index], true
}

// Record stores an answer. Answering the current question advances the
// cursor; answering one already passed overwrites it in place.
func (a *Attempt) Record(questionID int64, ans quiz.Answer) error {
	pos := -1
	for i, q := range a.Questions {
		if q.ID == questionID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return ErrUnknownQuestion
	}
	if pos > a.Index {
		return ErrOutOfOrder
	}
	if a.Answers == nil {
		a.Answers = map[int64]quiz.Answer{}
	}
	a.Answers[questionID] = ans
	if pos == a.Index {
		a.Index++
	}
	return nil
}

func (a Attempt) clone() Attempt {
	qs := make([]quiz.Question, len(a.Questions))
	copy(qs, a.Questions)
	a.Questions = qs
	ans := make(map[int64]quiz.Answer, len(a.Answers))
	for k, v := range a.Answers {
		ans[k] = v
	}
	a.Answers = ans
	return a
}
