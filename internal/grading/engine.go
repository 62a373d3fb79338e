package grading

import (
	"strings"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Outcome is the tally of one scored attempt.
type Outcome struct {
	Total     int
	Correct   int
	Incorrect int
	Score     float64 // percentage, 0..100
}

// Score tallies answers against the ordered question list. A question with
// no recorded answer counts as incorrect.
func Score(questions []quiz.Question, answers map[int64]quiz.Answer) Outcome {
	out := Outcome{Total: len(questions)}
	for _, q := range questions {
		if q.IsCorrect(answers[q.ID]) {
			out.Correct++
		}
	}
	out.Incorrect = out.Total - out.Correct
	if out.Total > 0 {
		out.Score = float64(out.Correct) / float64(out.Total) * 100
	}
	return out
}

// Engine options

type Option func(*config)

type config struct {
	SlowPace       int64   // avg seconds per question above which pacing is "slow"
	FastPace       int64   // avg seconds per question below which pacing is "fast"
	RemediateBelow float64 // score under which study topics are suggested
}

func WithPacing(slow, fast int64) Option {
	return func(c *config) { c.SlowPace, c.FastPace = slow, fast }
}
func WithRemediationBelow(score float64) Option {
	return func(c *config) { c.RemediateBelow = score }
}

// Engine scores attempts and writes feedback text.
type Engine struct {
	cfg config
}

func NewEngine(opts ...Option) *Engine {
	cfg := config{
		SlowPace:       120,
		FastPace:       30,
		RemediateBelow: 70,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine{cfg: cfg}
}

type tier struct {
	min  float64
	text string
}

var performanceTiers = []tier{
	{90, "Excellent work! You have a strong grasp of Computer Science concepts."},
	{80, "Great job! You performed very well."},
	{70, "Good work! You have a solid understanding."},
	{60, "Fair performance. Consider reviewing the topics you missed."},
	{50, "You're getting there! More practice needed in key areas."},
}

const (
	fallbackPerformance = "Keep practicing! Focus on fundamental concepts."
	paceSlow            = "Take time to review questions carefully, but try to improve your speed."
	paceFast            = "Good speed! Make sure you're reading questions thoroughly."
	paceGood            = "Good time management!"
	remediation         = "Focus on: Data Structures, Algorithms, and Programming fundamentals."
)

// Feedback builds the text shown with a result. timeTaken is in seconds.
// Pacing uses integer seconds per question and is omitted when total is 0.
func (e *Engine) Feedback(score float64, total int, timeTaken int64) string {
	parts := make([]string, 0, 3)

	perf := fallbackPerformance
	for _, t := range performanceTiers {
		if score >= t.min {
			perf = t.text
			break
		}
	}
	parts = append(parts, perf)

	if total > 0 {
		avg := timeTaken / int64(total)
		switch {
		case avg > e.cfg.SlowPace:
			parts = append(parts, paceSlow)
		case avg < e.cfg.FastPace:
			parts = append(parts, paceFast)
		default:
			parts = append(parts, paceGood)
		}
	}

	if score < e.cfg.RemediateBelow {
		parts = append(parts, remediation)
	}
	return strings.Join(parts, " ")
}

// Evaluate scores an attempt and fills the result fields derived from it.
func (e *Engine) Evaluate(questions []quiz.Question, answers map[int64]quiz.Answer, timeTaken int64) quiz.Result {
	o := Score(questions, answers)
	return quiz.Result{
		TotalQuestions:   o.Total,
		CorrectAnswers:   o.Correct,
		IncorrectAnswers: o.Incorrect,
		Score:            o.Score,
		TimeTaken:        timeTaken,
		Feedback:         e.Feedback(o.Score, o.Total, timeTaken),
	}
}

var gradeTiers = []struct {
	min   float64
	grade string
}{
	{90, "A+"},
	{80, "A"},
	{70, "B+"},
	{60, "B"},
	{50, "C+"},
	{40, "C"},
}

// Grade maps a percentage to a letter grade.
func Grade(score float64) string {
	for _, g := range gradeTiers {
		if score >= g.min {
			return g.grade
		}
	}
	return "F"
}
