// Package seed ships the starter question bank.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

//go:embed questions.yaml
var bank []byte

type entry struct {
	Text        string   `yaml:"text"`
	Options     []string `yaml:"options"`
	Answer      string   `yaml:"answer"`
	Category    string   `yaml:"category"`
	Difficulty  string   `yaml:"difficulty"`
	Explanation string   `yaml:"explanation,omitempty"`
}

// Parse decodes a YAML question list and validates every entry.
func Parse(data []byte) ([]quiz.Question, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: parse question bank: %v", quiz.ErrInvalid, err)
	}
	out := make([]quiz.Question, 0, len(entries))
	for i, e := range entries {
		if len(e.Options) != 4 {
			return nil, fmt.Errorf("%w: question %d: want 4 options, got %d", quiz.ErrInvalid, i+1, len(e.Options))
		}
		q := quiz.Question{
			Text:          e.Text,
			OptionA:       e.Options[0],
			OptionB:       e.Options[1],
			OptionC:       e.Options[2],
			OptionD:       e.Options[3],
			CorrectAnswer: quiz.Answer(e.Answer),
			Category:      e.Category,
			Difficulty:    quiz.Difficulty(e.Difficulty),
			Explanation:   e.Explanation,
		}
		q.Normalize()
		if err := quiz.Check(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// Default returns the embedded bank.
func Default() ([]quiz.Question, error) { return Parse(bank) }

// Load inserts qs when the store holds no questions yet. It returns the
// number inserted.
func Load(ctx context.Context, store quiz.QuestionStore, qs []quiz.Question) (int, error) {
	n, err := store.CountQuestions(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i, q := range qs {
		if _, err := store.CreateQuestion(ctx, q); err != nil {
			return i, fmt.Errorf("seed question %d: %w", i+1, err)
		}
	}
	log.Printf("seeded %d questions", len(qs))
	return len(qs), nil
}

// Marshal writes qs in the same YAML layout Parse reads.
func Marshal(qs []quiz.Question) ([]byte, error) {
	entries := make([]entry, len(qs))
	for i, q := range qs {
		entries[i] = entry{
			Text:        q.Text,
			Options:     []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD},
			Answer:      string(q.CorrectAnswer),
			Category:    q.Category,
			Difficulty:  string(q.Difficulty),
			Explanation: q.Explanation,
		}
	}
	return yaml.Marshal(entries)
}

// Import inserts every question in qs regardless of what the store holds.
func Import(ctx context.Context, store quiz.QuestionStore, qs []quiz.Question) ([]quiz.Question, error) {
	out := make([]quiz.Question, 0, len(qs))
	for i, q := range qs {
		q.ID = 0
		created, err := store.CreateQuestion(ctx, q)
		if err != nil {
			return out, fmt.Errorf("import question %d: %w", i+1, err)
		}
		out = append(out, created)
	}
	return out, nil
}
