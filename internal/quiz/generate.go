package quiz

import (
	"context"
	"fmt"
	"strings"
)

// Generator selects the questions of a new attempt.
type Generator struct {
	store QuestionStore
}

func NewGenerator(store QuestionStore) *Generator {
	return &Generator{store: store}
}

// Generate applies the selection policy:
//   - category and difficulty both set: every question matching both
//   - category only: random sample of the category
//   - difficulty only: random sample of the difficulty
//   - neither: random sample of the whole bank
//
// The result is then capped at count. An empty slice is not an error; the
// caller decides whether to reject the request.
func (g *Generator) Generate(ctx context.Context, category, difficulty string, count int) ([]Question, error) {
	if count < 0 {
		count = 0
	}
	category = strings.TrimSpace(category)

	var diff Difficulty
	if Specific(difficulty) {
		d, err := ParseDifficulty(difficulty)
		if err != nil {
			return nil, err
		}
		diff = d
	}

	var (
		qs  []Question
		err error
	)
	switch {
	case Specific(category) && diff != "":
		// not capped by the query; the final truncation applies
		qs, err = g.store.QuestionsByCategoryAndDifficulty(ctx, category, diff)
	case Specific(category):
		qs, err = g.store.RandomQuestionsByCategory(ctx, category, count)
	case diff != "":
		qs, err = g.store.RandomQuestionsByDifficulty(ctx, diff, count)
	default:
		qs, err = g.store.RandomQuestions(ctx, count)
	}
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	if len(qs) > count {
		qs = qs[:count]
	}
	return qs, nil
}
