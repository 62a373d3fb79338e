package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Check validates struct tags on v. Field failures are reported together
// and wrap ErrInvalid.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return err
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// Normalize canonicalizes labels so "b"/"hard" pass the enum tags.
func (q *Question) Normalize() {
	q.Text = strings.TrimSpace(q.Text)
	q.Category = strings.TrimSpace(q.Category)
	if a, err := ParseAnswer(string(q.CorrectAnswer)); err == nil {
		q.CorrectAnswer = a
	}
	if d, err := ParseDifficulty(string(q.Difficulty)); err == nil {
		q.Difficulty = d
	}
}
