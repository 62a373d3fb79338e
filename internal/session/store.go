package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var errNoAttempt = errors.New("attempt not found")

// AttemptStore keeps in-progress attempts keyed by handle.
type AttemptStore interface {
	Put(ctx context.Context, a Attempt) error
	Get(ctx context.Context, id string) (Attempt, error)
	Delete(ctx context.Context, id string) error
	// DeleteStartedBefore drops attempts older than cutoff and reports how many.
	DeleteStartedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryStore is the default AttemptStore; attempts are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	attempts map[string]Attempt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{attempts: map[string]Attempt{}}
}

func (m *MemoryStore) Put(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = a.clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, errNoAttempt
	}
	return a.clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, id)
	return nil
}

func (m *MemoryStore) DeleteStartedBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, a := range m.attempts {
		if a.StartedAt.Before(cutoff) {
			delete(m.attempts, id)
			n++
		}
	}
	return n, nil
}

// SQLStore persists attempts in the attempts table so they survive restarts
// and can be shared by several instances behind a load balancer.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Put(ctx context.Context, a Attempt) error {
	qs, err := json.Marshal(a.Questions)
	if err != nil {
		return err
	}
	if a.Answers == nil {
		a.Answers = map[int64]quiz.Answer{}
	}
	ans, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id, student_name, student_email, category, questions_json, answers_json, current_index, started_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
		  answers_json = excluded.answers_json,
		  current_index = excluded.current_index`,
		a.ID, a.StudentName, a.StudentEmail, a.Category, string(qs), string(ans), a.Index, a.StartedAt.Unix())
	if err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Attempt, error) {
	var (
		a          Attempt
		qs, ans    string
		startedSec int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, student_name, student_email, category,
		questions_json, answers_json, current_index, started_at
		FROM attempts WHERE id=$1`, id).
		Scan(&a.ID, &a.StudentName, &a.StudentEmail, &a.Category, &qs, &ans, &a.Index, &startedSec)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, errNoAttempt
	}
	if err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(qs), &a.Questions); err != nil {
		return Attempt{}, fmt.Errorf("decode attempt questions: %w", err)
	}
	a.Answers = map[int64]quiz.Answer{}
	if err := json.Unmarshal([]byte(ans), &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("decode attempt answers: %w", err)
	}
	a.StartedAt = time.Unix(startedSec, 0).UTC()
	return a, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM attempts WHERE id=$1`, id)
	return err
}

func (s *SQLStore) DeleteStartedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attempts WHERE started_at < $1`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
