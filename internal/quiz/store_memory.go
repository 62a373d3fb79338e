package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements QuestionStore and ResultStore on maps.
type MemoryStore struct {
	mu        sync.RWMutex
	questions map[int64]Question
	results   map[int64]Result
	nextQ     int64
	nextR     int64
}

var (
	_ QuestionStore = (*MemoryStore)(nil)
	_ ResultStore   = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions: map[int64]Question{},
		results:   map[int64]Result{},
	}
}

func (m *MemoryStore) CreateQuestion(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextQ++
	q.ID = m.nextQ
	m.questions[q.ID] = q
	return q, nil
}

func (m *MemoryStore) GetQuestion(_ context.Context, id int64) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return q, nil
}

func (m *MemoryStore) ListQuestions(_ context.Context) ([]Question, error) {
	return m.filterQuestions(func(Question) bool { return true }), nil
}

func (m *MemoryStore) UpdateQuestion(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[q.ID]; !ok {
		return Question{}, fmt.Errorf("question %d: %w", q.ID, ErrNotFound)
	}
	m.questions[q.ID] = q
	return q, nil
}

func (m *MemoryStore) DeleteQuestion(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	delete(m.questions, id)
	return nil
}

// filterQuestions returns matches ordered by id.
func (m *MemoryStore) filterQuestions(keep func(Question) bool) []Question {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Question, 0)
	for _, q := range m.questions {
		if keep(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) QuestionsByCategory(_ context.Context, category string) ([]Question, error) {
	return m.filterQuestions(func(q Question) bool { return q.Category == category }), nil
}

func (m *MemoryStore) QuestionsByDifficulty(_ context.Context, d Difficulty) ([]Question, error) {
	return m.filterQuestions(func(q Question) bool { return q.Difficulty == d }), nil
}

func (m *MemoryStore) QuestionsByCategoryAndDifficulty(_ context.Context, category string, d Difficulty) ([]Question, error) {
	return m.filterQuestions(func(q Question) bool { return q.Category == category && q.Difficulty == d }), nil
}

// sample shuffles (Fisher-Yates) and keeps at most limit.
func sample(qs []Question, limit int) []Question {
	rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	if limit >= 0 && limit < len(qs) {
		qs = qs[:limit]
	}
	return qs
}

func (m *MemoryStore) RandomQuestions(ctx context.Context, limit int) ([]Question, error) {
	qs, _ := m.ListQuestions(ctx)
	return sample(qs, limit), nil
}

func (m *MemoryStore) RandomQuestionsByCategory(ctx context.Context, category string, limit int) ([]Question, error) {
	qs, _ := m.QuestionsByCategory(ctx, category)
	return sample(qs, limit), nil
}

func (m *MemoryStore) RandomQuestionsByDifficulty(ctx context.Context, d Difficulty, limit int) ([]Question, error) {
	qs, _ := m.QuestionsByDifficulty(ctx, d)
	return sample(qs, limit), nil
}

func (m *MemoryStore) Categories(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, q := range m.questions {
		if q.Category != "" && !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) Difficulties(_ context.Context) ([]Difficulty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[Difficulty]bool{}
	out := make([]Difficulty, 0)
	for _, q := range m.questions {
		if !seen[q.Difficulty] {
			seen[q.Difficulty] = true
			out = append(out, q.Difficulty)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rank() < out[j].rank() })
	return out, nil
}

func (m *MemoryStore) CountQuestions(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.questions)), nil
}

func (m *MemoryStore) CountByCategory(ctx context.Context, category string) (int64, error) {
	qs, _ := m.QuestionsByCategory(ctx, category)
	return int64(len(qs)), nil
}

func (m *MemoryStore) CountByDifficulty(ctx context.Context, d Difficulty) (int64, error) {
	qs, _ := m.QuestionsByDifficulty(ctx, d)
	return int64(len(qs)), nil
}

func (m *MemoryStore) QuestionExists(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.questions[id]
	return ok, nil
}

// ---- results ----

func (m *MemoryStore) CreateResult(_ context.Context, r Result) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.AttemptedAt.IsZero() {
		r.AttemptedAt = time.Now().UTC()
	}
	m.nextR++
	r.ID = m.nextR
	m.results[r.ID] = r
	return r, nil
}

func (m *MemoryStore) GetResult(_ context.Context, id int64) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	if !ok {
		return Result{}, fmt.Errorf("result %d: %w", id, ErrNotFound)
	}
	return r, nil
}

func (m *MemoryStore) DeleteResult(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[id]; !ok {
		return fmt.Errorf("result %d: %w", id, ErrNotFound)
	}
	delete(m.results, id)
	return nil
}

func (m *MemoryStore) filterResults(keep func(Result) bool) []Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Result, 0)
	for _, r := range m.results {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func newestFirst(rs []Result) []Result {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].AttemptedAt.Equal(rs[j].AttemptedAt) {
			return rs[i].AttemptedAt.After(rs[j].AttemptedAt)
		}
		return rs[i].ID > rs[j].ID
	})
	return rs
}

func capResults(rs []Result, n int) []Result {
	if n > 0 && n < len(rs) {
		return rs[:n]
	}
	return rs
}

func (m *MemoryStore) ListResults(_ context.Context) ([]Result, error) {
	return m.filterResults(func(Result) bool { return true }), nil
}

func (m *MemoryStore) ResultsByEmail(_ context.Context, email string) ([]Result, error) {
	return newestFirst(m.filterResults(func(r Result) bool { return r.StudentEmail == email })), nil
}

func (m *MemoryStore) ResultsByName(_ context.Context, name string) ([]Result, error) {
	needle := strings.ToLower(name)
	return newestFirst(m.filterResults(func(r Result) bool {
		return strings.Contains(strings.ToLower(r.StudentName), needle)
	})), nil
}

func (m *MemoryStore) ResultsByCategory(_ context.Context, category string) ([]Result, error) {
	return newestFirst(m.filterResults(func(r Result) bool { return r.Category == category })), nil
}

func (m *MemoryStore) ResultsBetween(_ context.Context, from, to time.Time) ([]Result, error) {
	out := m.filterResults(func(r Result) bool {
		return !r.AttemptedAt.Before(from) && !r.AttemptedAt.After(to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].AttemptedAt.Before(out[j].AttemptedAt) })
	return out, nil
}

func (m *MemoryStore) TopScores(_ context.Context, opts ResultListOpts) ([]Result, error) {
	out := newestFirst(m.filterResults(func(Result) bool { return true }))
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return capResults(out, opts.Limit), nil
}

func (m *MemoryStore) RecentAttempts(_ context.Context, opts ResultListOpts) ([]Result, error) {
	return capResults(newestFirst(m.filterResults(func(Result) bool { return true })), opts.Limit), nil
}

func aggregate(rs []Result) Stats {
	var st Stats
	for i, r := range rs {
		st.Attempts++
		st.Average += r.Score
		if i == 0 || r.Score > st.Highest {
			st.Highest = r.Score
		}
		if i == 0 || r.Score < st.Lowest {
			st.Lowest = r.Score
		}
	}
	if st.Attempts > 0 {
		st.Average /= float64(st.Attempts)
	}
	return st
}

func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	return aggregate(m.filterResults(func(Result) bool { return true })), nil
}

func (m *MemoryStore) StatsByCategory(_ context.Context) ([]CategoryStats, error) {
	groups := map[string][]Result{}
	for _, r := range m.filterResults(func(Result) bool { return true }) {
		groups[r.Category] = append(groups[r.Category], r)
	}
	out := make([]CategoryStats, 0, len(groups))
	for c, rs := range groups {
		out = append(out, CategoryStats{Category: c, Stats: aggregate(rs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *MemoryStore) BestScoreByEmail(ctx context.Context, email string) (float64, bool, error) {
	rs, _ := m.ResultsByEmail(ctx, email)
	if len(rs) == 0 {
		return 0, false, nil
	}
	return aggregate(rs).Highest, true, nil
}

func (m *MemoryStore) CountByEmail(ctx context.Context, email string) (int64, error) {
	rs, _ := m.ResultsByEmail(ctx, email)
	return int64(len(rs)), nil
}

func (m *MemoryStore) StudentEmails(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, r := range m.filterResults(func(Result) bool { return true }) {
		if !seen[r.StudentEmail] {
			seen[r.StudentEmail] = true
			out = append(out, r.StudentEmail)
		}
	}
	sort.Strings(out)
	return out, nil
}
