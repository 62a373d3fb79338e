package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

var (
	_ QuestionStore = (*SQLStore)(nil)
	_ ResultStore   = (*SQLStore)(nil)
)

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const questionCols = `id,question_text,option_a,option_b,option_c,option_d,correct_answer,category,difficulty,explanation`

func scanQuestion(rs rowScanner) (Question, error) {
	var q Question
	var ans, diff string
	if err := rs.Scan(&q.ID, &q.Text, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
		&ans, &q.Category, &diff, &q.Explanation); err != nil {
		return Question{}, err
	}
	q.CorrectAnswer = Answer(ans)
	q.Difficulty = Difficulty(diff)
	return q, nil
}

func (s *SQLStore) queryQuestions(ctx context.Context, query string, args ...any) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Question, 0)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	err := s.db.QueryRowContext(ctx, `INSERT INTO questions
		(question_text,option_a,option_b,option_c,option_d,correct_answer,category,difficulty,explanation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id`,
		q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
		string(q.CorrectAnswer), q.Category, string(q.Difficulty), q.Explanation).Scan(&q.ID)
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return q, err
}

func (s *SQLStore) ListQuestions(ctx context.Context) ([]Question, error) {
	return s.queryQuestions(ctx, `SELECT `+questionCols+` FROM questions ORDER BY id`)
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, q Question) (Question, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET
		question_text=$1, option_a=$2, option_b=$3, option_c=$4, option_d=$5,
		correct_answer=$6, category=$7, difficulty=$8, explanation=$9
		WHERE id=$10`,
		q.Text, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
		string(q.CorrectAnswer), q.Category, string(q.Difficulty), q.Explanation, q.ID)
	if err != nil {
		return Question{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Question{}, fmt.Errorf("question %d: %w", q.ID, ErrNotFound)
	}
	return q, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) QuestionsByCategory(ctx context.Context, category string) ([]Question, error) {
	return s.queryQuestions(ctx, `SELECT `+questionCols+` FROM questions WHERE category=$1 ORDER BY id`, category)
}

func (s *SQLStore) QuestionsByDifficulty(ctx context.Context, d Difficulty) ([]Question, error) {
	return s.queryQuestions(ctx, `SELECT `+questionCols+` FROM questions WHERE difficulty=$1 ORDER BY id`, string(d))
}

func (s *SQLStore) QuestionsByCategoryAndDifficulty(ctx context.Context, category string, d Difficulty) ([]Question, error) {
	return s.queryQuestions(ctx, `SELECT `+questionCols+` FROM questions
		WHERE category=$1 AND difficulty=$2 ORDER BY id`, category, string(d))
}

// RANDOM() is understood by both sqlite and postgres.
func (s *SQLStore) RandomQuestions(ctx context.Context, limit int) ([]Question, error) {
	return s.queryQuestions(ctx, `SELECT `+questionCols+` FROM questions ORDER BY RANDOM() LIMIT $1`, limit)
}

func (s *SQLStore) RandomQuestionsByCategory(ctx context.Context, category string, limit int) ([]Question, error) {
	return s.queryQuestions(ctx, `SELECT `+questionCols+` FROM questions
		WHERE category=$1 ORDER BY RANDOM() LIMIT $2`, category, limit)
}

func (s *SQLStore) RandomQuestionsByDifficulty(ctx context.Context, d Difficulty, limit int) ([]Question, error) {
	return s.queryQuestions(ctx, `SELECT `+questionCols+` FROM questions
		WHERE difficulty=$1 ORDER BY RANDOM() LIMIT $2`, string(d), limit)
}

func (s *SQLStore) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLStore) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT category FROM questions WHERE category <> '' ORDER BY category`)
}

func (s *SQLStore) Difficulties(ctx context.Context) ([]Difficulty, error) {
	vals, err := s.distinct(ctx, `SELECT DISTINCT difficulty FROM questions`)
	if err != nil {
		return nil, err
	}
	out := make([]Difficulty, 0, len(vals))
	for _, v := range vals {
		out = append(out, Difficulty(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rank() < out[j].rank() })
	return out, nil
}

func (s *SQLStore) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (s *SQLStore) CountQuestions(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM questions`)
}

func (s *SQLStore) CountByCategory(ctx context.Context, category string) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM questions WHERE category=$1`, category)
}

func (s *SQLStore) CountByDifficulty(ctx context.Context, d Difficulty) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM questions WHERE difficulty=$1`, string(d))
}

func (s *SQLStore) QuestionExists(ctx context.Context, id int64) (bool, error) {
	n, err := s.count(ctx, `SELECT COUNT(*) FROM questions WHERE id=$1`, id)
	return n > 0, err
}

// ---- results ----

const resultCols = `id,student_name,student_email,total_questions,correct_answers,incorrect_answers,score,attempt_date,time_taken,category,feedback`

func scanResult(rs rowScanner) (Result, error) {
	var r Result
	var at int64
	if err := rs.Scan(&r.ID, &r.StudentName, &r.StudentEmail, &r.TotalQuestions, &r.CorrectAnswers,
		&r.IncorrectAnswers, &r.Score, &at, &r.TimeTaken, &r.Category, &r.Feedback); err != nil {
		return Result{}, err
	}
	r.AttemptedAt = time.Unix(at, 0).UTC()
	return r, nil
}

func (s *SQLStore) queryResults(ctx context.Context, query string, args ...any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Result, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateResult(ctx context.Context, r Result) (Result, error) {
	if r.AttemptedAt.IsZero() {
		r.AttemptedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx, `INSERT INTO quiz_results
		(student_name,student_email,total_questions,correct_answers,incorrect_answers,score,attempt_date,time_taken,category,feedback)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`,
		r.StudentName, r.StudentEmail, r.TotalQuestions, r.CorrectAnswers, r.IncorrectAnswers,
		r.Score, r.AttemptedAt.Unix(), r.TimeTaken, r.Category, r.Feedback).Scan(&r.ID)
	if err != nil {
		return Result{}, fmt.Errorf("insert result: %w", err)
	}
	r.AttemptedAt = time.Unix(r.AttemptedAt.Unix(), 0).UTC()
	return r, nil
}

func (s *SQLStore) GetResult(ctx context.Context, id int64) (Result, error) {
	r, err := scanResult(s.db.QueryRowContext(ctx,
		`SELECT `+resultCols+` FROM quiz_results WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, fmt.Errorf("result %d: %w", id, ErrNotFound)
	}
	return r, err
}

func (s *SQLStore) ListResults(ctx context.Context) ([]Result, error) {
	return s.queryResults(ctx, `SELECT `+resultCols+` FROM quiz_results ORDER BY id`)
}

func (s *SQLStore) DeleteResult(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quiz_results WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("result %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) ResultsByEmail(ctx context.Context, email string) ([]Result, error) {
	return s.queryResults(ctx, `SELECT `+resultCols+` FROM quiz_results
		WHERE student_email=$1 ORDER BY attempt_date DESC, id DESC`, email)
}

// likeEscaper makes user input match literally inside LIKE ... ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *SQLStore) ResultsByName(ctx context.Context, name string) ([]Result, error) {
	return s.queryResults(ctx, `SELECT `+resultCols+` FROM quiz_results
		WHERE LOWER(student_name) LIKE '%' || LOWER($1) || '%' ESCAPE '\'
		ORDER BY attempt_date DESC, id DESC`, likeEscaper.Replace(name))
}

func (s *SQLStore) ResultsByCategory(ctx context.Context, category string) ([]Result, error) {
	return s.queryResults(ctx, `SELECT `+resultCols+` FROM quiz_results
		WHERE category=$1 ORDER BY attempt_date DESC, id DESC`, category)
}

func (s *SQLStore) ResultsBetween(ctx context.Context, from, to time.Time) ([]Result, error) {
	return s.queryResults(ctx, `SELECT `+resultCols+` FROM quiz_results
		WHERE attempt_date BETWEEN $1 AND $2 ORDER BY attempt_date, id`, from.Unix(), to.Unix())
}

func (s *SQLStore) TopScores(ctx context.Context, opts ResultListOpts) ([]Result, error) {
	q := `SELECT ` + resultCols + ` FROM quiz_results ORDER BY score DESC, attempt_date DESC, id DESC`
	if opts.Limit > 0 {
		return s.queryResults(ctx, q+` LIMIT $1`, opts.Limit)
	}
	return s.queryResults(ctx, q)
}

func (s *SQLStore) RecentAttempts(ctx context.Context, opts ResultListOpts) ([]Result, error) {
	q := `SELECT ` + resultCols + ` FROM quiz_results ORDER BY attempt_date DESC, id DESC`
	if opts.Limit > 0 {
		return s.queryResults(ctx, q+` LIMIT $1`, opts.Limit)
	}
	return s.queryResults(ctx, q)
}

func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*),
		COALESCE(AVG(score),0), COALESCE(MAX(score),0), COALESCE(MIN(score),0)
		FROM quiz_results`).Scan(&st.Attempts, &st.Average, &st.Highest, &st.Lowest)
	return st, err
}

func (s *SQLStore) StatsByCategory(ctx context.Context) ([]CategoryStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*), AVG(score), MAX(score), MIN(score)
		FROM quiz_results GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CategoryStats, 0)
	for rows.Next() {
		var cs CategoryStats
		if err := rows.Scan(&cs.Category, &cs.Attempts, &cs.Average, &cs.Highest, &cs.Lowest); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

func (s *SQLStore) BestScoreByEmail(ctx context.Context, email string) (float64, bool, error) {
	var best sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(score) FROM quiz_results WHERE student_email=$1`, email).Scan(&best)
	if err != nil {
		return 0, false, err
	}
	return best.Float64, best.Valid, nil
}

func (s *SQLStore) CountByEmail(ctx context.Context, email string) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM quiz_results WHERE student_email=$1`, email)
}

func (s *SQLStore) StudentEmails(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT student_email FROM quiz_results ORDER BY student_email`)
}
