package quiz_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var dbSeq atomic.Int64

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:quiztest%d?mode=memory&cache=shared", dbSeq.Add(1))
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// stores returns every backend so the same contract is checked on each.
func stores(t *testing.T) map[string]interface {
	quiz.QuestionStore
	quiz.ResultStore
} {
	return map[string]interface {
		quiz.QuestionStore
		quiz.ResultStore
	}{
		"memory": quiz.NewMemoryStore(),
		"sqlite": quiz.NewSQLStore(openSQLite(t), "sqlite"),
	}
}

func TestQuestionCRUD(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			q, err := st.CreateQuestion(ctx, quiz.Question{
				Text: "What is 2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "22",
				CorrectAnswer: quiz.AnswerB, Category: "Math", Difficulty: quiz.Easy,
				Explanation: "Basic arithmetic.",
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if q.ID == 0 {
				t.Fatal("id not assigned")
			}

			got, err := st.GetQuestion(ctx, q.ID)
			if err != nil || got != q {
				t.Fatalf("get = %+v, %v", got, err)
			}
			if ok, _ := st.QuestionExists(ctx, q.ID); !ok {
				t.Fatal("exists = false")
			}

			q.Difficulty = quiz.Medium
			if _, err := st.UpdateQuestion(ctx, q); err != nil {
				t.Fatalf("update: %v", err)
			}
			if n, _ := st.CountByDifficulty(ctx, quiz.Medium); n != 1 {
				t.Fatalf("medium count = %d", n)
			}

			if err := st.DeleteQuestion(ctx, q.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := st.GetQuestion(ctx, q.ID); !errors.Is(err, quiz.ErrNotFound) {
				t.Fatalf("get after delete err = %v", err)
			}
			if err := st.DeleteQuestion(ctx, q.ID); !errors.Is(err, quiz.ErrNotFound) {
				t.Fatalf("second delete err = %v", err)
			}
			if _, err := st.UpdateQuestion(ctx, q); !errors.Is(err, quiz.ErrNotFound) {
				t.Fatalf("update missing err = %v", err)
			}
		})
	}
}

func TestQuestionQueries(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			bank(t, st, standardPlan)

			if n, _ := st.CountQuestions(ctx); n != 50 {
				t.Fatalf("count = %d", n)
			}
			if n, _ := st.CountByCategory(ctx, "Computer Networks"); n != 8 {
				t.Fatalf("networks = %d", n)
			}

			cats, err := st.Categories(ctx)
			if err != nil {
				t.Fatalf("categories: %v", err)
			}
			want := []string{"Algorithms", "Computer Networks", "Data Structures", "Databases"}
			if fmt.Sprint(cats) != fmt.Sprint(want) {
				t.Fatalf("categories = %v", cats)
			}

			diffs, _ := st.Difficulties(ctx)
			if fmt.Sprint(diffs) != fmt.Sprint(quiz.Difficulties) {
				t.Fatalf("difficulties = %v", diffs)
			}

			both, _ := st.QuestionsByCategoryAndDifficulty(ctx, "Databases", quiz.Hard)
			if len(both) != 3 {
				t.Fatalf("databases/hard = %d", len(both))
			}

			rnd, _ := st.RandomQuestionsByCategory(ctx, "Computer Networks", 20)
			if len(rnd) != 8 {
				t.Fatalf("random networks = %d", len(rnd))
			}
			rnd, _ = st.RandomQuestions(ctx, 7)
			if len(rnd) != 7 {
				t.Fatalf("random = %d", len(rnd))
			}
		})
	}
}

func TestResults(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			seed := []quiz.Result{
				{StudentName: "Ada Lovelace", StudentEmail: "ada@example.com", TotalQuestions: 10, CorrectAnswers: 9, IncorrectAnswers: 1, Score: 90, AttemptedAt: base, Category: "Algorithms"},
				{StudentName: "Ada Lovelace", StudentEmail: "ada@example.com", TotalQuestions: 10, CorrectAnswers: 6, IncorrectAnswers: 4, Score: 60, AttemptedAt: base.Add(48 * time.Hour), Category: "All"},
				{StudentName: "Alan Turing", StudentEmail: "alan@example.com", TotalQuestions: 4, CorrectAnswers: 3, IncorrectAnswers: 1, Score: 75, AttemptedAt: base.Add(24 * time.Hour), Category: "Algorithms"},
			}
			var ids []int64
			for _, r := range seed {
				created, err := st.CreateResult(ctx, r)
				if err != nil {
					t.Fatalf("create: %v", err)
				}
				ids = append(ids, created.ID)
			}

			got, err := st.GetResult(ctx, ids[0])
			if err != nil || got.StudentEmail != "ada@example.com" || !got.AttemptedAt.Equal(base) {
				t.Fatalf("get = %+v, %v", got, err)
			}
			if _, err := st.GetResult(ctx, 9999); !errors.Is(err, quiz.ErrNotFound) {
				t.Fatalf("missing result err = %v", err)
			}

			byEmail, _ := st.ResultsByEmail(ctx, "ada@example.com")
			if len(byEmail) != 2 || byEmail[0].Score != 60 {
				t.Fatalf("by email not newest first: %+v", byEmail)
			}

			byName, _ := st.ResultsByName(ctx, "TURING")
			if len(byName) != 1 || byName[0].StudentEmail != "alan@example.com" {
				t.Fatalf("by name = %+v", byName)
			}
			// wildcard characters in the needle match literally
			for _, needle := range []string{"_", "%", "a_a", `\`, "Ada%"} {
				if rs, err := st.ResultsByName(ctx, needle); err != nil || len(rs) != 0 {
					t.Fatalf("by name %q = %d results, %v", needle, len(rs), err)
				}
			}

			byCat, _ := st.ResultsByCategory(ctx, "Algorithms")
			if len(byCat) != 2 {
				t.Fatalf("by category = %d", len(byCat))
			}

			between, _ := st.ResultsBetween(ctx, base.Add(time.Hour), base.Add(72*time.Hour))
			if len(between) != 2 || between[0].Score != 75 {
				t.Fatalf("between = %+v", between)
			}

			top, _ := st.TopScores(ctx, quiz.ResultListOpts{Limit: 2})
			if len(top) != 2 || top[0].Score != 90 || top[1].Score != 75 {
				t.Fatalf("top = %+v", top)
			}
			recent, _ := st.RecentAttempts(ctx, quiz.ResultListOpts{Limit: 1})
			if len(recent) != 1 || recent[0].Score != 60 {
				t.Fatalf("recent = %+v", recent)
			}

			stats, _ := st.Stats(ctx)
			if stats.Attempts != 3 || stats.Highest != 90 || stats.Lowest != 60 || math.Abs(stats.Average-75) > 1e-9 {
				t.Fatalf("stats = %+v", stats)
			}
			perCat, _ := st.StatsByCategory(ctx)
			if len(perCat) != 2 || perCat[0].Category != "Algorithms" || perCat[0].Attempts != 2 {
				t.Fatalf("per category = %+v", perCat)
			}

			best, ok, _ := st.BestScoreByEmail(ctx, "ada@example.com")
			if !ok || best != 90 {
				t.Fatalf("best = %v %v", best, ok)
			}
			if _, ok, _ := st.BestScoreByEmail(ctx, "nobody@example.com"); ok {
				t.Fatal("best score for unknown email")
			}
			if n, _ := st.CountByEmail(ctx, "alan@example.com"); n != 1 {
				t.Fatalf("count by email = %d", n)
			}
			emails, _ := st.StudentEmails(ctx)
			if fmt.Sprint(emails) != "[ada@example.com alan@example.com]" {
				t.Fatalf("emails = %v", emails)
			}

			if err := st.DeleteResult(ctx, ids[2]); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := st.DeleteResult(ctx, ids[2]); !errors.Is(err, quiz.ErrNotFound) {
				t.Fatalf("second delete err = %v", err)
			}
		})
	}
}

func TestStats_Empty(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			stats, err := st.Stats(context.Background())
			if err != nil {
				t.Fatalf("stats: %v", err)
			}
			if stats != (quiz.Stats{}) {
				t.Fatalf("stats on empty store = %+v", stats)
			}
		})
	}
}
