package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

/* ---------------- fakes ---------------- */

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeRecorder struct {
	recorded []quiz.Result
	deleted  []int64
}

func (f *fakeRecorder) ResultRecorded(_ context.Context, r quiz.Result) error {
	f.recorded = append(f.recorded, r)
	return nil
}

func (f *fakeRecorder) ResultDeleted(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fixture struct {
	svc      *session.Service
	store    *quiz.MemoryStore
	clock    *fakeClock
	recorder *fakeRecorder
}

// newFixture seeds n questions per category; every correct answer is "B".
func newFixture(t *testing.T, attempts session.AttemptStore, perCategory map[string]int) fixture {
	t.Helper()
	ctx := context.Background()
	store := quiz.NewMemoryStore()
	for cat, n := range perCategory {
		for i := 0; i < n; i++ {
			d := quiz.Difficulties[i%len(quiz.Difficulties)]
			if _, err := store.CreateQuestion(ctx, quiz.Question{
				Text: fmt.Sprintf("%s q%d", cat, i), OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d",
				CorrectAnswer: quiz.AnswerB, Category: cat, Difficulty: d, Explanation: "because",
			}); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
	}
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	rec := &fakeRecorder{}
	svc := session.NewService(store, store, attempts, grading.NewEngine(),
		session.WithClock(clock.Now),
		session.WithTTL(time.Hour),
		session.WithRecorder(rec),
	)
	return fixture{svc: svc, store: store, clock: clock, recorder: rec}
}

func answerAll(t *testing.T, f fixture, id string, pick func(i int) string) {
	t.Helper()
	ctx := context.Background()
	for i := 0; ; i++ {
		view, err := f.svc.CurrentQuestion(ctx, id)
		if errors.Is(err, session.ErrAlreadyComplete) {
			return
		}
		if err != nil {
			t.Fatalf("current: %v", err)
		}
		if view.Position != i+1 {
			t.Fatalf("position = %d, want %d", view.Position, i+1)
		}
		if view.Question.CorrectAnswer != "" || view.Question.Explanation != "" {
			t.Fatal("answer key leaked to student view")
		}
		f.clock.Advance(45 * time.Second)
		if _, err := f.svc.SubmitAnswer(ctx, id, view.Question.ID, pick(i)); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
}

/* ---------------- tests ---------------- */

func TestFullAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, session.NewMemoryStore(), map[string]int{"Computer Networks": 8, "Algorithms": 12})

	a, err := f.svc.StartAttempt(ctx, session.StartRequest{
		StudentName: "Ada", StudentEmail: "ada@example.com",
		Category: "Computer Networks", Difficulty: "All", Count: 20,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(a.Questions) != 8 || a.Index != 0 || len(a.Answers) != 0 {
		t.Fatalf("attempt = %d questions, index %d", len(a.Questions), a.Index)
	}

	// 6 of 8 correct
	answerAll(t, f, a.ID, func(i int) string {
		if i < 6 {
			return "b"
		}
		return "A"
	})

	res, err := f.svc.Finalize(ctx, a.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.TotalQuestions != 8 || res.CorrectAnswers != 6 || res.IncorrectAnswers != 2 || res.Score != 75 {
		t.Fatalf("result = %+v", res)
	}
	if res.TimeTaken != 8*45 {
		t.Fatalf("time taken = %d", res.TimeTaken)
	}
	if res.Category != "Computer Networks" || res.StudentEmail != "ada@example.com" {
		t.Fatalf("identity = %+v", res)
	}
	if res.Feedback != "Good work! You have a solid understanding. Good time management!" {
		t.Fatalf("feedback = %q", res.Feedback)
	}
	if len(f.recorder.recorded) != 1 || f.recorder.recorded[0].ID != res.ID {
		t.Fatalf("recorder = %+v", f.recorder.recorded)
	}

	// attempt is gone: a second submit cannot score again
	if _, err := f.svc.Finalize(ctx, a.ID); !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("second finalize err = %v", err)
	}
	if all, _ := f.store.ListResults(ctx); len(all) != 1 {
		t.Fatalf("results stored = %d", len(all))
	}

	view, err := f.svc.GetResult(ctx, res.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if view.Grade != "B+" || view.TimeMinutes != 6 || view.TimeSeconds != 0 {
		t.Fatalf("view = %+v", view)
	}
}

func TestStartAttempt_EmptySelection(t *testing.T) {
	ctx := context.Background()
	attempts := session.NewMemoryStore()
	f := newFixture(t, attempts, map[string]int{"Algorithms": 3})

	_, err := f.svc.StartAttempt(ctx, session.StartRequest{StudentName: "x", StudentEmail: "x@example.com", Category: "Biology"})
	if !errors.Is(err, quiz.ErrEmptySelection) {
		t.Fatalf("err = %v, want ErrEmptySelection", err)
	}
	if n, _ := attempts.DeleteStartedBefore(ctx, f.clock.Now().Add(time.Hour)); n != 0 {
		t.Fatalf("attempt stored on empty selection: %d", n)
	}
}

func TestStartAttempt_DefaultCount(t *testing.T) {
	f := newFixture(t, session.NewMemoryStore(), map[string]int{"Algorithms": 30})
	a, err := f.svc.StartAttempt(context.Background(), session.StartRequest{StudentName: "x", StudentEmail: "x@example.com"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(a.Questions) != 20 || a.Category != quiz.All {
		t.Fatalf("got %d questions, category %q", len(a.Questions), a.Category)
	}
}

func TestSubmitAnswer_Rules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, session.NewMemoryStore(), map[string]int{"Algorithms": 3})
	a, err := f.svc.StartAttempt(ctx, session.StartRequest{StudentName: "x", StudentEmail: "x@example.com", Count: 3})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	first, second := a.Questions[0].ID, a.Questions[1].ID

	if _, err := f.svc.SubmitAnswer(ctx, a.ID, first, "Z"); !errors.Is(err, quiz.ErrInvalid) {
		t.Fatalf("bad label err = %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, a.ID, 9999, "A"); !errors.Is(err, session.ErrUnknownQuestion) {
		t.Fatalf("foreign question err = %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, a.ID, second, "A"); !errors.Is(err, session.ErrOutOfOrder) {
		t.Fatalf("skip ahead err = %v", err)
	}

	p, err := f.svc.SubmitAnswer(ctx, a.ID, first, "A")
	if err != nil || p.Answered != 1 || p.State != session.StateActive {
		t.Fatalf("first answer: %+v %v", p, err)
	}
	// re-answering a passed question overwrites without advancing
	p, err = f.svc.SubmitAnswer(ctx, a.ID, first, "B")
	if err != nil || p.Answered != 1 {
		t.Fatalf("overwrite: %+v %v", p, err)
	}

	if _, err := f.svc.SubmitAnswer(ctx, a.ID, second, "B"); err != nil {
		t.Fatal(err)
	}
	p, err = f.svc.SubmitAnswer(ctx, a.ID, a.Questions[2].ID, "C")
	if err != nil || p.State != session.StateComplete || p.Answered != 3 {
		t.Fatalf("last answer: %+v %v", p, err)
	}
	if _, err := f.svc.CurrentQuestion(ctx, a.ID); !errors.Is(err, session.ErrAlreadyComplete) {
		t.Fatalf("current on complete err = %v", err)
	}

	res, err := f.svc.Finalize(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrectAnswers != 2 {
		t.Fatalf("correct = %d, want 2 (overwrite kept)", res.CorrectAnswers)
	}
}

func TestFinalize_Early(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, session.NewMemoryStore(), map[string]int{"Algorithms": 4})
	a, _ := f.svc.StartAttempt(ctx, session.StartRequest{StudentName: "x", StudentEmail: "x@example.com", Count: 4})
	if _, err := f.svc.SubmitAnswer(ctx, a.ID, a.Questions[0].ID, "B"); err != nil {
		t.Fatal(err)
	}
	res, err := f.svc.Finalize(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalQuestions != 4 || res.CorrectAnswers != 1 || res.IncorrectAnswers != 3 || res.Score != 25 {
		t.Fatalf("result = %+v", res)
	}
}

// flakyAttempts fails Delete while failDelete is set.
type flakyAttempts struct {
	*session.MemoryStore
	failDelete bool
}

func (f *flakyAttempts) Delete(ctx context.Context, id string) error {
	if f.failDelete {
		return errors.New("attempt store down")
	}
	return f.MemoryStore.Delete(ctx, id)
}

// flakyResults fails CreateResult while failCreate is set.
type flakyResults struct {
	*quiz.MemoryStore
	failCreate bool
}

func (f *flakyResults) CreateResult(ctx context.Context, r quiz.Result) (quiz.Result, error) {
	if f.failCreate {
		return quiz.Result{}, errors.New("result store down")
	}
	return f.MemoryStore.CreateResult(ctx, r)
}

func TestFinalize_ScoresOnce(t *testing.T) {
	ctx := context.Background()
	base := newFixture(t, session.NewMemoryStore(), map[string]int{"Algorithms": 3})
	attempts := &flakyAttempts{MemoryStore: session.NewMemoryStore()}
	results := &flakyResults{MemoryStore: base.store}
	svc := session.NewService(base.store, results, attempts, grading.NewEngine())

	count := func() int {
		rs, _ := base.store.ListResults(ctx)
		return len(rs)
	}

	// attempt store cannot consume: nothing is saved, retry works once
	a, err := svc.StartAttempt(ctx, session.StartRequest{StudentName: "x", StudentEmail: "x@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	attempts.failDelete = true
	if _, err := svc.Finalize(ctx, a.ID); err == nil {
		t.Fatal("finalize should fail when the attempt cannot be consumed")
	}
	if n := count(); n != 0 {
		t.Fatalf("results after failed consume = %d", n)
	}
	attempts.failDelete = false
	if _, err := svc.Finalize(ctx, a.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if _, err := svc.Finalize(ctx, a.ID); !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("second submit err = %v", err)
	}
	if n := count(); n != 1 {
		t.Fatalf("results = %d, want 1", n)
	}

	// result store fails: the attempt is restored for another try
	b, _ := svc.StartAttempt(ctx, session.StartRequest{StudentName: "y", StudentEmail: "y@example.com"})
	results.failCreate = true
	if _, err := svc.Finalize(ctx, b.ID); err == nil {
		t.Fatal("finalize should fail when the result cannot be saved")
	}
	results.failCreate = false
	if _, err := svc.CurrentQuestion(ctx, b.ID); err != nil {
		t.Fatalf("attempt not restored: %v", err)
	}
	if _, err := svc.Finalize(ctx, b.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if n := count(); n != 2 {
		t.Fatalf("results = %d, want 2", n)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, session.NewMemoryStore(), map[string]int{"Algorithms": 4})

	if _, err := f.svc.CurrentQuestion(ctx, ""); !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("no handle err = %v", err)
	}
	if _, err := f.svc.CurrentQuestion(ctx, "does-not-exist"); !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("unknown handle err = %v", err)
	}

	a, _ := f.svc.StartAttempt(ctx, session.StartRequest{StudentName: "x", StudentEmail: "x@example.com"})
	stale, _ := f.svc.StartAttempt(ctx, session.StartRequest{StudentName: "y", StudentEmail: "y@example.com"})
	f.clock.Advance(61 * time.Minute)

	if _, err := f.svc.SubmitAnswer(ctx, a.ID, a.Questions[0].ID, "B"); !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("expired answer err = %v", err)
	}
	if _, err := f.svc.Finalize(ctx, a.ID); !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("expired finalize err = %v", err)
	}

	n, err := f.svc.Sweep(ctx)
	if err != nil || n != 1 {
		t.Fatalf("sweep = %d, %v (want the other stale attempt)", n, err)
	}
	if _, err := f.svc.CurrentQuestion(ctx, stale.ID); !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("swept attempt err = %v", err)
	}
}

func TestSQLAttemptStore(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:attempts?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	f := newFixture(t, session.NewSQLStore(conn), map[string]int{"Databases": 5})
	a, err := f.svc.StartAttempt(ctx, session.StartRequest{StudentName: "x", StudentEmail: "x@example.com", Category: "Databases", Difficulty: "All", Count: 5})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answerAll(t, f, a.ID, func(int) string { return "B" })

	res, err := f.svc.Finalize(ctx, a.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.Score != 100 || res.CorrectAnswers != 5 {
		t.Fatalf("result = %+v", res)
	}
	if _, err := f.svc.CurrentQuestion(ctx, a.ID); !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("attempt row not deleted: %v", err)
	}
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, session.NewMemoryStore(), map[string]int{"Algorithms": 5, "Databases": 5})

	take := func(email, cat string, correct int) quiz.Result {
		a, err := f.svc.StartAttempt(ctx, session.StartRequest{StudentName: email, StudentEmail: email, Category: cat, Count: 5})
		if err != nil {
			t.Fatalf("start: %v", err)
		}
		answerAll(t, f, a.ID, func(i int) string {
			if i < correct {
				return "B"
			}
			return "C"
		})
		res, err := f.svc.Finalize(ctx, a.ID)
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}
		return res
	}
	take("ada@example.com", "Algorithms", 5)
	f.clock.Advance(time.Hour)
	last := take("ada@example.com", "Databases", 2)
	take("alan@example.com", "Algorithms", 4)

	landing, err := f.svc.LandingInfo(ctx)
	if err != nil || landing.QuestionCount != 10 || len(landing.Categories) != 2 {
		t.Fatalf("landing = %+v %v", landing, err)
	}
	setup, _ := f.svc.SetupOptions(ctx)
	if len(setup.Difficulties) != 3 || setup.DefaultCount != 20 {
		t.Fatalf("setup = %+v", setup)
	}

	st, err := f.svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if st.Stats.Attempts != 3 || st.Stats.Highest != 100 || st.Stats.Lowest != 40 || st.Stats.TotalStudents != 2 || st.Stats.TotalQuestions != 10 {
		t.Fatalf("overview = %+v", st.Stats)
	}
	if len(st.TopScores) != 3 || st.TopScores[0].Score != 100 || len(st.CategoryStats) != 2 {
		t.Fatalf("lists = %+v", st)
	}

	mine, err := f.svc.ResultsForStudent(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("student: %v", err)
	}
	if len(mine.Results) != 2 || mine.Results[0].ID != last.ID {
		t.Fatalf("student results not newest first: %+v", mine.Results)
	}
	if mine.Stats.Attempts != 2 || mine.Stats.Best != 100 || mine.Stats.Average != 70 || mine.Stats.LatestAttempt == nil {
		t.Fatalf("student stats = %+v", mine.Stats)
	}

	none, _ := f.svc.StudentStats(ctx, "nobody@example.com")
	if none.Attempts != 0 || none.LatestAttempt != nil {
		t.Fatalf("empty student stats = %+v", none)
	}

	if err := f.svc.DeleteResult(ctx, last.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(f.recorder.deleted) != 1 {
		t.Fatalf("delete not recorded")
	}
	if _, err := f.svc.GetResult(ctx, last.ID); !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("deleted result err = %v", err)
	}
}
