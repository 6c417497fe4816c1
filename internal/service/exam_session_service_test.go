package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-backend/internal/model"
)

// ─── In-memory fakes ───────────────────────────────────────────────────

type fakeCatalog struct {
	mu      sync.Mutex
	courses map[uuid.UUID]*model.Course
}

func (f *fakeCatalog) GetByID(_ context.Context, id uuid.UUID) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

// SampleQuestions returns the first QuestionsCount questions unshuffled
// so tests can predict the session contents.
func (f *fakeCatalog) SampleQuestions(c *model.Course) []model.Question {
	n := c.QuestionsCount
	if n > len(c.Questions) {
		n = len(c.Questions)
	}
	out := make([]model.Question, n)
	copy(out, c.Questions[:n])
	return out
}

func (f *fakeCatalog) CheckPassword(c *model.Course, password string) bool {
	return c.PasswordHash != "" && c.PasswordHash == password
}

type fakeSessions struct {
	mu    sync.Mutex
	store map[string]model.ActiveTest
}

func sessKey(userID, courseID uuid.UUID) string {
	return userID.String() + "/" + courseID.String()
}

func (f *fakeSessions) Get(_ context.Context, userID, courseID uuid.UUID) (*model.ActiveTest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.store[sessKey(userID, courseID)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := t
	cp.Questions = append([]model.TestQuestion(nil), t.Questions...)
	return &cp, nil
}

func (f *fakeSessions) Upsert(_ context.Context, userID uuid.UUID, t *model.ActiveTest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store == nil {
		f.store = make(map[string]model.ActiveTest)
	}
	cp := *t
	cp.Questions = append([]model.TestQuestion(nil), t.Questions...)
	f.store[sessKey(userID, t.CourseID)] = cp
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, userID, courseID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.store, sessKey(userID, courseID))
	return nil
}

type fakeResults struct {
	mu      sync.Mutex
	results []model.Result
}

func (f *fakeResults) Insert(_ context.Context, res *model.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.UserID == res.UserID && r.CourseID == res.CourseID {
			return errors.New("duplicate result")
		}
	}
	f.results = append(f.results, *res)
	return nil
}

func (f *fakeResults) Exists(_ context.Context, userID, courseID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.UserID == userID && r.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

type fakeTrail struct {
	mu       sync.Mutex
	statuses []string
	warnings []string
}

func (f *fakeTrail) Status(_ context.Context, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, msg)
}

func (f *fakeTrail) Warning(_ context.Context, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, msg)
}

// ─── Fixture ───────────────────────────────────────────────────────────

type engineFixture struct {
	svc      *ExamSessionService
	catalog  *fakeCatalog
	sessions *fakeSessions
	results  *fakeResults
	trail    *fakeTrail
	course   *model.Course
	user     model.Examinee
	clock    int64 // epoch ms, mutable
}

const questionDuration = 60_000 // 1 minute per question

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	questions := make([]model.Question, 10)
	for i := range questions {
		questions[i] = model.Question{
			ID:      string(rune('a' + i)),
			Prompt:  "prompt",
			Options: []string{"one", "two", "three", "four"},
			Answer:  i % 4,
		}
	}

	course := &model.Course{
		ID:             uuid.New(),
		Name:           "algebra",
		Title:          "Algebra Basics",
		CreationDate:   1_000,
		ReleaseDate:    1_000,
		Questions:      questions,
		QuestionsCount: 5,
		PassingScore:   60,
		Duration:       questionDuration,
	}

	fx := &engineFixture{
		catalog:  &fakeCatalog{courses: map[uuid.UUID]*model.Course{course.ID: course}},
		sessions: &fakeSessions{},
		results:  &fakeResults{},
		trail:    &fakeTrail{},
		course:   course,
		user:     model.Examinee{ID: uuid.New(), Username: "alice", Name: "Alice"},
		clock:    10_000,
	}

	fx.svc = NewExamSessionService(fx.catalog, fx.sessions, fx.results, fx.trail, zerolog.Nop())
	fx.svc.now = func() time.Time { return time.UnixMilli(fx.clock) }
	return fx
}

func (fx *engineFixture) start(t *testing.T, password string) *model.ActiveTest {
	t.Helper()
	test, err := fx.svc.Start(context.Background(), fx.user, fx.course.ID, password)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return test
}

func (fx *engineFixture) submit(t *testing.T, answers []model.AnswerUpdate, finished bool) (*model.ActiveTest, *model.Result, error) {
	t.Helper()
	return fx.svc.Submit(context.Background(), fx.user, &model.SubmitAnswersRequest{
		CourseID: fx.course.ID,
		Answers:  answers,
		Finished: finished,
	})
}

// ─── Start ─────────────────────────────────────────────────────────────

func TestStartCreatesSession(t *testing.T) {
	fx := newEngineFixture(t)

	test := fx.start(t, "")

	if test.CourseID != fx.course.ID {
		t.Errorf("course id = %s, want %s", test.CourseID, fx.course.ID)
	}
	if len(test.Questions) != fx.course.QuestionsCount {
		t.Fatalf("sampled %d questions, want %d", len(test.Questions), fx.course.QuestionsCount)
	}
	for _, q := range test.Questions {
		if q.Answer != model.AnswerUnset {
			t.Errorf("question %s answer = %d, want unset", q.ID, q.Answer)
		}
	}
	if test.StartTime != fx.clock {
		t.Errorf("start time = %d, want %d", test.StartTime, fx.clock)
	}
	wantFinish := fx.clock + questionDuration*int64(fx.course.QuestionsCount)
	if test.FinishTime != wantFinish {
		t.Errorf("finish time = %d, want %d", test.FinishTime, wantFinish)
	}
}

func TestStartResumeKeepsSession(t *testing.T) {
	fx := newEngineFixture(t)

	first := fx.start(t, "")

	if _, _, err := fx.submit(t, []model.AnswerUpdate{{ID: first.Questions[0].ID, Answer: 0}}, false); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	fx.clock += 30_000
	resumed := fx.start(t, "")

	if resumed.StartTime != first.StartTime || resumed.FinishTime != first.FinishTime {
		t.Errorf("resume changed window: got (%d, %d), want (%d, %d)",
			resumed.StartTime, resumed.FinishTime, first.StartTime, first.FinishTime)
	}
	for i, q := range resumed.Questions {
		if q.ID != first.Questions[i].ID {
			t.Fatalf("resume changed question set at %d: %s != %s", i, q.ID, first.Questions[i].ID)
		}
	}
	if resumed.Questions[0].Answer != 0 {
		t.Errorf("resume dropped recorded answer: got %d", resumed.Questions[0].Answer)
	}
}

func TestStartResumeSkipsPasswordCheck(t *testing.T) {
	fx := newEngineFixture(t)
	fx.course.PasswordHash = "secret"

	fx.start(t, "secret")

	// Resume must not re-authenticate.
	if _, err := fx.svc.Start(context.Background(), fx.user, fx.course.ID, "wrong"); err != nil {
		t.Fatalf("resume with wrong password: %v", err)
	}
}

func TestStartPasswordGate(t *testing.T) {
	fx := newEngineFixture(t)
	fx.course.PasswordHash = "secret"

	_, err := fx.svc.Start(context.Background(), fx.user, fx.course.ID, "wrong")
	if !errors.Is(err, ErrCourseAuthFailed) {
		t.Fatalf("err = %v, want ErrCourseAuthFailed", err)
	}
	if len(fx.sessions.store) != 0 {
		t.Error("failed auth must not create a session")
	}

	fx.start(t, "secret")
}

func TestStartUnknownCourse(t *testing.T) {
	fx := newEngineFixture(t)

	_, err := fx.svc.Start(context.Background(), fx.user, uuid.New(), "")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("err = %v, want ErrCourseNotFound", err)
	}
}

func TestStartBeforeRelease(t *testing.T) {
	fx := newEngineFixture(t)
	fx.course.ReleaseDate = fx.clock + 1

	_, err := fx.svc.Start(context.Background(), fx.user, fx.course.ID, "")
	if !errors.Is(err, ErrNotReleased) {
		t.Fatalf("err = %v, want ErrNotReleased", err)
	}
}

func TestStartAfterResultRecorded(t *testing.T) {
	fx := newEngineFixture(t)

	fx.start(t, "")
	if _, _, err := fx.submit(t, nil, true); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	_, err := fx.svc.Start(context.Background(), fx.user, fx.course.ID, "")
	if !errors.Is(err, ErrAlreadyTaken) {
		t.Fatalf("err = %v, want ErrAlreadyTaken", err)
	}
}

func TestStartStaleSessionFinalizes(t *testing.T) {
	fx := newEngineFixture(t)

	test := fx.start(t, "")
	if _, _, err := fx.submit(t, []model.AnswerUpdate{
		{ID: test.Questions[0].ID, Answer: fx.course.Questions[0].Answer},
	}, false); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	fx.clock = test.FinishTime + 1

	_, err := fx.svc.Start(context.Background(), fx.user, fx.course.ID, "")
	if !errors.Is(err, ErrTestTimedOut) {
		t.Fatalf("err = %v, want ErrTestTimedOut", err)
	}

	if len(fx.results.results) != 1 {
		t.Fatalf("recorded %d results, want 1", len(fx.results.results))
	}
	res := fx.results.results[0]
	want := 100.0 / float64(fx.course.QuestionsCount)
	if res.Score != want {
		t.Errorf("score = %v, want %v", res.Score, want)
	}
	if len(fx.sessions.store) != 0 {
		t.Error("stale session must be removed after finalization")
	}
}

// ─── Submit ────────────────────────────────────────────────────────────

func TestSubmitWithoutSession(t *testing.T) {
	fx := newEngineFixture(t)

	_, _, err := fx.submit(t, nil, false)
	if !errors.Is(err, ErrNoActiveTest) {
		t.Fatalf("err = %v, want ErrNoActiveTest", err)
	}
}

func TestSubmitLastWriteWins(t *testing.T) {
	fx := newEngineFixture(t)

	test := fx.start(t, "")
	qid := test.Questions[0].ID

	if _, _, err := fx.submit(t, []model.AnswerUpdate{{ID: qid, Answer: 1}}, false); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	updated, _, err := fx.submit(t, []model.AnswerUpdate{{ID: qid, Answer: 3}}, false)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if updated.Questions[0].Answer != 3 {
		t.Errorf("answer = %d, want 3 (last write)", updated.Questions[0].Answer)
	}
}

func TestSubmitAfterDeadlineDiscardsPayload(t *testing.T) {
	fx := newEngineFixture(t)

	test := fx.start(t, "")
	fx.clock = test.FinishTime + 1

	// All correct answers, but they arrive too late.
	answers := make([]model.AnswerUpdate, len(test.Questions))
	for i, q := range test.Questions {
		answers[i] = model.AnswerUpdate{ID: q.ID, Answer: fx.course.Questions[i].Answer}
	}

	_, _, err := fx.submit(t, answers, true)
	if !errors.Is(err, ErrTestTimedOut) {
		t.Fatalf("err = %v, want ErrTestTimedOut", err)
	}

	if len(fx.results.results) != 1 {
		t.Fatalf("recorded %d results, want 1", len(fx.results.results))
	}
	if res := fx.results.results[0]; res.Score != 0 {
		t.Errorf("late answers leaked into score: %v", res.Score)
	}
}

func TestSubmitOutOfScopeTerminatesTest(t *testing.T) {
	fx := newEngineFixture(t)

	test := fx.start(t, "")
	if _, _, err := fx.submit(t, []model.AnswerUpdate{
		{ID: test.Questions[0].ID, Answer: fx.course.Questions[0].Answer},
	}, false); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// A mixed payload: one valid update alongside a foreign id. None of
	// it may be applied.
	_, _, err := fx.submit(t, []model.AnswerUpdate{
		{ID: test.Questions[1].ID, Answer: fx.course.Questions[1].Answer},
		{ID: "zzz", Answer: 0},
	}, false)
	if !errors.Is(err, ErrInvalidQuestionID) {
		t.Fatalf("err = %v, want ErrInvalidQuestionID", err)
	}

	if len(fx.results.results) != 1 {
		t.Fatalf("recorded %d results, want 1", len(fx.results.results))
	}
	res := fx.results.results[0]
	want := 100.0 / float64(fx.course.QuestionsCount)
	if res.Score != want {
		t.Errorf("score = %v, want %v (only the pre-violation answer counts)", res.Score, want)
	}
	if len(fx.trail.warnings) == 0 {
		t.Error("scope violation must leave a warning event")
	}
	if len(fx.sessions.store) != 0 {
		t.Error("session must be removed after a scope violation")
	}
}

func TestSubmitFinishedGradesAttempt(t *testing.T) {
	fx := newEngineFixture(t)

	test := fx.start(t, "")

	// Answer 3 of 5 correctly, 1 wrong, 1 left unanswered.
	answers := []model.AnswerUpdate{
		{ID: test.Questions[0].ID, Answer: fx.course.Questions[0].Answer},
		{ID: test.Questions[1].ID, Answer: fx.course.Questions[1].Answer},
		{ID: test.Questions[2].ID, Answer: fx.course.Questions[2].Answer},
		{ID: test.Questions[3].ID, Answer: fx.course.Questions[3].Answer + 1},
	}

	fx.clock += 90_000
	_, res, err := fx.submit(t, answers, true)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res == nil {
		t.Fatal("finished submit must return a result")
	}

	if res.Score != 60 {
		t.Errorf("score = %v, want 60", res.Score)
	}
	if !res.Passed {
		t.Error("score 60 with passing score 60 must pass")
	}
	if len(res.PassedQuestions) != 3 || len(res.FailedQuestions) != 2 {
		t.Errorf("passed/failed = %d/%d, want 3/2",
			len(res.PassedQuestions), len(res.FailedQuestions))
	}
	if res.Duration != 90_000 {
		t.Errorf("duration = %d, want 90000", res.Duration)
	}
	if len(fx.sessions.store) != 0 {
		t.Error("session must be removed after grading")
	}
}

func TestSubmitAllCorrectFullScore(t *testing.T) {
	fx := newEngineFixture(t)

	test := fx.start(t, "")

	answers := make([]model.AnswerUpdate, len(test.Questions))
	for i, q := range test.Questions {
		answers[i] = model.AnswerUpdate{ID: q.ID, Answer: fx.course.Questions[i].Answer}
	}

	fx.clock += 120_000
	_, res, err := fx.submit(t, answers, true)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if res.Score != 100 {
		t.Errorf("score = %v, want 100", res.Score)
	}
	if !res.Passed {
		t.Error("full score must pass")
	}
	if res.Duration != 120_000 {
		t.Errorf("duration = %d, want 120000", res.Duration)
	}
}

func TestFinalizeClampsDuration(t *testing.T) {
	fx := newEngineFixture(t)

	test := fx.start(t, "")
	budget := test.FinishTime - test.StartTime
	fx.clock = test.FinishTime + 500_000

	_, err := fx.svc.Start(context.Background(), fx.user, fx.course.ID, "")
	if !errors.Is(err, ErrTestTimedOut) {
		t.Fatalf("err = %v, want ErrTestTimedOut", err)
	}

	if res := fx.results.results[0]; res.Duration != budget {
		t.Errorf("duration = %d, want clamped to %d", res.Duration, budget)
	}
}

func TestFinalizeDuplicateQuestionZeroesScore(t *testing.T) {
	fx := newEngineFixture(t)

	// A corrupted session holding the same question twice, both answered
	// correctly. Grading must fail safe instead of double-counting.
	q := fx.course.Questions[0]
	sess := &model.ActiveTest{
		CourseID:   fx.course.ID,
		StartTime:  fx.clock,
		FinishTime: fx.clock + questionDuration,
		Questions: []model.TestQuestion{
			{ID: q.ID, Prompt: q.Prompt, Options: q.Options, Answer: q.Answer},
			{ID: q.ID, Prompt: q.Prompt, Options: q.Options, Answer: q.Answer},
		},
	}
	if err := fx.sessions.Upsert(context.Background(), fx.user.ID, sess); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	_, res, err := fx.submit(t, nil, true)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if res.Score != 0 {
		t.Errorf("score = %v, want 0", res.Score)
	}
	if len(res.PassedQuestions) != 0 {
		t.Errorf("passed questions = %v, want none", res.PassedQuestions)
	}
	if res.Passed {
		t.Error("invalidated attempt must not pass")
	}
	if len(fx.trail.warnings) == 0 {
		t.Error("duplicate question must leave a warning event")
	}
}

func TestSubmitUnansweredCountAgainstScore(t *testing.T) {
	fx := newEngineFixture(t)

	fx.start(t, "")

	// Finishing immediately: zero correct out of the configured count.
	_, res, err := fx.submit(t, nil, true)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 0 {
		t.Errorf("score = %v, want 0", res.Score)
	}
	if len(res.FailedQuestions) != fx.course.QuestionsCount {
		t.Errorf("failed questions = %d, want %d",
			len(res.FailedQuestions), fx.course.QuestionsCount)
	}
}

// ─── Concurrency ───────────────────────────────────────────────────────

func TestConcurrentFinishRecordsSingleResult(t *testing.T) {
	fx := newEngineFixture(t)

	fx.start(t, "")

	const attempts = 16
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := fx.svc.Submit(context.Background(), fx.user, &model.SubmitAnswersRequest{
				CourseID: fx.course.ID,
				Finished: true,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var finished, noActive int
	for err := range errs {
		switch {
		case err == nil:
			finished++
		case errors.Is(err, ErrNoActiveTest):
			noActive++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	if finished != 1 {
		t.Errorf("%d submissions finalized, want exactly 1", finished)
	}
	if len(fx.results.results) != 1 {
		t.Errorf("recorded %d results, want 1", len(fx.results.results))
	}
}

func TestConcurrentStartSingleSession(t *testing.T) {
	fx := newEngineFixture(t)

	const attempts = 16
	var wg sync.WaitGroup
	tests := make(chan *model.ActiveTest, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			test, err := fx.svc.Start(context.Background(), fx.user, fx.course.ID, "")
			if err != nil {
				t.Errorf("Start: %v", err)
				return
			}
			tests <- test
		}()
	}
	wg.Wait()
	close(tests)

	var first *model.ActiveTest
	for test := range tests {
		if first == nil {
			first = test
			continue
		}
		if test.StartTime != first.StartTime || test.FinishTime != first.FinishTime {
			t.Fatal("concurrent starts produced different sessions")
		}
	}
	if len(fx.sessions.store) != 1 {
		t.Errorf("%d sessions stored, want 1", len(fx.sessions.store))
	}
}
