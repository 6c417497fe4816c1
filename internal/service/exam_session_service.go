package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-backend/internal/model"
)

// Engine errors. Every path that auto-finalizes completes the
// finalization (result written, session removed) before the error is
// surfaced, so a retry never re-finalizes.
var (
	ErrAlreadyTaken      = errors.New("course already taken")
	ErrNotReleased       = errors.New("course not yet released")
	ErrCourseAuthFailed  = errors.New("course authentication failed")
	ErrTestTimedOut      = errors.New("test time exhausted")
	ErrInvalidQuestionID = errors.New("question id out of test scope")
	ErrNoActiveTest      = errors.New("no active test for course")
	ErrCourseIntegrity   = errors.New("original course missing during finalization")
)

// CourseCatalog is the engine's view of the course catalog.
// *CourseService satisfies it.
type CourseCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	SampleQuestions(c *model.Course) []model.Question
	CheckPassword(c *model.Course, password string) bool
}

// SessionStore is the active-test registry. *repository.SessionRepository
// satisfies it. Get reports a missing session with pgx.ErrNoRows.
type SessionStore interface {
	Get(ctx context.Context, userID, courseID uuid.UUID) (*model.ActiveTest, error)
	Upsert(ctx context.Context, userID uuid.UUID, t *model.ActiveTest) error
	Delete(ctx context.Context, userID, courseID uuid.UUID) error
}

// ResultStore is the append-only result ledger.
// *repository.ResultRepository satisfies it.
type ResultStore interface {
	Insert(ctx context.Context, res *model.Result) error
	Exists(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
}

// EventTrail records audit events. *Logbook satisfies it.
type EventTrail interface {
	Status(ctx context.Context, msg string)
	Warning(ctx context.Context, msg string)
}

// ExamSessionService is the exam engine: it starts and resumes tests,
// applies incremental answer submissions, detects expiry and scope
// violations, and finalizes attempts into immutable results.
//
// All session mutations for one (user, course) pair run under a keyed
// mutex, so concurrent Start/Submit calls cannot interleave their
// read-modify-write cycles or finalize an attempt twice. Sessions of
// different pairs proceed in parallel. Expiry is detected lazily on the
// next call touching a session; there are no background timers.
type ExamSessionService struct {
	catalog  CourseCatalog
	sessions SessionStore
	results  ResultStore
	events   EventTrail
	locks    pairMutex
	now      func() time.Time
	log      zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(
	catalog CourseCatalog,
	sessions SessionStore,
	results ResultStore,
	events EventTrail,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		catalog:  catalog,
		sessions: sessions,
		results:  results,
		events:   events,
		now:      time.Now,
		log:      log.With().Str("component", "exam_session_service").Logger(),
	}
}

// Start begins a fresh test or resumes an in-progress one.
//
// Resume is idempotent: the existing session is returned unchanged, with
// the same sampled question ids, and without re-authentication. A stale
// session is finalized first and ErrTestTimedOut returned, so the caller
// learns the result was nonetheless recorded.
func (s *ExamSessionService) Start(ctx context.Context, user model.Examinee, courseID uuid.UUID, password string) (*model.ActiveTest, error) {
	taken, err := s.results.Exists(ctx, user.ID, courseID)
	if err != nil {
		return nil, fmt.Errorf("check result: %w", err)
	}
	if taken {
		return nil, ErrAlreadyTaken
	}

	// bcrypt verification is CPU-bound and independent of session state,
	// so resolve course auth before taking the pair lock. The peek is
	// advisory: every decision is re-made under the lock.
	var authDone, authOK bool
	if _, err := s.sessions.Get(ctx, user.ID, courseID); errors.Is(err, pgx.ErrNoRows) {
		course, err := s.catalog.GetByID(ctx, courseID)
		if err != nil {
			return nil, err
		}
		if course.IsProtected() {
			authDone = true
			authOK = s.catalog.CheckPassword(course, password)
		}
	} else if err != nil {
		return nil, fmt.Errorf("peek session: %w", err)
	}

	unlock := s.locks.lock(pairKey(user.ID, courseID))
	defer unlock()

	// A concurrent Submit may have finalized between the check above and
	// the lock; a finalized pair must never restart.
	taken, err = s.results.Exists(ctx, user.ID, courseID)
	if err != nil {
		return nil, fmt.Errorf("check result: %w", err)
	}
	if taken {
		return nil, ErrAlreadyTaken
	}

	sess, err := s.sessions.Get(ctx, user.ID, courseID)
	if err == nil {
		if s.nowMillis() > sess.FinishTime {
			if _, ferr := s.finalize(ctx, user, sess); ferr != nil {
				return nil, ferr
			}
			return nil, ErrTestTimedOut
		}
		return sess, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get session: %w", err)
	}

	course, err := s.catalog.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	now := s.nowMillis()
	if now < course.ReleaseDate {
		return nil, ErrNotReleased
	}
	if course.IsProtected() {
		if !authDone {
			// The session seen during the peek is gone. Verifying here
			// holds the lock through a bcrypt compare, but only on this
			// rare race.
			authOK = s.catalog.CheckPassword(course, password)
		}
		if !authOK {
			return nil, ErrCourseAuthFailed
		}
	}

	sampled := s.catalog.SampleQuestions(course)
	questions := make([]model.TestQuestion, len(sampled))
	for i, q := range sampled {
		questions[i] = model.TestQuestion{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: q.Options,
			Answer:  model.AnswerUnset,
		}
	}

	test := &model.ActiveTest{
		CourseID:   course.ID,
		StartTime:  now,
		FinishTime: now + course.Duration*int64(len(sampled)),
		Questions:  questions,
	}
	if err := s.sessions.Upsert(ctx, user.ID, test); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.events.Status(ctx, fmt.Sprintf("User '%s' started a test on course '%s'", user.Username, course.Name))
	return test, nil
}

// Submit applies a batch of answer updates to the user's active test.
// Returns the updated session, or the final result when the request
// carries the finished flag.
func (s *ExamSessionService) Submit(ctx context.Context, user model.Examinee, req *model.SubmitAnswersRequest) (*model.ActiveTest, *model.Result, error) {
	unlock := s.locks.lock(pairKey(user.ID, req.CourseID))
	defer unlock()

	sess, err := s.sessions.Get(ctx, user.ID, req.CourseID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNoActiveTest
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}

	if s.nowMillis() > sess.FinishTime {
		// Late submission. The payload is discarded so answers cannot
		// arrive after the deadline.
		if _, ferr := s.finalize(ctx, user, sess); ferr != nil {
			return nil, nil, ferr
		}
		return nil, nil, ErrTestTimedOut
	}

	// Validate the whole payload before applying any of it: a single
	// out-of-scope id terminates the test, scoring only the answers
	// recorded by earlier calls.
	valid := sess.QuestionIDs()
	for _, upd := range req.Answers {
		if _, ok := valid[upd.ID]; !ok {
			s.events.Warning(ctx, fmt.Sprintf(
				"Possible cheating attempt by user '%s' on course '%s': submission of out-of-scope question IDs",
				user.Username, sess.CourseID))
			if _, ferr := s.finalize(ctx, user, sess); ferr != nil {
				return nil, nil, ferr
			}
			return nil, nil, ErrInvalidQuestionID
		}
	}

	// Last write wins; a question may be re-answered any number of times
	// before finalization.
	for _, upd := range req.Answers {
		for i := range sess.Questions {
			if sess.Questions[i].ID == upd.ID {
				sess.Questions[i].Answer = upd.Answer
				break
			}
		}
	}

	if req.Finished {
		res, err := s.finalize(ctx, user, sess)
		if err != nil {
			return nil, nil, err
		}
		return nil, res, nil
	}

	if err := s.sessions.Upsert(ctx, user.ID, sess); err != nil {
		return nil, nil, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil, nil
}

// finalize scores an attempt against the authoritative course data,
// records the result and removes the session. Callers must hold the
// pair lock.
func (s *ExamSessionService) finalize(ctx context.Context, user model.Examinee, sess *model.ActiveTest) (*model.Result, error) {
	course, err := s.catalog.GetByID(ctx, sess.CourseID)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) || errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCourseIntegrity, sess.CourseID)
		}
		return nil, fmt.Errorf("reload course: %w", err)
	}

	// The session copy never carries answers; grade against the original
	// question bank only.
	key := make(map[string]int, len(course.Questions))
	for _, q := range course.Questions {
		key[q.ID] = q.Answer
	}

	marked := make(map[string]struct{}, len(sess.Questions))
	var correct, wrong []string
	for _, q := range sess.Questions {
		if _, dup := marked[q.ID]; dup {
			// A session must never hold the same question twice. If it
			// does, fail safe to a zero score rather than risk inflating
			// it by double-counting.
			s.events.Warning(ctx, fmt.Sprintf(
				"Duplicate question ID in active test of user '%s' on course '%s': attempt invalidated",
				user.Username, course.Name))
			correct = nil
			break
		}
		marked[q.ID] = struct{}{}
		if ans, ok := key[q.ID]; ok && ans == q.Answer {
			correct = append(correct, q.ID)
		} else {
			wrong = append(wrong, q.ID)
		}
	}

	// Unanswered questions count against the score: the denominator is
	// the configured sample size, not the count actually answered.
	score := float64(len(correct)) / float64(course.QuestionsCount) * 100

	now := s.nowMillis()
	duration := now - sess.StartTime
	if budget := sess.FinishTime - sess.StartTime; duration > budget {
		duration = budget
	}

	res := &model.Result{
		ID:              uuid.New(),
		UserID:          user.ID,
		Username:        user.Username,
		Name:            user.Name,
		CourseID:        course.ID,
		CourseName:      course.Name,
		CourseTitle:     course.Title,
		Score:           score,
		PassingScore:    course.PassingScore,
		Passed:          score >= float64(course.PassingScore),
		PassedQuestions: correct,
		FailedQuestions: wrong,
		Date:            now,
		Duration:        duration,
	}

	// Result first, then session removal: if the insert fails the
	// session survives and the attempt can be finalized again.
	if err := s.results.Insert(ctx, res); err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}
	if err := s.sessions.Delete(ctx, user.ID, sess.CourseID); err != nil {
		return nil, fmt.Errorf("clear session: %w", err)
	}

	s.events.Status(ctx, fmt.Sprintf("User '%s' finished test on course '%s'", user.Username, course.Name))
	return res, nil
}

func (s *ExamSessionService) nowMillis() int64 {
	return s.now().UnixMilli()
}

func pairKey(userID, courseID uuid.UUID) string {
	return userID.String() + "/" + courseID.String()
}

// pairMutex provides per-key mutual exclusion with no residual memory:
// an entry exists only while some goroutine holds or waits on its key.
type pairMutex struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the mutex for key and returns its release function.
func (p *pairMutex) lock(key string) func() {
	p.mu.Lock()
	if p.locks == nil {
		p.locks = make(map[string]*pairLock)
	}
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}
