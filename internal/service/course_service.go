package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-backend/internal/model"
	"github.com/studyhall/studyhall-backend/internal/random"
	"github.com/studyhall/studyhall-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Course validation errors. All are raised before any mutation.
var (
	ErrInvalidCourseName   = errors.New("course name must be 3-16 alphanumeric characters")
	ErrDuplicateCourseName = errors.New("course with the given name already exists")
	ErrInvalidCourseTitle  = errors.New("course title must be 5-100 characters")
	ErrBadQuestions        = errors.New("questions must be a non-empty array of valid questions")
	ErrTooFewQuestions     = errors.New("a course must have at least 5 questions")
	ErrBadQuestionCount    = errors.New("questions per test must be between 1 and the total question count")
	ErrCourseNotFound      = errors.New("course not found")
)

// MinCourseQuestions is the smallest question bank a course may carry.
const MinCourseQuestions = 5

// questionIDBytes is the entropy of generated question IDs (hex-encoded).
const questionIDBytes = 20

var courseNameRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// CourseService owns the immutable course catalog: creation, lookup,
// password gating and question sampling.
type CourseService struct {
	courseRepo  *repository.CourseRepository
	sessionRepo *repository.SessionRepository
	resultRepo  *repository.ResultRepository
	rng         random.Source
	events      EventTrail
	bcryptCost  int
	log         zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(
	courseRepo *repository.CourseRepository,
	sessionRepo *repository.SessionRepository,
	resultRepo *repository.ResultRepository,
	rng random.Source,
	events EventTrail,
	bcryptCost int,
	log zerolog.Logger,
) *CourseService {
	return &CourseService{
		courseRepo:  courseRepo,
		sessionRepo: sessionRepo,
		resultRepo:  resultRepo,
		rng:         rng,
		events:      events,
		bcryptCost:  bcryptCost,
		log:         log.With().Str("component", "course_service").Logger(),
	}
}

// Create validates a course spec and inserts it. Every question gets a
// fresh random ID so IDs never collide or leak across courses.
func (s *CourseService) Create(ctx context.Context, req *model.CreateCourseRequest, avatar string) (*model.Course, error) {
	if len(req.Name) < 3 || len(req.Name) > 16 || !courseNameRe.MatchString(req.Name) {
		return nil, ErrInvalidCourseName
	}
	if len(req.Title) < 5 || len(req.Title) > 100 {
		return nil, ErrInvalidCourseTitle
	}

	if _, err := s.courseRepo.GetByName(ctx, req.Name); err == nil {
		return nil, ErrDuplicateCourseName
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check course name: %w", err)
	}

	var questions []model.Question
	if err := json.Unmarshal([]byte(req.Questions), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuestions, err)
	}
	if len(questions) < MinCourseQuestions {
		return nil, ErrTooFewQuestions
	}
	for i := range questions {
		q := &questions[i]
		if q.Prompt == "" || len(q.Options) < 2 || q.Answer < 0 || q.Answer >= len(q.Options) {
			return nil, ErrBadQuestions
		}
		q.ID = s.rng.Hex(questionIDBytes)
	}
	if req.QuestionsCount < 1 || req.QuestionsCount > len(questions) {
		return nil, ErrBadQuestionCount
	}

	passingScore := req.PassingScore
	if passingScore == 0 {
		passingScore = model.DefaultPassingScore
	}

	course := &model.Course{
		ID:             uuid.New(),
		Name:           req.Name,
		Title:          req.Title,
		Avatar:         avatar,
		CreationDate:   time.Now().UnixMilli(),
		ReleaseDate:    req.ReleaseDate,
		Questions:      questions,
		QuestionsCount: req.QuestionsCount,
		PassingScore:   passingScore,
		Duration:       req.Duration,
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash course password: %w", err)
		}
		course.PasswordHash = string(hash)
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.events.Status(ctx, fmt.Sprintf("Course '%s' created", course.Name))
	s.log.Info().Str("course", course.Name).Int("questions", len(questions)).Msg("Course created")
	return course, nil
}

// GetByID retrieves a full course, including answers. Callers must not
// hand this to users without stripping.
func (s *CourseService) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	return course, err
}

// Summary returns the user-facing view of one course, with the active
// test flag resolved against the viewer's registry.
func (s *CourseService) Summary(ctx context.Context, userID, courseID uuid.UUID) (*model.CourseSummary, error) {
	course, err := s.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	active := true
	if _, err := s.sessionRepo.Get(ctx, userID, courseID); errors.Is(err, pgx.ErrNoRows) {
		active = false
	} else if err != nil {
		return nil, fmt.Errorf("check active test: %w", err)
	}
	summary := course.Summary(active)
	return &summary, nil
}

// List returns the user-facing views of all courses.
func (s *CourseService) List(ctx context.Context, userID uuid.UUID) ([]model.CourseSummary, error) {
	courses, err := s.courseRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	tests, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active tests: %w", err)
	}
	active := make(map[uuid.UUID]struct{}, len(tests))
	for _, t := range tests {
		active[t.CourseID] = struct{}{}
	}

	summaries := make([]model.CourseSummary, 0, len(courses))
	for i := range courses {
		_, ok := active[courses[i].ID]
		summaries = append(summaries, courses[i].Summary(ok))
	}
	return summaries, nil
}

// Delete removes a course along with its results and any in-progress
// tests, so orphaned sessions can never be finalized against a missing
// course.
func (s *CourseService) Delete(ctx context.Context, id uuid.UUID) error {
	course, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.courseRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if !deleted {
		return ErrCourseNotFound
	}
	if _, err := s.resultRepo.DeleteByCourse(ctx, id); err != nil {
		return fmt.Errorf("delete course results: %w", err)
	}
	if err := s.sessionRepo.DeleteByCourse(ctx, id); err != nil {
		return fmt.Errorf("delete course sessions: %w", err)
	}
	s.events.Status(ctx, fmt.Sprintf("Course '%s' deleted", course.Name))
	return nil
}

// WipeResults deletes all results of a course. Returns the number of
// results removed.
func (s *CourseService) WipeResults(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return 0, err
	}
	return s.resultRepo.DeleteByCourse(ctx, id)
}

// Results lists all finalized attempts on a course, newest first.
func (s *CourseService) Results(ctx context.Context, id uuid.UUID) ([]model.Result, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.resultRepo.ListByCourse(ctx, id)
}

// SampleQuestions draws the fixed question subset for a fresh attempt:
// a uniform shuffle of the full bank truncated to the configured count.
func (s *CourseService) SampleQuestions(c *model.Course) []model.Question {
	sampled := make([]model.Question, len(c.Questions))
	copy(sampled, c.Questions)
	s.rng.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	return sampled[:c.QuestionsCount]
}

// CheckPassword verifies a plaintext course password against the stored
// hash. Always false for unprotected courses.
func (s *CourseService) CheckPassword(c *model.Course, password string) bool {
	if !c.IsProtected() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}
