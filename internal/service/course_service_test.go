package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-backend/internal/model"
	"github.com/studyhall/studyhall-backend/internal/random"
	"golang.org/x/crypto/bcrypt"
)

// newBareCourseService builds a service without repositories. Only paths
// that reject before touching storage may be exercised with it.
func newBareCourseService(t *testing.T) *CourseService {
	t.Helper()
	return NewCourseService(nil, nil, nil, random.NewSeeded(1), &fakeTrail{}, bcrypt.MinCost, zerolog.Nop())
}

func TestCreateRejectsBadNames(t *testing.T) {
	svc := newBareCourseService(t)

	for _, name := range []string{"", "ab", "toolongcoursename17", "white space", "dash-ed"} {
		_, err := svc.Create(context.Background(), &model.CreateCourseRequest{
			Name:  name,
			Title: "A Valid Title",
		}, "")
		if !errors.Is(err, ErrInvalidCourseName) {
			t.Errorf("name %q: err = %v, want ErrInvalidCourseName", name, err)
		}
	}
}

func TestCreateRejectsBadTitles(t *testing.T) {
	svc := newBareCourseService(t)

	for _, title := range []string{"", "tiny"} {
		_, err := svc.Create(context.Background(), &model.CreateCourseRequest{
			Name:  "algebra",
			Title: title,
		}, "")
		if !errors.Is(err, ErrInvalidCourseTitle) {
			t.Errorf("title %q: err = %v, want ErrInvalidCourseTitle", title, err)
		}
	}
}

func TestSampleQuestionsDrawsConfiguredCount(t *testing.T) {
	svc := newBareCourseService(t)

	questions := make([]model.Question, 10)
	for i := range questions {
		questions[i] = model.Question{ID: string(rune('a' + i)), Prompt: "p", Options: []string{"x", "y"}}
	}
	course := &model.Course{Questions: questions, QuestionsCount: 4}

	sampled := svc.SampleQuestions(course)
	if len(sampled) != 4 {
		t.Fatalf("sampled %d, want 4", len(sampled))
	}

	seen := make(map[string]struct{}, len(sampled))
	for _, q := range sampled {
		if _, dup := seen[q.ID]; dup {
			t.Fatalf("question %s drawn twice", q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	// The original bank must survive the shuffle untouched.
	for i, q := range course.Questions {
		if q.ID != string(rune('a'+i)) {
			t.Fatal("sampling mutated the course question bank")
		}
	}
}

func TestCheckPassword(t *testing.T) {
	svc := newBareCourseService(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	protected := &model.Course{PasswordHash: string(hash)}
	if !svc.CheckPassword(protected, "secret") {
		t.Error("correct password rejected")
	}
	if svc.CheckPassword(protected, "wrong") {
		t.Error("wrong password accepted")
	}

	// Unprotected courses never authenticate, even with an empty guess.
	open := &model.Course{}
	if svc.CheckPassword(open, "") {
		t.Error("unprotected course must not authenticate")
	}
}
