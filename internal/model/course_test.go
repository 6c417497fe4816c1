package model

import "testing"

func TestCourseSummaryHidesQuestions(t *testing.T) {
	course := &Course{
		Name:         "algebra",
		Title:        "Algebra Basics",
		PasswordHash: "$2a$10$hash",
		Questions: []Question{
			{ID: "a", Prompt: "p", Options: []string{"x", "y"}, Answer: 1},
		},
		QuestionsCount: 1,
		PassingScore:   60,
		Duration:       60_000,
	}

	sum := course.Summary(true)

	if !sum.Protected {
		t.Error("hashed password must surface as protected")
	}
	if sum.Questions != 1 {
		t.Errorf("question count = %d, want 1", sum.Questions)
	}
	if !sum.ActiveTest {
		t.Error("active flag lost")
	}
}

func TestTotalBudget(t *testing.T) {
	course := &Course{QuestionsCount: 5, Duration: 60_000}
	if got := course.TotalBudget(); got != 300_000 {
		t.Errorf("budget = %d, want 300000", got)
	}
}

func TestQuestionIDs(t *testing.T) {
	test := &ActiveTest{Questions: []TestQuestion{{ID: "a"}, {ID: "b"}}}

	ids := test.QuestionIDs()
	if len(ids) != 2 {
		t.Fatalf("len = %d, want 2", len(ids))
	}
	if _, ok := ids["a"]; !ok {
		t.Error("id a missing")
	}
	if _, ok := ids["zzz"]; ok {
		t.Error("foreign id present")
	}
}
