package model

import (
	"github.com/google/uuid"
)

// Result is a finalized, scored test attempt. Immutable once created;
// at most one exists per (user, course) pair.
type Result struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Username        string    `json:"username"`
	Name            string    `json:"name"`
	CourseID        uuid.UUID `json:"course_id"`
	CourseName      string    `json:"course_name"`
	CourseTitle     string    `json:"course_title"`
	Score           float64   `json:"score"` // 0-100
	PassingScore    int       `json:"passing_score"`
	Passed          bool      `json:"passed"`
	PassedQuestions []string  `json:"passed_questions"`
	FailedQuestions []string  `json:"failed_questions"`
	Date            int64     `json:"date"`     // epoch ms
	Duration        int64     `json:"duration"` // actual elapsed ms, capped to the budget
}

// ResultSummary is the per-result view embedded in a user profile:
// question id sets are collapsed to counts.
type ResultSummary struct {
	CourseID        uuid.UUID `json:"course_id"`
	CourseName      string    `json:"course_name"`
	CourseTitle     string    `json:"course_title"`
	Score           float64   `json:"score"`
	PassingScore    int       `json:"passing_score"`
	Passed          bool      `json:"passed"`
	PassedQuestions int       `json:"passed_questions"`
	FailedQuestions int       `json:"failed_questions"`
	Date            int64     `json:"date"`
	Duration        int64     `json:"duration"`
}

// Summarize collapses a result for profile display.
func (r *Result) Summarize() ResultSummary {
	return ResultSummary{
		CourseID:        r.CourseID,
		CourseName:      r.CourseName,
		CourseTitle:     r.CourseTitle,
		Score:           r.Score,
		PassingScore:    r.PassingScore,
		Passed:          r.Passed,
		PassedQuestions: len(r.PassedQuestions),
		FailedQuestions: len(r.FailedQuestions),
		Date:            r.Date,
		Duration:        r.Duration,
	}
}
