package model

import (
	"github.com/google/uuid"
)

// DefaultPassingScore is applied when a course is created without an
// explicit passing score.
const DefaultPassingScore = 50

// Question is a single multiple-choice question as stored in the course
// bank. Answer is the zero-based index into Options.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// Course represents a course and its question bank. Immutable after
// creation except through explicit delete.
type Course struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Title        string     `json:"title"`
	Avatar       string     `json:"avatar"`
	CreationDate int64      `json:"creation_date"` // epoch ms
	ReleaseDate  int64      `json:"release_date"`  // epoch ms; test unavailable before this
	PasswordHash string     `json:"-"`             // empty = unprotected
	Questions    []Question `json:"-"`
	// QuestionsCount is how many questions are drawn per attempt.
	QuestionsCount int   `json:"questions_count"`
	PassingScore   int   `json:"passing_score"` // percentage threshold
	Duration       int64 `json:"duration"`      // ms allotted per question
}

// IsProtected reports whether starting a test on this course requires a
// password.
func (c *Course) IsProtected() bool {
	return c.PasswordHash != ""
}

// TotalBudget returns the full time budget of one attempt in milliseconds.
func (c *Course) TotalBudget() int64 {
	return c.Duration * int64(c.QuestionsCount)
}

// CourseSummary is the course view returned to regular users: no
// questions, no answers, only whether a password is required.
type CourseSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	Avatar       string    `json:"avatar"`
	Protected    bool      `json:"protected"`
	CreationDate int64     `json:"creation_date"`
	ReleaseDate  int64     `json:"release_date"`
	Questions    int       `json:"questions"`
	PassingScore int       `json:"passing_score"`
	Duration     int64     `json:"duration"`
	ActiveTest   bool      `json:"active_test"`
}

// Summary builds the user-facing view of a course. active marks whether
// the viewing user has an in-progress test on it.
func (c *Course) Summary(active bool) CourseSummary {
	return CourseSummary{
		ID:           c.ID,
		Name:         c.Name,
		Title:        c.Title,
		Avatar:       c.Avatar,
		Protected:    c.IsProtected(),
		CreationDate: c.CreationDate,
		ReleaseDate:  c.ReleaseDate,
		Questions:    c.QuestionsCount,
		PassingScore: c.PassingScore,
		Duration:     c.Duration,
		ActiveTest:   active,
	}
}

// CreateCourseRequest is the payload for creating a new course. Questions
// arrive as a JSON string since the request is a multipart form carrying
// the course avatar alongside.
type CreateCourseRequest struct {
	Name           string `form:"name" binding:"required"`
	Title          string `form:"title" binding:"required"`
	ReleaseDate    int64  `form:"release_date"`
	Questions      string `form:"questions" binding:"required"`
	QuestionsCount int    `form:"questions_count" binding:"required"`
	PassingScore   int    `form:"passing_score"`
	Duration       int64  `form:"duration" binding:"required,min=1000"`
	Password       string `form:"password"`
}
