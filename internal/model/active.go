package model

import (
	"github.com/google/uuid"
)

// AnswerUnset is the sentinel answer value for a question the user has
// not answered yet.
const AnswerUnset = -1

// TestQuestion is a question copied into an active test. It never
// carries the correct option; Answer holds the user's current pick.
type TestQuestion struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// ActiveTest is an in-progress, time-boxed test attempt for one user on
// one course. The question subset is fixed at creation and is never
// resampled on resume.
type ActiveTest struct {
	CourseID   uuid.UUID      `json:"course_id"`
	StartTime  int64          `json:"start_time"`  // epoch ms
	FinishTime int64          `json:"finish_time"` // StartTime + duration*questionsCount
	Questions  []TestQuestion `json:"questions"`
}

// QuestionIDs returns the set of question ids legitimately in scope for
// this attempt. Any submitted id outside it is a cheating signal.
func (t *ActiveTest) QuestionIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(t.Questions))
	for _, q := range t.Questions {
		ids[q.ID] = struct{}{}
	}
	return ids
}

// AnswerUpdate is one {question id, selected option} pair of a Submit
// request.
type AnswerUpdate struct {
	ID     string `json:"id" binding:"required"`
	Answer int    `json:"answer"`
}

// SubmitAnswersRequest is the payload for updating answers of an active
// test. Finished marks the attempt for immediate finalization.
type SubmitAnswersRequest struct {
	CourseID uuid.UUID      `json:"course_id" binding:"required"`
	Answers  []AnswerUpdate `json:"answers" binding:"required,dive"`
	Finished bool           `json:"finished"`
}

// StartTestRequest is the payload for starting (or resuming) a test.
// Password is only consulted on a fresh start of a protected course.
type StartTestRequest struct {
	CourseID uuid.UUID `json:"course_id" binding:"required"`
	Password string    `json:"password"`
}
