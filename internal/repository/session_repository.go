package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studyhall/studyhall-backend/internal/model"
)

// SessionRepository is the active-test registry: one row per in-progress
// attempt, keyed by (user_id, course_id). The sampled questions and the
// user's current answers live in a JSONB column.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Get retrieves the in-progress test for a (user, course) pair.
func (r *SessionRepository) Get(ctx context.Context, userID, courseID uuid.UUID) (*model.ActiveTest, error) {
	t := &model.ActiveTest{}
	err := r.pool.QueryRow(ctx,
		`SELECT course_id, start_time, finish_time, questions
		 FROM active_tests
		 WHERE user_id = $1 AND course_id = $2`, userID, courseID,
	).Scan(&t.CourseID, &t.StartTime, &t.FinishTime, &t.Questions)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Upsert inserts the session on Start and overwrites it in place on
// Submit. The (user_id, course_id) primary key enforces the one-active-
// test-per-course invariant.
func (r *SessionRepository) Upsert(ctx context.Context, userID uuid.UUID, t *model.ActiveTest) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO active_tests (user_id, course_id, start_time, finish_time, questions)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, course_id) DO UPDATE
		 SET questions = EXCLUDED.questions`,
		userID, t.CourseID, t.StartTime, t.FinishTime, t.Questions)
	return err
}

// Delete removes the session on Finalize.
func (r *SessionRepository) Delete(ctx context.Context, userID, courseID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM active_tests WHERE user_id = $1 AND course_id = $2`,
		userID, courseID)
	return err
}

// ListByUser retrieves all in-progress tests of a user, oldest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ActiveTest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT course_id, start_time, finish_time, questions
		 FROM active_tests
		 WHERE user_id = $1
		 ORDER BY start_time ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tests []model.ActiveTest
	for rows.Next() {
		var t model.ActiveTest
		if err := rows.Scan(&t.CourseID, &t.StartTime, &t.FinishTime, &t.Questions); err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// CountByUser returns how many tests a user currently has in progress.
func (r *SessionRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM active_tests WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// DeleteByCourse removes all in-progress tests of a course. Used when a
// course is deleted so orphaned sessions cannot be finalized.
func (r *SessionRepository) DeleteByCourse(ctx context.Context, courseID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM active_tests WHERE course_id = $1`, courseID)
	return err
}
