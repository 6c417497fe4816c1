package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studyhall/studyhall-backend/internal/model"
)

// ResultRepository is the append-only ledger of finalized attempts.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `id, user_id, username, name, course_id, course_name,
	course_title, score, passing_score, passed, passed_questions,
	failed_questions, date, duration`

// Insert records a finalized attempt. The unique (user_id, course_id)
// index makes duplicate finalization a hard error instead of a silent
// second result.
func (r *ResultRepository) Insert(ctx context.Context, res *model.Result) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO results
		 (id, user_id, username, name, course_id, course_name, course_title,
		  score, passing_score, passed, passed_questions, failed_questions,
		  date, duration)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		res.ID, res.UserID, res.Username, res.Name, res.CourseID, res.CourseName,
		res.CourseTitle, res.Score, res.PassingScore, res.Passed,
		res.PassedQuestions, res.FailedQuestions, res.Date, res.Duration)
	return err
}

// Exists reports whether a (user, course) pair has been finalized.
func (r *ResultRepository) Exists(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM results WHERE user_id = $1 AND course_id = $2)`,
		userID, courseID).Scan(&exists)
	return exists, err
}

// ListByUser retrieves a user's results, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Result, error) {
	return r.list(ctx,
		`SELECT `+resultColumns+` FROM results WHERE user_id = $1 ORDER BY date DESC`, userID)
}

// ListByCourse retrieves all results of a course, newest first.
func (r *ResultRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Result, error) {
	return r.list(ctx,
		`SELECT `+resultColumns+` FROM results WHERE course_id = $1 ORDER BY date DESC`, courseID)
}

// DeleteByCourse wipes all results of a course. Returns the number of
// rows removed.
func (r *ResultRepository) DeleteByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM results WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByUser wipes all results of a user. Returns the number of rows
// removed.
func (r *ResultRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM results WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ResultRepository) list(ctx context.Context, query string, args ...any) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(
			&res.ID, &res.UserID, &res.Username, &res.Name, &res.CourseID,
			&res.CourseName, &res.CourseTitle, &res.Score, &res.PassingScore,
			&res.Passed, &res.PassedQuestions, &res.FailedQuestions,
			&res.Date, &res.Duration,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
