package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studyhall/studyhall-backend/internal/model"
)

// CourseRepository handles course data access. The question bank is
// stored as JSONB alongside the course row.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

const courseColumns = `id, name, title, avatar, creation_date, release_date,
	password_hash, questions, questions_count, passing_score, duration`

// GetByID retrieves a full course, including questions and answers.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
}

// GetByName retrieves a course by its unique name.
func (r *CourseRepository) GetByName(ctx context.Context, name string) (*model.Course, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE name = $1`, name))
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO courses
		 (id, name, title, avatar, creation_date, release_date,
		  password_hash, questions, questions_count, passing_score, duration)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.Name, c.Title, c.Avatar, c.CreationDate, c.ReleaseDate,
		c.PasswordHash, c.Questions, c.QuestionsCount, c.PassingScore, c.Duration)
	return err
}

// List retrieves all courses ordered by creation date, newest first.
func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY creation_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Title, &c.Avatar, &c.CreationDate, &c.ReleaseDate,
			&c.PasswordHash, &c.Questions, &c.QuestionsCount, &c.PassingScore, &c.Duration,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Delete removes a course. Returns pgx.ErrNoRows semantics via the
// affected row count.
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CourseRepository) scanOne(row rowScanner) (*model.Course, error) {
	c := &model.Course{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Title, &c.Avatar, &c.CreationDate, &c.ReleaseDate,
		&c.PasswordHash, &c.Questions, &c.QuestionsCount, &c.PassingScore, &c.Duration,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
