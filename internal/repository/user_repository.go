package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/studyhall/studyhall-backend/internal/model"
)

// UserRepository handles user account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, name, avatar, password_hash, creation_date, admin`

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, name, avatar, password_hash, creation_date, admin)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Name, u.Avatar, u.PasswordHash, u.CreationDate, u.Admin)
	return err
}

// List retrieves all users, oldest account first.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY creation_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Avatar,
			&u.PasswordHash, &u.CreationDate, &u.Admin); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetAdmin grants or revokes the admin flag. Returns false if no such
// user exists.
func (r *UserRepository) SetAdmin(ctx context.Context, username string, admin bool) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET admin = $1 WHERE username = $2`, admin, username)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SetAvatar updates a user's avatar path.
func (r *UserRepository) SetAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET avatar = $1 WHERE id = $2`, avatar, id)
	return err
}

// Delete removes a user account. Returns false if no such user exists.
func (r *UserRepository) Delete(ctx context.Context, username string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *UserRepository) scanOne(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Avatar,
		&u.PasswordHash, &u.CreationDate, &u.Admin)
	if err != nil {
		return nil, err
	}
	return u, nil
}
