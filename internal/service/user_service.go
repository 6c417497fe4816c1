package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-backend/internal/model"
	"github.com/studyhall/studyhall-backend/internal/repository"
)

// User account errors.
var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrNoResults    = errors.New("no results available")
)

// DefaultAvatar is assigned to accounts created without an avatar.
const DefaultAvatar = "/uploads/default.png"

// UserService handles accounts: registration, profile aggregation and
// the admin maintenance operations.
type UserService struct {
	userRepo    *repository.UserRepository
	sessionRepo *repository.SessionRepository
	resultRepo  *repository.ResultRepository
	auth        *AuthService
	events      EventTrail
	log         zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo *repository.UserRepository,
	sessionRepo *repository.SessionRepository,
	resultRepo *repository.ResultRepository,
	auth *AuthService,
	events EventTrail,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		resultRepo:  resultRepo,
		auth:        auth,
		events:      events,
		log:         log.With().Str("component", "user_service").Logger(),
	}
}

// Register creates a new account.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Name:         req.Name,
		Avatar:       DefaultAvatar,
		PasswordHash: hash,
		CreationDate: time.Now().UnixMilli(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.events.Status(ctx, fmt.Sprintf("New user registered: '%s'", user.Username))
	return user, nil
}

// Login authenticates a user by username and password.
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID retrieves a user account.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// Profile builds the aggregated view of a user: the account, the result
// history (newest first) and pass counters.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	results, err := s.resultRepo.ListByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	summaries := make([]model.ResultSummary, 0, len(results))
	passed := 0
	for i := range results {
		if results[i].Passed {
			passed++
		}
		summaries = append(summaries, results[i].Summarize())
	}

	active, err := s.sessionRepo.CountByUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count active tests: %w", err)
	}

	return &model.Profile{
		ID:           user.ID,
		Username:     user.Username,
		Name:         user.Name,
		Avatar:       user.Avatar,
		CreationDate: user.CreationDate,
		Admin:        user.Admin,
		ActiveTests:  active,
		Results:      summaries,
		TestsTaken:   len(summaries),
		TestsPassed:  passed,
	}, nil
}

// List retrieves all user accounts.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

// SetAvatar updates a user's avatar path.
func (s *UserService) SetAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	return s.userRepo.SetAvatar(ctx, id, avatar)
}

// ToggleAdmin grants or revokes admin privileges.
func (s *UserService) ToggleAdmin(ctx context.Context, username string, admin bool) error {
	updated, err := s.userRepo.SetAdmin(ctx, username, admin)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if !updated {
		return ErrUserNotFound
	}
	verb := "revoked from"
	if admin {
		verb = "granted to"
	}
	s.events.Status(ctx, fmt.Sprintf("Admin privileges %s user '%s'", verb, username))
	return nil
}

// WipeResults deletes all results of a user.
func (s *UserService) WipeResults(ctx context.Context, username string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}
	deleted, err := s.resultRepo.DeleteByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	if deleted == 0 {
		return ErrNoResults
	}
	s.events.Warning(ctx, fmt.Sprintf("Results of user '%s' wiped", username))
	return nil
}

// Delete removes a user account.
func (s *UserService) Delete(ctx context.Context, username string) error {
	deleted, err := s.userRepo.Delete(ctx, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}
	s.events.Warning(ctx, fmt.Sprintf("User account '%s' deleted", username))
	return nil
}
