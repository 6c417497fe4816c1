package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/studyhall/studyhall-backend/internal/config"
	"github.com/studyhall/studyhall-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalid     = errors.New("session no longer active")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Admin    bool      `json:"admin"`
}

// Examinee returns the engine-facing identity carried in the token.
func (c *Claims) Examinee() model.Examinee {
	return model.Examinee{ID: c.UserID, Username: c.Username, Name: c.Name}
}

// AuthService handles password hashing, JWT issuance and the Redis
// session registry.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken creates a JWT for a user and registers the session in
// Redis so logout can invalidate tokens before they expire.
func (s *AuthService) GenerateToken(ctx context.Context, user *model.User) (string, error) {
	sessionID := uuid.New().String()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.JWTExpiry)),
		},
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
		Admin:    user.Admin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	sessionKey := config.CacheKey.UserSessionKey(user.ID.String())
	if err := s.rdb.Set(ctx, sessionKey, sessionID, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("register session: %w", err)
	}

	return signed, nil
}

// ValidateToken parses a JWT and checks it against the Redis session
// registry. A token whose session was invalidated is rejected even if
// it has not expired.
func (s *AuthService) ValidateToken(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	sessionKey := config.CacheKey.UserSessionKey(claims.UserID.String())
	current, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("check session: %w", err)
	}
	if current != claims.ID {
		return nil, ErrSessionInvalid
	}

	return claims, nil
}

// InvalidateSession removes a user's session registration (logout).
func (s *AuthService) InvalidateSession(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.UserSessionKey(userID.String())).Err()
}
