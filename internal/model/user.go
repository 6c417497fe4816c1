package model

import (
	"github.com/google/uuid"
)

// User represents a platform account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"-"`
	CreationDate int64     `json:"creation_date"` // epoch ms
	Admin        bool      `json:"admin"`
}

// Examinee is the identity snapshot the exam engine stamps onto
// results. It is all the engine needs to know about a user.
type Examinee struct {
	ID       uuid.UUID
	Username string
	Name     string
}

// Examinee returns the engine-facing identity of this user.
func (u *User) Examinee() Examinee {
	return Examinee{ID: u.ID, Username: u.Username, Name: u.Name}
}

// Profile is the aggregated view of a user: account data plus result
// history and counters.
type Profile struct {
	ID           uuid.UUID       `json:"id"`
	Username     string          `json:"username"`
	Name         string          `json:"name"`
	Avatar       string          `json:"avatar"`
	CreationDate int64           `json:"creation_date"`
	Admin        bool            `json:"admin"`
	ActiveTests  int             `json:"active_tests"`
	Results      []ResultSummary `json:"results"`
	TestsTaken   int             `json:"tests_taken"`
	TestsPassed  int             `json:"tests_passed"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Name     string `json:"name" binding:"required,min=3,max=32"`
}

// LoginRequest is the payload for authenticating.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToggleAdminRequest grants or revokes the admin flag for a user.
type ToggleAdminRequest struct {
	Username string `json:"username" binding:"required"`
	Admin    bool   `json:"admin"`
}
