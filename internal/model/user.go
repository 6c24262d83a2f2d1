// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// JSON names follow the public API contract (Portuguese, mixed casing kept
// for compatibility with existing clients).
//
// PasswordHash carries the bcrypt digest between the repository and the
// services that need it (login, update). It is tagged `json:"-"` so no
// encoder ever writes it, and services clear it before returning a User.
//
// ExternalID is the optional registration id ("idRegistro"). A nil pointer
// serializes as null, which is what clients expect for "not set".
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	ExternalID   *string   `json:"idRegistro"`
	PasswordHash string    `json:"-"`
	PointsTotal  int       `json:"pontuacao_total"`
	Level        int       `json:"nivel"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Default values for a freshly registered user.
const (
	DefaultPointsTotal = 0
	DefaultLevel       = 1
)

// Public returns a copy of the user with the password digest removed.
func (u User) Public() *User {
	u.PasswordHash = ""
	return &u
}

// NewUser is the registration payload.
type NewUser struct {
	Name       string  `json:"nome"`
	Email      string  `json:"email"`
	Password   string  `json:"senha"`
	ExternalID *string `json:"idRegistro"`
}

// UserChanges is the profile update payload. Every field records whether the
// client sent it, so "absent", "null" and "value" can be told apart.
//
// PointsTotal and Level are not updatable; they are decoded only so the
// service can reject payloads that try.
type UserChanges struct {
	Name        Patch[string] `json:"nome"`
	Email       Patch[string] `json:"email"`
	ExternalID  Patch[string] `json:"idRegistro"`
	Password    Patch[string] `json:"senha"`
	PointsTotal Patch[any]    `json:"pontuacao_total"`
	Level       Patch[any]    `json:"nivel"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}
