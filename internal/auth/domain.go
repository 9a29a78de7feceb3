package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/textileco/pettycash/internal/shared"
)

// Account is the credential view of a user.
type Account struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         shared.Role
	Department   string
	Status       string
}

// Active reports whether the account may log in.
func (a Account) Active() bool {
	return a.Status == "ACTIVE"
}

// Profile is the public view of the authenticated user.
type Profile struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       shared.Role `json:"role"`
	Department string      `json:"department"`
	Phone      string      `json:"phone,omitempty"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      Profile   `json:"user"`
}

// Claims carried by an access token.
type Claims struct {
	UserID     uuid.UUID   `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       shared.Role `json:"role"`
	Department string      `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the caller identity used by services.
func (c Claims) Actor() shared.Actor {
	return shared.Actor{ID: c.UserID, Role: c.Role, Name: c.Name}
}
