package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/textileco/pettycash/internal/shared"
)

// Status values of a user account.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// User represents a user account for management.
type User struct {
	ID         uuid.UUID   `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Role       shared.Role `json:"role"`
	Department string      `json:"department"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// CreateInput describes a new account.
type CreateInput struct {
	Name       string
	Email      string
	Phone      string
	Role       shared.Role
	Department string
	Password   string
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Name       *string
	Phone      *string
	Role       *shared.Role
	Department *string
	Status     *string
}
