package buyers

import (
	"time"

	"github.com/google/uuid"
)

// Buyer represents a garment buyer whose orders drive material purchases
type Buyer struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	ContactDetails string    `json:"contact_details"`
	Notes          string    `json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name           *string `json:"name" validate:"omitempty,max=200"`
	Code           *string `json:"code" validate:"omitempty,max=20"`
	ContactDetails *string `json:"contact_details"`
	Notes          *string `json:"notes"`
}
