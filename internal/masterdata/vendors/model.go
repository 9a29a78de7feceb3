package vendors

import (
	"time"

	"github.com/google/uuid"
)

// Vendor represents a supplier paid from petty cash
type Vendor struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	GSTIN         string    `json:"gstin"`
	LedgerCode    string    `json:"ledger_code"`
	Notes         string    `json:"notes"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name          *string `json:"name" validate:"omitempty,max=200"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone" validate:"omitempty,max=30"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       *string `json:"address"`
	GSTIN         *string `json:"gstin" validate:"omitempty,max=15"`
	LedgerCode    *string `json:"ledger_code"`
	Notes         *string `json:"notes"`
	Active        *bool   `json:"active"`
}
