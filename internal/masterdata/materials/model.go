package materials

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultUnit applies when a material is created without a unit.
const DefaultUnit = "piece"

// Material represents a purchasable item such as thread, buttons or labels
type Material struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	UnitOfMeasure string              `json:"unit_of_measure"`
	DefaultRate   decimal.NullDecimal `json:"default_rate"`
	Notes         string              `json:"notes"`
	Active        bool                `json:"active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name          *string          `json:"name" validate:"omitempty,max=200"`
	Category      *string          `json:"category" validate:"omitempty,max=100"`
	UnitOfMeasure *string          `json:"unit_of_measure" validate:"omitempty,max=30"`
	DefaultRate   *decimal.Decimal `json:"default_rate"`
	Notes         *string          `json:"notes"`
	Active        *bool            `json:"active"`
}
