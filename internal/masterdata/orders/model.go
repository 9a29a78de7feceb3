package orders

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

// Order represents a buyer's production order that purchases are booked against
type Order struct {
	ID        uuid.UUID  `json:"id"`
	OrderNo   string     `json:"order_no"`
	BuyerID   uuid.UUID  `json:"buyer_id"`
	BuyerName string     `json:"buyer_name"`
	Style     string     `json:"style"`
	Season    string     `json:"season"`
	Remarks   string     `json:"remarks"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Style     *string
	Season    *string
	Remarks   *string
	StartDate *time.Time
	EndDate   *time.Time
	Status    *string
}
