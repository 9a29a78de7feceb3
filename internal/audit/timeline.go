package audit

import (
	"time"

	"github.com/google/uuid"
)

// TimelineFilters narrows the audit timeline.
type TimelineFilters struct {
	From     *time.Time
	To       *time.Time
	ActorID  *uuid.UUID
	Entity   string
	EntityID *uuid.UUID
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one audit entry joined with the acting user's name.
type TimelineRow struct {
	ID        uuid.UUID  `json:"id"`
	At        time.Time  `json:"at"`
	ActorID   *uuid.UUID `json:"actor_id"`
	ActorName string     `json:"actor_name"`
	Action    string     `json:"action"`
	Entity    string     `json:"entity_type"`
	EntityID  uuid.UUID  `json:"entity_id"`
	Before    []byte     `json:"-"`
	After     []byte     `json:"-"`
	IP        string     `json:"ip_address,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
}

// PagingInfo holds simple pagination metadata.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps a timeline page.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}
