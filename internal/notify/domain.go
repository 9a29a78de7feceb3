// Package notify persists the audit records and notifications decided by
// committed domain operations and serves each user's notification inbox.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// InboxLimit caps the notifications returned by the inbox.
const InboxLimit = 50

// Notification is one message addressed to one user.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Inbox is the latest notifications of a user plus the unread total.
type Inbox struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}
