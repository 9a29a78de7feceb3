package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/textileco/pettycash/internal/shared"
)

// Store persists notifications.
type Store interface {
	InsertNotifications(ctx context.Context, rows []Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

// Service serves the per-user inbox.
type Service struct {
	store Store
}

// NewService builds Service instance.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Inbox returns the latest notifications of the actor.
func (s *Service) Inbox(ctx context.Context, actor shared.Actor) (Inbox, error) {
	if actor.ID == uuid.Nil {
		return Inbox{}, shared.ErrUnauthorized
	}
	rows, err := s.store.ListForUser(ctx, actor.ID, InboxLimit)
	if err != nil {
		return Inbox{}, err
	}
	unread, err := s.store.CountUnread(ctx, actor.ID)
	if err != nil {
		return Inbox{}, err
	}
	if rows == nil {
		rows = []Notification{}
	}
	return Inbox{Notifications: rows, UnreadCount: unread}, nil
}

// MarkAllRead marks every notification of the actor as read.
func (s *Service) MarkAllRead(ctx context.Context, actor shared.Actor) error {
	if actor.ID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	return s.store.MarkAllRead(ctx, actor.ID)
}

// MarkRead marks one notification as read. Notifications of other users are
// left untouched.
func (s *Service) MarkRead(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if actor.ID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	return s.store.MarkRead(ctx, actor.ID, id)
}
