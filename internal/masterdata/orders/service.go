package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/textileco/pettycash/internal/masterdata/shared"
	internalShared "github.com/textileco/pettycash/internal/shared"
)

type Service struct {
	repo    Repository
	emitter internalShared.Emitter
	now     func() time.Time
}

func NewService(repo Repository, emitter internalShared.Emitter) *Service {
	if emitter == nil {
		emitter = internalShared.NopEmitter{}
	}
	return &Service{repo: repo, emitter: emitter, now: time.Now}
}

func (s *Service) List(ctx context.Context, actor internalShared.Actor, filters shared.ListFilters) ([]Order, error) {
	if actor.ID == uuid.Nil {
		return nil, internalShared.ErrUnauthorized
	}
	return s.repo.List(ctx, filters)
}

// Create stores an order, numbering it when no order_no is supplied. A
// colliding number fails with ErrConflict.
func (s *Service) Create(ctx context.Context, actor internalShared.Actor, o Order) (Order, error) {
	if err := internalShared.RequireRole(actor, internalShared.RoleAccountant, internalShared.RoleStoreManager); err != nil {
		return Order{}, err
	}
	if err := s.validate(o); err != nil {
		return Order{}, err
	}
	o.OrderNo = strings.TrimSpace(o.OrderNo)
	if o.OrderNo == "" {
		n, err := s.repo.Count(ctx)
		if err != nil {
			return Order{}, err
		}
		o.OrderNo = FormatOrderNo(s.now().Year(), n)
	}
	if o.Status == "" {
		o.Status = StatusActive
	}
	o.ID = uuid.New()
	if err := s.repo.Create(ctx, o); err != nil {
		return Order{}, err
	}
	var events internalShared.Events
	events.Audit(internalShared.AuditLog{ActorID: actor.ID, Entity: "Order", EntityID: o.ID, Action: "CREATE", After: o})
	s.emitter.Emit(ctx, events)
	return o, nil
}

func (s *Service) Update(ctx context.Context, actor internalShared.Actor, id uuid.UUID, p Patch) error {
	if err := internalShared.RequireRole(actor, internalShared.RoleAccountant); err != nil {
		return err
	}
	if p.Status != nil && !validStatus(*p.Status) {
		return fmt.Errorf("%w: unknown order status %q", internalShared.ErrValidation, *p.Status)
	}
	if err := validateDates(p.StartDate, p.EndDate); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		return err
	}
	var events internalShared.Events
	events.Audit(internalShared.AuditLog{ActorID: actor.ID, Entity: "Order", EntityID: id, Action: "UPDATE", After: p})
	s.emitter.Emit(ctx, events)
	return nil
}
