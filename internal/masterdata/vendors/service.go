package vendors

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/textileco/pettycash/internal/masterdata/shared"
	internalShared "github.com/textileco/pettycash/internal/shared"
)

type Service struct {
	repo    Repository
	emitter internalShared.Emitter
}

func NewService(repo Repository, emitter internalShared.Emitter) *Service {
	if emitter == nil {
		emitter = internalShared.NopEmitter{}
	}
	return &Service{repo: repo, emitter: emitter}
}

// List is open to every authenticated user.
func (s *Service) List(ctx context.Context, actor internalShared.Actor, filters shared.ListFilters) ([]Vendor, error) {
	if actor.ID == uuid.Nil {
		return nil, internalShared.ErrUnauthorized
	}
	return s.repo.List(ctx, filters)
}

// Create registers an active vendor. Any authenticated user may add vendors
// met while purchasing.
func (s *Service) Create(ctx context.Context, actor internalShared.Actor, vendor Vendor) (Vendor, error) {
	if actor.ID == uuid.Nil {
		return Vendor{}, internalShared.ErrUnauthorized
	}
	vendor.Name = strings.TrimSpace(vendor.Name)
	if err := s.validate(vendor); err != nil {
		return Vendor{}, err
	}
	vendor.ID = uuid.New()
	vendor.Active = true
	if err := s.repo.Create(ctx, vendor); err != nil {
		return Vendor{}, err
	}
	s.audit(ctx, actor, vendor.ID, "CREATE", nil, vendor)
	return vendor, nil
}

func (s *Service) Update(ctx context.Context, actor internalShared.Actor, id uuid.UUID, patch Patch) error {
	if err := internalShared.RequireRole(actor, internalShared.RoleAccountant); err != nil {
		return err
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("%w: vendor name cannot be blank", internalShared.ErrValidation)
	}
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return err
	}
	s.audit(ctx, actor, id, "UPDATE", before, patch)
	return nil
}

// Delete deactivates the vendor; purchase history keeps referencing it.
func (s *Service) Delete(ctx context.Context, actor internalShared.Actor, id uuid.UUID) error {
	if err := internalShared.RequireRole(actor, internalShared.RoleAccountant); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, actor, id, "DELETE", nil, nil)
	return nil
}

func (s *Service) audit(ctx context.Context, actor internalShared.Actor, id uuid.UUID, action string, before, after any) {
	var events internalShared.Events
	events.Audit(internalShared.AuditLog{ActorID: actor.ID, Entity: "Vendor", EntityID: id, Action: action, Before: before, After: after})
	s.emitter.Emit(ctx, events)
}
