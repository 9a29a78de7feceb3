package materials

import (
	"context"
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

// List returns active materials grouped by category.
func (s *Service) List(ctx context.Context, actor internalShared.Actor, filters shared.ListFilters) ([]Material, error) {
	if actor.ID == uuid.Nil {
		return nil, internalShared.ErrUnauthorized
	}
	return s.repo.ListActive(ctx, filters)
}

func (s *Service) Create(ctx context.Context, actor internalShared.Actor, m Material) (Material, error) {
	if err := internalShared.RequireRole(actor, internalShared.RoleAccountant, internalShared.RoleStoreManager); err != nil {
		return Material{}, err
	}
	m.Name = strings.TrimSpace(m.Name)
	if err := s.validate(m); err != nil {
		return Material{}, err
	}
	if strings.TrimSpace(m.UnitOfMeasure) == "" {
		m.UnitOfMeasure = DefaultUnit
	}
	m.ID = uuid.New()
	m.Active = true
	if err := s.repo.Create(ctx, m); err != nil {
		return Material{}, err
	}
	s.audit(ctx, actor, m.ID, "CREATE", nil, m)
	return m, nil
}

func (s *Service) Update(ctx context.Context, actor internalShared.Actor, id uuid.UUID, p Patch) error {
	if err := internalShared.RequireRole(actor, internalShared.RoleAccountant); err != nil {
		return err
	}
	if p.DefaultRate != nil {
		if err := validateRate(*p.DefaultRate); err != nil {
			return err
		}
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		return err
	}
	s.audit(ctx, actor, id, "UPDATE", nil, p)
	return nil
}

func (s *Service) audit(ctx context.Context, actor internalShared.Actor, id uuid.UUID, action string, before, after any) {
	var events internalShared.Events
	events.Audit(internalShared.AuditLog{ActorID: actor.ID, Entity: "Material", EntityID: id, Action: action, Before: before, After: after})
	s.emitter.Emit(ctx, events)
}
