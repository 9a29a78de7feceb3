package buyers

import (
	"context"
	"strings"

	"github.com/google/uuid"

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

func (s *Service) List(ctx context.Context, actor internalShared.Actor) ([]Buyer, error) {
	if actor.ID == uuid.Nil {
		return nil, internalShared.ErrUnauthorized
	}
	return s.repo.List(ctx)
}

// Create stores a buyer, generating its code when none is supplied.
func (s *Service) Create(ctx context.Context, actor internalShared.Actor, b Buyer) (Buyer, error) {
	if err := internalShared.RequireRole(actor, internalShared.RoleAccountant, internalShared.RoleStoreManager); err != nil {
		return Buyer{}, err
	}
	b.Name = strings.TrimSpace(b.Name)
	if err := s.validate(b); err != nil {
		return Buyer{}, err
	}
	b.Code = strings.TrimSpace(b.Code)
	if b.Code == "" {
		n, err := s.repo.Count(ctx)
		if err != nil {
			return Buyer{}, err
		}
		b.Code = GenerateCode(b.Name, n)
	}
	b.ID = uuid.New()
	if err := s.repo.Create(ctx, b); err != nil {
		return Buyer{}, err
	}
	var events internalShared.Events
	events.Audit(internalShared.AuditLog{ActorID: actor.ID, Entity: "Buyer", EntityID: b.ID, Action: "CREATE", After: b})
	s.emitter.Emit(ctx, events)
	return b, nil
}

func (s *Service) Update(ctx context.Context, actor internalShared.Actor, id uuid.UUID, p Patch) error {
	if err := internalShared.RequireRole(actor, internalShared.RoleAccountant); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, actor internalShared.Actor, id uuid.UUID) error {
	if err := internalShared.RequireRole(actor, internalShared.RoleAccountant); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	var events internalShared.Events
	events.Audit(internalShared.AuditLog{ActorID: actor.ID, Entity: "Buyer", EntityID: id, Action: "DELETE"})
	s.emitter.Emit(ctx, events)
	return nil
}
