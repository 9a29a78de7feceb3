package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/textileco/pettycash/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	CreateUser(ctx context.Context, u User, passwordHash string) error
	UpdateUser(ctx context.Context, id uuid.UUID, input UpdateInput) error
	ActiveUserIDsByRole(ctx context.Context, roles ...shared.Role) ([]uuid.UUID, error)
}

// Service handles user business logic.
type Service struct {
	repo    RepositoryPort
	emitter shared.Emitter
	cost    int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, emitter shared.Emitter) *Service {
	if emitter == nil {
		emitter = shared.NopEmitter{}
	}
	return &Service{repo: repo, emitter: emitter, cost: bcrypt.DefaultCost}
}

// ListUsers returns all users ordered by role and name.
func (s *Service) ListUsers(ctx context.Context, actor shared.Actor) ([]User, error) {
	if err := shared.RequireRole(actor, shared.RoleAccountant, shared.RoleCEO); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

// CreateUser registers an account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, actor shared.Actor, input CreateInput) (User, error) {
	if err := shared.RequireRole(actor, shared.RoleAccountant); err != nil {
		return User{}, err
	}
	if input.Name == "" || input.Email == "" || input.Password == "" || input.Role == "" {
		return User{}, fmt.Errorf("%w: name, email, role, password required", shared.ErrValidation)
	}
	if !input.Role.Valid() {
		return User{}, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, input.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:         uuid.New(),
		Name:       input.Name,
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:      input.Phone,
		Role:       input.Role,
		Department: input.Department,
		Status:     StatusActive,
	}
	if err := s.repo.CreateUser(ctx, u, string(hash)); err != nil {
		return User{}, err
	}
	var events shared.Events
	events.Audit(shared.AuditLog{ActorID: actor.ID, Entity: "User", EntityID: u.ID, Action: "CREATE",
		After: map[string]any{"name": u.Name, "email": u.Email, "role": u.Role}})
	s.emitter.Emit(ctx, events)
	return u, nil
}

// UpdateUser applies a partial update.
func (s *Service) UpdateUser(ctx context.Context, actor shared.Actor, id uuid.UUID, input UpdateInput) error {
	if err := shared.RequireRole(actor, shared.RoleAccountant); err != nil {
		return err
	}
	if input.Role != nil && !input.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", shared.ErrValidation, *input.Role)
	}
	if input.Status != nil && *input.Status != StatusActive && *input.Status != StatusInactive {
		return fmt.Errorf("%w: status must be ACTIVE or INACTIVE", shared.ErrValidation)
	}
	before, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateUser(ctx, id, input); err != nil {
		return err
	}
	var events shared.Events
	events.Audit(shared.AuditLog{ActorID: actor.ID, Entity: "User", EntityID: id, Action: "UPDATE", Before: before, After: input})
	s.emitter.Emit(ctx, events)
	return nil
}

// ActiveUserIDsByRole resolves role-addressed notifications.
func (s *Service) ActiveUserIDsByRole(ctx context.Context, roles ...shared.Role) ([]uuid.UUID, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	return s.repo.ActiveUserIDsByRole(ctx, roles...)
}
