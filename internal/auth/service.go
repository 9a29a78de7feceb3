package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/textileco/pettycash/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (Account, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	tokens  *Tokens
	emitter shared.Emitter
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *Tokens, emitter shared.Emitter) *Service {
	if emitter == nil {
		emitter = shared.NopEmitter{}
	}
	return &Service{repo: repo, tokens: tokens, emitter: emitter}
}

// Login validates email/password credentials and issues an access token.
// Unknown emails, inactive accounts and wrong passwords look the same.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	account, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return LoginResult{}, shared.ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !account.Active() {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	token, expires, err := s.tokens.Issue(account)
	if err != nil {
		return LoginResult{}, err
	}
	var events shared.Events
	events.Audit(shared.AuditLog{ActorID: account.ID, Entity: "User", EntityID: account.ID, Action: "LOGIN",
		After: map[string]any{"email": account.Email}})
	s.emitter.Emit(ctx, events)
	return LoginResult{Token: token, ExpiresAt: expires, User: profile(account, false)}, nil
}

// Me returns the profile of the authenticated caller.
func (s *Service) Me(ctx context.Context, actor shared.Actor) (Profile, error) {
	if actor.ID == uuid.Nil {
		return Profile{}, shared.ErrUnauthorized
	}
	account, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return Profile{}, err
	}
	return profile(account, true), nil
}

// Authenticate resolves a bearer token into an actor.
func (s *Service) Authenticate(raw string) (shared.Actor, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return shared.Actor{}, err
	}
	return claims.Actor(), nil
}

func profile(a Account, withPhone bool) Profile {
	p := Profile{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role, Department: a.Department}
	if withPhone {
		p.Phone = a.Phone
	}
	return p
}
