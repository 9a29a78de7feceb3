package shared

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Role is the single role carried by every user account.
type Role string

// Petty cash roles.
const (
	RoleStoreManager Role = "STORE_MANAGER"
	RoleRunnerBoy    Role = "RUNNER_BOY"
	RoleAccountant   Role = "ACCOUNTANT"
	RoleCEO          Role = "CEO"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleStoreManager, RoleRunnerBoy, RoleAccountant, RoleCEO}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(Roles(), r)
}

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
	Name string
}

// Is reports whether the actor is the given user.
func (a Actor) Is(id uuid.UUID) bool {
	return a.ID != uuid.Nil && a.ID == id
}

// HasRole reports whether the actor may act as one of roles.
// ACCOUNTANT is the super-admin and passes every role gate.
func (a Actor) HasRole(roles ...Role) bool {
	if a.Role == RoleAccountant {
		return true
	}
	return slices.Contains(roles, a.Role)
}

// RequireRole returns ErrForbidden unless the actor passes the role gate.
func RequireRole(a Actor, roles ...Role) error {
	if a.ID == uuid.Nil {
		return ErrUnauthorized
	}
	if !a.HasRole(roles...) {
		return fmt.Errorf("%w: requires role %v", ErrForbidden, roles)
	}
	return nil
}
