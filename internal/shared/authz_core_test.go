package shared_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/shared"
)

func TestRequireRole(t *testing.T) {
	runner := shared.Actor{ID: uuid.New(), Role: shared.RoleRunnerBoy}
	accountant := shared.Actor{ID: uuid.New(), Role: shared.RoleAccountant}
	ceo := shared.Actor{ID: uuid.New(), Role: shared.RoleCEO}

	require.NoError(t, shared.RequireRole(runner, shared.RoleRunnerBoy))
	require.ErrorIs(t, shared.RequireRole(ceo, shared.RoleRunnerBoy), shared.ErrForbidden)
	require.NoError(t, shared.RequireRole(accountant, shared.RoleRunnerBoy), "accountant passes every gate")
	require.ErrorIs(t, shared.RequireRole(shared.Actor{}, shared.RoleCEO), shared.ErrUnauthorized)
}

func TestRoleValid(t *testing.T) {
	require.True(t, shared.RoleStoreManager.Valid())
	require.False(t, shared.Role("ADMIN").Valid())
}
