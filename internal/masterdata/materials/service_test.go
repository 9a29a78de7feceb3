package materials

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/masterdata/shared"
	internalShared "github.com/textileco/pettycash/internal/shared"
)

type memoryRepo struct {
	materials map[uuid.UUID]Material
}

func (m *memoryRepo) ListActive(_ context.Context, f shared.ListFilters) ([]Material, error) {
	var out []Material
	for _, mat := range m.materials {
		if mat.Active && (f.Search == "" || strings.Contains(mat.Name, f.Search) || strings.Contains(mat.Category, f.Search)) {
			out = append(out, mat)
		}
	}
	return out, nil
}

func (m *memoryRepo) Create(_ context.Context, mat Material) error {
	m.materials[mat.ID] = mat
	return nil
}

func (m *memoryRepo) Update(_ context.Context, id uuid.UUID, p Patch) error {
	mat, ok := m.materials[id]
	if !ok {
		return internalShared.ErrNotFound
	}
	if p.Active != nil {
		mat.Active = *p.Active
	}
	if p.DefaultRate != nil {
		mat.DefaultRate = decimal.NewNullDecimal(*p.DefaultRate)
	}
	m.materials[id] = mat
	return nil
}

var (
	accountant = internalShared.Actor{ID: uuid.New(), Role: internalShared.RoleAccountant}
	manager    = internalShared.Actor{ID: uuid.New(), Role: internalShared.RoleStoreManager}
	runner     = internalShared.Actor{ID: uuid.New(), Role: internalShared.RoleRunnerBoy}
)

func TestCreateMaterialDefaults(t *testing.T) {
	repo := &memoryRepo{materials: map[uuid.UUID]Material{}}
	svc := NewService(repo, nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, manager, Material{Name: "Polyester thread", Category: "Trims"})
	require.NoError(t, err)
	require.Equal(t, DefaultUnit, m.UnitOfMeasure)
	require.True(t, m.Active)
	require.False(t, m.DefaultRate.Valid)

	_, err = svc.Create(ctx, runner, Material{Name: "Zip"})
	require.ErrorIs(t, err, internalShared.ErrForbidden)

	_, err = svc.Create(ctx, manager, Material{Name: "Zip", DefaultRate: decimal.NewNullDecimal(decimal.RequireFromString("1.005"))})
	require.ErrorIs(t, err, internalShared.ErrValidation)

	_, err = svc.Create(ctx, manager, Material{Name: ""})
	require.ErrorIs(t, err, internalShared.ErrValidation)
}

func TestUpdateMaterialHidesInactive(t *testing.T) {
	repo := &memoryRepo{materials: map[uuid.UUID]Material{}}
	svc := NewService(repo, nil)
	ctx := context.Background()
	m, err := svc.Create(ctx, accountant, Material{Name: "Buttons", UnitOfMeasure: "gross"})
	require.NoError(t, err)

	off := false
	require.ErrorIs(t, svc.Update(ctx, manager, m.ID, Patch{Active: &off}), internalShared.ErrForbidden)
	negative := decimal.RequireFromString("-1")
	require.ErrorIs(t, svc.Update(ctx, accountant, m.ID, Patch{DefaultRate: &negative}), internalShared.ErrValidation)
	require.NoError(t, svc.Update(ctx, accountant, m.ID, Patch{Active: &off}))

	list, err := svc.List(ctx, runner, shared.ListFilters{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestMaterialHandlers(t *testing.T) {
	repo := &memoryRepo{materials: map[uuid.UUID]Material{}}
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(internalShared.ContextWithActor(r.Context(), manager)))
		})
	})
	router.Route("/materials", NewHandler(nil, NewService(repo, nil)).MountRoutes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/materials", strings.NewReader(`{"name":"Labels","default_rate":"0.25"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	for _, m := range repo.materials {
		require.True(t, decimal.RequireFromString("0.25").Equal(m.DefaultRate.Decimal))
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/materials?q=Lab", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Labels")
}
