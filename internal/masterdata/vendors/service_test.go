package vendors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/masterdata/shared"
	internalShared "github.com/textileco/pettycash/internal/shared"
)

type memoryRepo struct {
	vendors map[uuid.UUID]Vendor
}

func (m *memoryRepo) List(_ context.Context, f shared.ListFilters) ([]Vendor, error) {
	var out []Vendor
	for _, v := range m.vendors {
		if f.IsActive != nil && v.Active != *f.IsActive {
			continue
		}
		q := strings.ToLower(f.Search)
		if q != "" && !strings.Contains(strings.ToLower(v.Name), q) && !strings.Contains(strings.ToLower(v.ContactPerson), q) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (Vendor, error) {
	v, ok := m.vendors[id]
	if !ok {
		return Vendor{}, internalShared.ErrNotFound
	}
	return v, nil
}

func (m *memoryRepo) Create(_ context.Context, v Vendor) error {
	m.vendors[v.ID] = v
	return nil
}

func (m *memoryRepo) Update(_ context.Context, id uuid.UUID, p Patch) error {
	v, ok := m.vendors[id]
	if !ok {
		return internalShared.ErrNotFound
	}
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Phone != nil {
		v.Phone = *p.Phone
	}
	if p.GSTIN != nil {
		v.GSTIN = *p.GSTIN
	}
	if p.Active != nil {
		v.Active = *p.Active
	}
	m.vendors[id] = v
	return nil
}

func (m *memoryRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	v, ok := m.vendors[id]
	if !ok {
		return internalShared.ErrNotFound
	}
	v.Active = false
	m.vendors[id] = v
	return nil
}

var (
	accountant = internalShared.Actor{ID: uuid.New(), Role: internalShared.RoleAccountant}
	runner     = internalShared.Actor{ID: uuid.New(), Role: internalShared.RoleRunnerBoy}
)

func TestVendorLifecycle(t *testing.T) {
	repo := &memoryRepo{vendors: map[uuid.UUID]Vendor{}}
	emitter := &internalShared.RecordingEmitter{}
	svc := NewService(repo, emitter)
	ctx := context.Background()

	_, err := svc.Create(ctx, runner, Vendor{Name: "  "})
	require.ErrorIs(t, err, internalShared.ErrValidation)

	silk, err := svc.Create(ctx, runner, Vendor{Name: "Silk House", ContactPerson: "Mr. Rao"})
	require.NoError(t, err)
	require.True(t, silk.Active)
	_, err = svc.Create(ctx, runner, Vendor{Name: "Button Bazaar"})
	require.NoError(t, err)

	phone := "0442"
	require.ErrorIs(t, svc.Update(ctx, runner, silk.ID, Patch{Phone: &phone}), internalShared.ErrForbidden)
	require.NoError(t, svc.Update(ctx, accountant, silk.ID, Patch{Phone: &phone}))
	require.Equal(t, "Mr. Rao", repo.vendors[silk.ID].ContactPerson)
	require.Equal(t, "0442", repo.vendors[silk.ID].Phone)

	blank := ""
	require.ErrorIs(t, svc.Update(ctx, accountant, silk.ID, Patch{Name: &blank}), internalShared.ErrValidation)
	require.ErrorIs(t, svc.Update(ctx, accountant, uuid.New(), Patch{Phone: &phone}), internalShared.ErrNotFound)

	require.ErrorIs(t, svc.Delete(ctx, runner, silk.ID), internalShared.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, accountant, silk.ID))
	require.False(t, repo.vendors[silk.ID].Active)

	active := true
	list, err := svc.List(ctx, runner, shared.ListFilters{IsActive: &active})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Button Bazaar", list[0].Name)

	actions := []string{}
	for _, a := range emitter.Audits() {
		actions = append(actions, a.Action)
	}
	require.Equal(t, []string{"CREATE", "CREATE", "UPDATE", "DELETE"}, actions)
}

func TestVendorHandlers(t *testing.T) {
	repo := &memoryRepo{vendors: map[uuid.UUID]Vendor{}}
	h := NewHandler(nil, NewService(repo, nil))
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(internalShared.ContextWithActor(r.Context(), accountant)))
		})
	})
	router.Route("/vendors", h.MountRoutes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/vendors", strings.NewReader(`{"name":"Thread Co","gstin":"33AAAAA0000A1Z5"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/vendors", strings.NewReader(`{"email":"bad"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vendors?q=thread&active=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Thread Co")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vendors?active=maybe", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/vendors/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
