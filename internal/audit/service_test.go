package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/shared"
)

type stubRepo struct {
	rows       []TimelineRow
	lastFilter TimelineFilters
	lastOffset int
	lastLimit  int
}

func (s *stubRepo) Window(_ context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	s.lastFilter, s.lastOffset, s.lastLimit = f, offset, limit
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func (s *stubRepo) All(_ context.Context, f TimelineFilters) ([]TimelineRow, error) {
	s.lastFilter = f
	return s.rows, nil
}

func seedRows(n int) []TimelineRow {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	rows := make([]TimelineRow, n)
	for i := range rows {
		rows[i] = TimelineRow{
			ID:        uuid.New(),
			At:        base.Add(-time.Duration(i) * time.Hour),
			ActorName: "Asha",
			Action:    "APPROVE",
			Entity:    "Purchase",
			EntityID:  uuid.New(),
			After:     []byte(`{"status":"APPROVED"}`),
		}
	}
	return rows
}

var accountant = shared.Actor{ID: uuid.New(), Role: shared.RoleAccountant}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepo{rows: seedRows(3)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), accountant, TimelineFilters{Page: 1, PageSize: 2, Action: " approve "})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, 2, result.Paging.NextPage)
	require.Equal(t, 3, repo.lastLimit)
	require.Equal(t, 0, repo.lastOffset)
	require.Equal(t, "APPROVE", repo.lastFilter.Action)

	result, err = svc.Timeline(context.Background(), accountant, TimelineFilters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.False(t, result.Paging.HasNext)
	require.Equal(t, 1, result.Paging.PrevPage)
	require.Equal(t, 2, repo.lastOffset)
}

func TestTimelineDefaultsAndGuards(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), accountant, TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, maxPageSize+1, repo.lastLimit)
	require.Equal(t, 1, result.Paging.Page)
	require.NotNil(t, result.Rows)

	_, err = svc.Timeline(context.Background(), shared.Actor{ID: uuid.New(), Role: shared.RoleStoreManager}, TimelineFilters{})
	require.ErrorIs(t, err, shared.ErrForbidden)

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	_, err = svc.Timeline(context.Background(), accountant, TimelineFilters{From: &from, To: &to})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestTimelineRowJSONCarriesSnapshots(t *testing.T) {
	raw, err := json.Marshal(seedRows(1)[0])
	require.NoError(t, err)
	require.Contains(t, string(raw), `"new_values":{"status":"APPROVED"}`)
	require.NotContains(t, string(raw), "old_values")
}

func TestHandlers(t *testing.T) {
	repo := &stubRepo{rows: seedRows(2)}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithActor(req.Context(), accountant)))
		})
	})
	r.Route("/audit", NewHandler(nil, NewService(repo)).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?entity_type=Purchase&page_size=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var result Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Rows, 1)
	require.True(t, result.Paging.HasNext)
	require.Equal(t, "Purchase", repo.lastFilter.Entity)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit?page=abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[1], "2026-03-10T10:00:00Z,Asha,APPROVE,Purchase,"))
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	require.Equal(t, "At,User,Action,Entity,Entity ID,IP\n", buf.String())
}
