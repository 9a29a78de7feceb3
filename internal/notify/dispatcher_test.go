package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/shared"
)

type memoryStore struct {
	mu        sync.Mutex
	rows      []Notification
	insertErr error
}

func (m *memoryStore) InsertNotifications(_ context.Context, rows []Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.rows = append(m.rows, rows...)
	return nil
}

func (m *memoryStore) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Notification
	for _, n := range m.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, row := range m.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].UserID == userID {
			m.rows[i].IsRead = true
		}
	}
	return nil
}

func (m *memoryStore) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows[i].IsRead = true
		}
	}
	return nil
}

type staticDirectory struct {
	byRole map[shared.Role][]uuid.UUID
	err    error
}

func (d staticDirectory) ActiveUserIDsByRole(_ context.Context, roles ...shared.Role) ([]uuid.UUID, error) {
	if d.err != nil {
		return nil, d.err
	}
	var ids []uuid.UUID
	for _, r := range roles {
		ids = append(ids, d.byRole[r]...)
	}
	return ids, nil
}

type recordingAudit struct {
	logs []shared.AuditLog
	err  error
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	if a.err != nil {
		return a.err
	}
	a.logs = append(a.logs, log)
	return nil
}

type countingFailures map[string]int

func (c countingFailures) ObserveEmitFailure(kind string) { c[kind]++ }

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newDispatcher(store *memoryStore, dir staticDirectory, audit *recordingAudit, failures countingFailures) *Dispatcher {
	d := NewDispatcher(store, dir, audit, nil, failures)
	d.now = func() time.Time { return fixedNow }
	return d
}

func TestDispatcherExpandsRolesAndDedupes(t *testing.T) {
	runner, accountant, requester := uuid.New(), uuid.New(), uuid.New()
	store := &memoryStore{}
	audit := &recordingAudit{}
	dir := staticDirectory{byRole: map[shared.Role][]uuid.UUID{
		shared.RoleRunnerBoy:  {runner},
		shared.RoleAccountant: {accountant, runner},
	}}
	d := newDispatcher(store, dir, audit, countingFailures{})

	var events shared.Events
	events.NotifyRoles("New Material Request", "MR-2026-0001 submitted", "/requests/1", shared.RoleRunnerBoy, shared.RoleAccountant)
	events.NotifyUsers("Payment Done", "paid", "/purchases/1", requester, runner, requester)
	events.Audit(shared.AuditLog{ActorID: accountant, Entity: "Payment", EntityID: uuid.New(), Action: "CREATE"})

	ctx := shared.ContextWithRequestMeta(context.Background(), shared.RequestMeta{IP: "10.0.0.7", UserAgent: "curl/8"})
	d.Emit(ctx, events)

	require.Len(t, store.rows, 4)
	first := []uuid.UUID{store.rows[0].UserID, store.rows[1].UserID}
	require.ElementsMatch(t, []uuid.UUID{runner, accountant}, first)
	require.Equal(t, requester, store.rows[2].UserID)
	require.Equal(t, runner, store.rows[3].UserID)
	require.Equal(t, fixedNow, store.rows[0].CreatedAt)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "10.0.0.7", audit.logs[0].IP)
	require.Equal(t, "curl/8", audit.logs[0].UserAgent)
	require.Equal(t, fixedNow, audit.logs[0].At)
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	store := &memoryStore{insertErr: errors.New("disk full")}
	audit := &recordingAudit{err: errors.New("audit down")}
	failures := countingFailures{}
	d := newDispatcher(store, staticDirectory{err: errors.New("directory down")}, audit, failures)

	var events shared.Events
	events.NotifyRoles("t", "m", "", shared.RoleAccountant)
	events.NotifyUsers("t", "m", "", uuid.New())
	events.Audit(shared.AuditLog{Entity: "Purchase", EntityID: uuid.New(), Action: "APPROVE"})

	require.NotPanics(t, func() { d.Emit(context.Background(), events) })
	require.Equal(t, 1, failures["audit"])
	require.Equal(t, 2, failures["notification"])
	require.Empty(t, store.rows)
}

func TestDispatcherIgnoresEmptyEvents(t *testing.T) {
	store := &memoryStore{}
	d := newDispatcher(store, staticDirectory{}, &recordingAudit{}, nil)
	d.Emit(context.Background(), shared.Events{})
	require.Empty(t, store.rows)
}

func TestInboxHandlers(t *testing.T) {
	me, other := uuid.New(), uuid.New()
	store := &memoryStore{}
	for i := 0; i < InboxLimit+5; i++ {
		store.rows = append(store.rows, Notification{ID: uuid.New(), UserID: me, Title: "t", CreatedAt: fixedNow.Add(time.Duration(i) * time.Minute)})
	}
	foreign := Notification{ID: uuid.New(), UserID: other, Title: "theirs", CreatedAt: fixedNow}
	store.rows = append(store.rows, foreign)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.Actor{ID: me, Role: shared.RoleRunnerBoy}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
		})
	})
	router.Route("/notifications", NewHandler(NewService(store)).MountRoutes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox Inbox
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inbox))
	require.Len(t, inbox.Notifications, InboxLimit)
	require.Equal(t, InboxLimit+5, inbox.UnreadCount)
	require.True(t, inbox.Notifications[0].CreatedAt.After(inbox.Notifications[1].CreatedAt))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/notifications/"+foreign.ID.String()+"/read", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, store.rows[len(store.rows)-1].IsRead)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/notifications/read-all", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	unread, err := store.CountUnread(context.Background(), me)
	require.NoError(t, err)
	require.Zero(t, unread)
	require.False(t, store.rows[len(store.rows)-1].IsRead)
}

func TestInboxRequiresActor(t *testing.T) {
	_, err := NewService(&memoryStore{}).Inbox(context.Background(), shared.Actor{})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
