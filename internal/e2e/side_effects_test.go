package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/app"
	"github.com/textileco/pettycash/internal/auth"
	"github.com/textileco/pettycash/internal/masterdata/buyers"
	"github.com/textileco/pettycash/internal/masterdata/materials"
	mdshared "github.com/textileco/pettycash/internal/masterdata/shared"
	"github.com/textileco/pettycash/internal/masterdata/orders"
	"github.com/textileco/pettycash/internal/masterdata/vendors"
	"github.com/textileco/pettycash/internal/notify"
	"github.com/textileco/pettycash/internal/observability"
	"github.com/textileco/pettycash/internal/procurement"
	"github.com/textileco/pettycash/internal/reports"
	"github.com/textileco/pettycash/internal/shared"
	"github.com/textileco/pettycash/internal/users"
	_ "github.com/textileco/pettycash/testing"
)

type accounts map[uuid.UUID]auth.Account

func (a accounts) FindByEmail(context.Context, string) (auth.Account, error) {
	return auth.Account{}, shared.ErrNotFound
}

func (a accounts) FindByID(_ context.Context, id uuid.UUID) (auth.Account, error) {
	if acc, ok := a[id]; ok {
		return acc, nil
	}
	return auth.Account{}, shared.ErrNotFound
}

type vendorRepo struct {
	mu   sync.Mutex
	rows []vendors.Vendor
}

func (v *vendorRepo) List(context.Context, mdshared.ListFilters) ([]vendors.Vendor, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]vendors.Vendor(nil), v.rows...), nil
}

func (v *vendorRepo) Get(_ context.Context, id uuid.UUID) (vendors.Vendor, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, row := range v.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return vendors.Vendor{}, shared.ErrNotFound
}

func (v *vendorRepo) Create(_ context.Context, vendor vendors.Vendor) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = append(v.rows, vendor)
	return nil
}

func (v *vendorRepo) Update(context.Context, uuid.UUID, vendors.Patch) error { return nil }

func (v *vendorRepo) Deactivate(context.Context, uuid.UUID) error { return nil }

type inbox struct {
	mu   sync.Mutex
	rows []notify.Notification
}

func (s *inbox) InsertNotifications(_ context.Context, rows []notify.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *inbox) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]notify.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.Notification
	for _, n := range s.rows {
		if n.UserID == userID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *inbox) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *inbox) MarkAllRead(context.Context, uuid.UUID) error { return nil }

func (s *inbox) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type directory map[shared.Role][]uuid.UUID

func (d directory) ActiveUserIDsByRole(_ context.Context, roles ...shared.Role) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, r := range roles {
		ids = append(ids, d[r]...)
	}
	return ids, nil
}

type auditTrail struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *auditTrail) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

// reportRepo counts dashboard loads; every other aggregate is empty.
type reportRepo struct {
	mu    sync.Mutex
	loads int
}

func (r *reportRepo) DailySummary(context.Context, reports.Filter) ([]reports.DailySummaryRow, error) {
	return nil, nil
}

func (r *reportRepo) VendorSummary(context.Context, reports.Filter) ([]reports.VendorSummaryRow, error) {
	return nil, nil
}

func (r *reportRepo) BuyerOrder(context.Context, reports.Filter) ([]reports.BuyerOrderRow, error) {
	return nil, nil
}

func (r *reportRepo) RunnerPerformance(context.Context, reports.Filter) ([]reports.RunnerPerformanceRow, error) {
	return nil, nil
}

func (r *reportRepo) Outstanding(context.Context, reports.Filter) ([]reports.OutstandingRow, error) {
	return nil, nil
}

func (r *reportRepo) CountRequests(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	return r.loads, nil
}

func (r *reportRepo) CountPurchases(context.Context, ...string) (int, error) { return 0, nil }

func (r *reportRepo) SumPaid(context.Context, *time.Time, *time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (r *reportRepo) SumInvoiced(context.Context, *time.Time, *time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (r *reportRepo) MonthlyTrend(context.Context, int) ([]reports.TrendPoint, error) { return nil, nil }

func (r *reportRepo) TopVendors(context.Context, int) ([]reports.VendorTotal, error) { return nil, nil }

func (r *reportRepo) StatusBreakdown(context.Context) ([]reports.StatusCount, error) { return nil, nil }

type harness struct {
	router     http.Handler
	token      string
	accountant uuid.UUID
	audits     *auditTrail
	inbox      *inbox
	reports    *reportRepo
	emitter    shared.Emitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	accountant := auth.Account{ID: uuid.New(), Name: "Priya Sharma", Email: "accounts@textileco.com", Role: shared.RoleAccountant, Status: "ACTIVE"}
	tokens, err := auth.NewTokens("e2e-secret", time.Hour)
	require.NoError(t, err)
	token, _, err := tokens.Issue(accountant)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &harness{token: token, accountant: accountant.ID, audits: &auditTrail{}, inbox: &inbox{}, reports: &reportRepo{}}
	metrics := observability.NewMetrics()
	dispatcher := notify.NewDispatcher(h.inbox, directory{shared.RoleAccountant: {accountant.ID}}, h.audits, nil, metrics)
	cache := reports.NewCache(client, time.Minute)
	h.emitter = reports.NewInvalidatingEmitter(dispatcher, cache, nil)

	h.router = app.NewRouter(app.RouterParams{
		Config:               &app.Config{RateLimitPerMinute: 1000},
		Metrics:              metrics,
		AuthHandler:          auth.NewHandler(nil, auth.NewService(accounts{accountant.ID: accountant}, tokens, h.emitter)),
		ProcurementHandler:   procurement.NewHandler(nil, nil, nil),
		UsersHandler:         users.NewHandler(nil, nil),
		VendorsHandler:       vendors.NewHandler(nil, vendors.NewService(&vendorRepo{}, h.emitter)),
		BuyersHandler:        buyers.NewHandler(nil, nil),
		OrdersHandler:        orders.NewHandler(nil, nil),
		MaterialsHandler:     materials.NewHandler(nil, nil),
		NotificationsHandler: notify.NewHandler(notify.NewService(h.inbox)),
		ReportsHandler:       reports.NewHandler(nil, reports.NewService(h.reports, cache)),
	})
	return h
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("X-Real-IP", "10.1.2.3")
	req.Header.Set("User-Agent", "e2e-agent")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func dashboardRequests(t *testing.T, h *harness) int {
	t.Helper()
	rec := h.do(t, http.MethodGet, "/api/reports/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var d reports.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d.TotalRequests
}

func TestAuditedWriteInvalidatesReportsAndCarriesRequestMeta(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, 1, dashboardRequests(t, h))
	require.Equal(t, 1, dashboardRequests(t, h))

	rec := h.do(t, http.MethodPost, "/api/vendors", `{"name":"Sharma Fabrics Pvt Ltd","phone":"9111111111"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, h.audits.logs, 1)
	logged := h.audits.logs[0]
	require.Equal(t, "Vendor", logged.Entity)
	require.Equal(t, "CREATE", logged.Action)
	require.Equal(t, h.accountant, logged.ActorID)
	require.Equal(t, "10.1.2.3", logged.IP)
	require.Equal(t, "e2e-agent", logged.UserAgent)

	require.Equal(t, 2, dashboardRequests(t, h))
}

func TestRoleNotificationsReachInbox(t *testing.T) {
	h := newHarness(t)

	var events shared.Events
	events.NotifyRoles("Invoice Submitted", "INV-77 needs review", "/purchases/1", shared.RoleAccountant)
	h.emitter.Emit(context.Background(), events)

	rec := h.do(t, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got notify.Inbox
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 1, got.UnreadCount)
	require.Equal(t, "Invoice Submitted", got.Notifications[0].Title)
	require.Equal(t, h.accountant, got.Notifications[0].UserID)
	require.Equal(t, 1, dashboardRequests(t, h))
}
