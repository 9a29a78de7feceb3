package reports

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/textileco/pettycash/internal/procurement"
	"github.com/textileco/pettycash/internal/shared"
)

type memoryRepo struct {
	mu          sync.Mutex
	calls       map[string]int
	outstanding []OutstandingRow
	vendors     []VendorSummaryRow
	paidFrom    *time.Time
}

func newMemoryRepo() *memoryRepo {
	invoiceDate := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	return &memoryRepo{
		calls: map[string]int{},
		outstanding: []OutstandingRow{{
			PurchaseID:         uuid.New(),
			RequestNo:          "MR-2026-0004",
			InvoiceNo:          "INV-77",
			InvoiceDate:        &invoiceDate,
			VendorName:         "Sri Lakshmi Threads",
			BuyerName:          "H&M",
			OrderNo:            "ORD-2026-001",
			TotalInvoiceAmount: decimal.RequireFromString("1500.00"),
			TotalPaid:          decimal.RequireFromString("500.00"),
			Balance:            decimal.RequireFromString("1000.00"),
			Status:             string(procurement.PurchasePartiallyPaid),
		}},
		vendors: []VendorSummaryRow{{VendorID: uuid.New(), VendorName: "Sri Lakshmi Threads", NumInvoices: 2, TotalAmount: decimal.RequireFromString("2500"), AvgAmount: decimal.RequireFromString("1250")}},
	}
}

func (m *memoryRepo) hit(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

func (m *memoryRepo) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *memoryRepo) DailySummary(context.Context, Filter) ([]DailySummaryRow, error) {
	m.hit("daily")
	return []DailySummaryRow{{Date: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), NumPurchases: 1, TotalPaid: decimal.NewFromInt(500), Departments: []string{"Sampling"}}}, nil
}

func (m *memoryRepo) VendorSummary(context.Context, Filter) ([]VendorSummaryRow, error) {
	m.hit("vendor")
	return m.vendors, nil
}

func (m *memoryRepo) BuyerOrder(context.Context, Filter) ([]BuyerOrderRow, error) {
	m.hit("buyer_order")
	return nil, nil
}

func (m *memoryRepo) RunnerPerformance(context.Context, Filter) ([]RunnerPerformanceRow, error) {
	m.hit("runner")
	return nil, nil
}

func (m *memoryRepo) Outstanding(context.Context, Filter) ([]OutstandingRow, error) {
	m.hit("outstanding")
	return m.outstanding, nil
}

func (m *memoryRepo) CountRequests(context.Context) (int, error) {
	m.hit("requests")
	return 7, nil
}

func (m *memoryRepo) CountPurchases(_ context.Context, statuses ...string) (int, error) {
	m.hit("purchases")
	if len(statuses) > 0 && statuses[0] == string(procurement.PurchaseInvoiceSubmitted) {
		return 3, nil
	}
	return 2, nil
}

func (m *memoryRepo) SumPaid(_ context.Context, from, _ *time.Time) (decimal.Decimal, error) {
	m.hit("paid")
	m.mu.Lock()
	m.paidFrom = from
	m.mu.Unlock()
	return decimal.RequireFromString("500.00"), nil
}

func (m *memoryRepo) SumInvoiced(context.Context, *time.Time, *time.Time) (decimal.Decimal, error) {
	m.hit("invoiced")
	return decimal.RequireFromString("4000.00"), nil
}

func (m *memoryRepo) MonthlyTrend(context.Context, int) ([]TrendPoint, error) {
	m.hit("trend")
	return []TrendPoint{{Month: "2026-01", TotalPaid: decimal.NewFromInt(100), NumPayments: 1}, {Month: "2026-02", TotalPaid: decimal.NewFromInt(400), NumPayments: 2}}, nil
}

func (m *memoryRepo) TopVendors(context.Context, int) ([]VendorTotal, error) {
	m.hit("top")
	return []VendorTotal{{Name: "Sri Lakshmi Threads", Total: decimal.NewFromInt(2500)}}, nil
}

func (m *memoryRepo) StatusBreakdown(context.Context) ([]StatusCount, error) {
	m.hit("status")
	return []StatusCount{{Status: "APPROVED", Count: 2}}, nil
}

var (
	accountant = shared.Actor{ID: uuid.New(), Role: shared.RoleAccountant}
	ceo        = shared.Actor{ID: uuid.New(), Role: shared.RoleCEO}
	runner     = shared.Actor{ID: uuid.New(), Role: shared.RoleRunnerBoy}
)

func newCachedService(t *testing.T) (*Service, *memoryRepo, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	repo := newMemoryRepo()
	return NewService(repo, cache), repo, cache
}

func TestReportsRequireAccountantOrCEO(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Outstanding(ctx, runner, Filter{})
	require.ErrorIs(t, err, shared.ErrForbidden)
	_, err = svc.Dashboard(ctx, shared.Actor{}, Filter{})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = svc.Export(ctx, runner, ExportOutstanding, Filter{})
	require.ErrorIs(t, err, shared.ErrForbidden)

	rows, err := svc.Outstanding(ctx, ceo, Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDashboardAggregates(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	d, err := svc.Dashboard(context.Background(), ceo, Filter{})
	require.NoError(t, err)
	require.Equal(t, 7, d.TotalRequests)
	require.Equal(t, 3, d.PendingPurchases)
	require.Equal(t, 2, d.ApprovedUnpaid)
	require.True(t, d.TotalPaid.Equal(decimal.NewFromInt(500)))
	require.True(t, d.TotalInvoiced.Equal(decimal.NewFromInt(4000)))
	require.Equal(t, "2026-01", d.MonthlyTrend[0].Month)
	require.Len(t, d.TopVendors, 1)
	require.Len(t, d.StatusBreakdown, 1)
}

func TestDashboardDateScopeNeedsBothBounds(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := svc.Dashboard(context.Background(), accountant, Filter{From: &from})
	require.NoError(t, err)
	require.Nil(t, repo.paidFrom)

	_, err = svc.Dashboard(context.Background(), accountant, Filter{From: &from, To: &to})
	require.NoError(t, err)
	require.NotNil(t, repo.paidFrom)
	require.True(t, from.Equal(*repo.paidFrom))
}

func TestCacheServesUntilAuditedChange(t *testing.T) {
	svc, repo, cache := newCachedService(t)
	ctx := context.Background()

	first, err := svc.Dashboard(ctx, accountant, Filter{})
	require.NoError(t, err)
	second, err := svc.Dashboard(ctx, accountant, Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.count("requests"))
	require.True(t, first.TotalPaid.Equal(second.TotalPaid))

	recorder := &shared.RecordingEmitter{}
	emitter := NewInvalidatingEmitter(recorder, cache, nil)

	var unrelated shared.Events
	unrelated.Audit(shared.AuditLog{Entity: "User", EntityID: uuid.New(), Action: "LOGIN"})
	emitter.Emit(ctx, unrelated)
	_, err = svc.Dashboard(ctx, accountant, Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.count("requests"))

	var payment shared.Events
	payment.Audit(shared.AuditLog{Entity: procurement.EntityPayment, EntityID: uuid.New(), Action: "CREATE"})
	emitter.Emit(ctx, payment)
	_, err = svc.Dashboard(ctx, accountant, Filter{})
	require.NoError(t, err)
	require.Equal(t, 2, repo.count("requests"))
	require.Len(t, recorder.Events, 2)
}

func TestCacheKeysIncludeFilter(t *testing.T) {
	svc, repo, _ := newCachedService(t)
	ctx := context.Background()
	vendor := uuid.New()

	_, err := svc.VendorSummary(ctx, accountant, Filter{})
	require.NoError(t, err)
	_, err = svc.VendorSummary(ctx, accountant, Filter{VendorID: &vendor})
	require.NoError(t, err)
	_, err = svc.VendorSummary(ctx, accountant, Filter{VendorID: &vendor})
	require.NoError(t, err)
	require.Equal(t, 2, repo.count("vendor"))
}

func TestExportWritesWorkbook(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	sheet, err := svc.Export(context.Background(), accountant, ExportOutstanding, Filter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, sheet.WriteXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	got, err := f.GetRows(ExportOutstanding)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Request No", got[0][0])
	require.Equal(t, "Status", got[0][9])
	require.Equal(t, "MR-2026-0004", got[1][0])
	require.Equal(t, "2026-02-03", got[1][2])
	require.Equal(t, "1000", got[1][8])

	styleID, err := f.GetCellStyle(ExportOutstanding, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.True(t, style.Font.Bold)

	_, err = svc.Export(context.Background(), accountant, "runner-performance", Filter{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func newRouter(svc *Service, actor shared.Actor) http.Handler {
	h := NewHandler(nil, svc)
	h.now = func() time.Time { return time.UnixMilli(1767225600000) }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithActor(req.Context(), actor)))
		})
	})
	r.Route("/reports", h.MountRoutes)
	return r
}

func serve(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandlers(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	router := newRouter(svc, accountant)

	rec := serve(router, "/reports/buyer-order")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(router, "/reports/daily-summary?from=2026-02-01&to=2026-02-28")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"departments":["Sampling"]`)

	require.Equal(t, http.StatusBadRequest, serve(router, "/reports/outstanding?from=03-02-2026").Code)
	require.Equal(t, http.StatusBadRequest, serve(router, "/reports/vendor-summary?vendor_id=xyz").Code)
	require.Equal(t, http.StatusBadRequest, serve(router, "/reports/export/unknown").Code)

	rec = serve(router, "/reports/export/vendor-summary")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="vendor-summary-1767225600000.xlsx"`, rec.Header().Get("Content-Disposition"))
	require.NotZero(t, rec.Body.Len())

	rec = serve(router, "/reports/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"pendingPurchases":3`)

	require.Equal(t, http.StatusForbidden, serve(newRouter(svc, runner), "/reports/outstanding").Code)
}
