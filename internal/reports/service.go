package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/textileco/pettycash/internal/procurement"
	"github.com/textileco/pettycash/internal/shared"
)

const (
	trendMonths   = 6
	topVendorsMax = 5
)

// RepositoryPort exposes the report aggregates.
type RepositoryPort interface {
	DailySummary(ctx context.Context, f Filter) ([]DailySummaryRow, error)
	VendorSummary(ctx context.Context, f Filter) ([]VendorSummaryRow, error)
	BuyerOrder(ctx context.Context, f Filter) ([]BuyerOrderRow, error)
	RunnerPerformance(ctx context.Context, f Filter) ([]RunnerPerformanceRow, error)
	Outstanding(ctx context.Context, f Filter) ([]OutstandingRow, error)
	CountRequests(ctx context.Context) (int, error)
	CountPurchases(ctx context.Context, statuses ...string) (int, error)
	SumPaid(ctx context.Context, from, to *time.Time) (decimal.Decimal, error)
	SumInvoiced(ctx context.Context, from, to *time.Time) (decimal.Decimal, error)
	MonthlyTrend(ctx context.Context, months int) ([]TrendPoint, error)
	TopVendors(ctx context.Context, limit int) ([]VendorTotal, error)
	StatusBreakdown(ctx context.Context) ([]StatusCount, error)
}

// Service serves reports to accountants and the CEO.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService constructs the reports service. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func authorize(actor shared.Actor) error {
	return shared.RequireRole(actor, shared.RoleAccountant, shared.RoleCEO)
}

// cached runs loader through the versioned cache under name and filter.
func cached[T any](ctx context.Context, c *Cache, name string, f Filter, loader func(context.Context) (T, error)) (T, error) {
	var out T
	key, err := c.BuildKey(ctx, "reports", name, filterKey(f))
	if err != nil {
		return out, err
	}
	err = c.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	return out, err
}

// DailySummary reports payments per day with the ledger balances of that day.
func (s *Service) DailySummary(ctx context.Context, actor shared.Actor, f Filter) ([]DailySummaryRow, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return cached(ctx, s.cache, "daily", f, func(ctx context.Context) ([]DailySummaryRow, error) {
		return s.repo.DailySummary(ctx, f)
	})
}

// VendorSummary reports invoiced totals per vendor.
func (s *Service) VendorSummary(ctx context.Context, actor shared.Actor, f Filter) ([]VendorSummaryRow, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return cached(ctx, s.cache, "vendor", f, func(ctx context.Context) ([]VendorSummaryRow, error) {
		return s.repo.VendorSummary(ctx, f)
	})
}

// BuyerOrder reports material cost per buyer and order.
func (s *Service) BuyerOrder(ctx context.Context, actor shared.Actor, f Filter) ([]BuyerOrderRow, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return cached(ctx, s.cache, "buyer_order", f, func(ctx context.Context) ([]BuyerOrderRow, error) {
		return s.repo.BuyerOrder(ctx, f)
	})
}

// RunnerPerformance reports purchase volume per runner boy.
func (s *Service) RunnerPerformance(ctx context.Context, actor shared.Actor, f Filter) ([]RunnerPerformanceRow, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return cached(ctx, s.cache, "runner", f, func(ctx context.Context) ([]RunnerPerformanceRow, error) {
		return s.repo.RunnerPerformance(ctx, f)
	})
}

// Outstanding reports purchases awaiting review or payment.
func (s *Service) Outstanding(ctx context.Context, actor shared.Actor, f Filter) ([]OutstandingRow, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return cached(ctx, s.cache, "outstanding", f, func(ctx context.Context) ([]OutstandingRow, error) {
		return s.repo.Outstanding(ctx, f)
	})
}

// Dashboard loads the KPI cards concurrently. Date bounds apply to the paid
// and invoiced totals only when both are present.
func (s *Service) Dashboard(ctx context.Context, actor shared.Actor, f Filter) (Dashboard, error) {
	if err := authorize(actor); err != nil {
		return Dashboard{}, err
	}
	scope := Filter{}
	if f.From != nil && f.To != nil {
		scope = Filter{From: f.From, To: f.To}
	}
	return cached(ctx, s.cache, "dashboard", scope, func(ctx context.Context) (Dashboard, error) {
		return s.loadDashboard(ctx, scope)
	})
}

func (s *Service) loadDashboard(ctx context.Context, scope Filter) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalRequests, err = s.repo.CountRequests(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.PendingPurchases, err = s.repo.CountPurchases(gctx,
			string(procurement.PurchaseInvoiceSubmitted), string(procurement.PurchaseUnderReview))
		return err
	})
	g.Go(func() (err error) {
		d.ApprovedUnpaid, err = s.repo.CountPurchases(gctx,
			string(procurement.PurchaseApproved), string(procurement.PurchasePartiallyPaid))
		return err
	})
	g.Go(func() (err error) {
		d.TotalPaid, err = s.repo.SumPaid(gctx, scope.From, scope.To)
		return err
	})
	g.Go(func() (err error) {
		d.TotalInvoiced, err = s.repo.SumInvoiced(gctx, scope.From, scope.To)
		return err
	})
	g.Go(func() (err error) {
		d.MonthlyTrend, err = s.repo.MonthlyTrend(gctx, trendMonths)
		return err
	})
	g.Go(func() (err error) {
		d.TopVendors, err = s.repo.TopVendors(gctx, topVendorsMax)
		return err
	})
	g.Go(func() (err error) {
		d.StatusBreakdown, err = s.repo.StatusBreakdown(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
