package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	mdshared "github.com/textileco/pettycash/internal/masterdata/shared"
)

// Repository runs report aggregates against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const outstandingStatuses = `('APPROVED','PARTIALLY_PAID','INVOICE_SUBMITTED','UNDER_REVIEW')`

func dateRange(c *mdshared.Conditions, column string, f Filter) {
	if f.From != nil {
		c.Add(column+" >= ?", *f.From)
	}
	if f.To != nil {
		c.Add(column+" <= ?", *f.To)
	}
}

// DailySummary groups payments per day and joins the ledger row of that day.
func (r *Repository) DailySummary(ctx context.Context, f Filter) ([]DailySummaryRow, error) {
	var c mdshared.Conditions
	dateRange(&c, "py.payment_date", f)
	query := `SELECT d.day, d.num_purchases, d.total_paid, d.departments,
       l.opening_balance, l.total_outflow, l.closing_balance
FROM (
    SELECT py.payment_date AS day,
           COUNT(DISTINCT py.purchase_id) AS num_purchases,
           SUM(py.paid_amount) AS total_paid,
           COALESCE(array_agg(DISTINCT mr.department) FILTER (WHERE mr.department IS NOT NULL AND mr.department <> ''), '{}') AS departments
    FROM payments py
    LEFT JOIN purchases p ON py.purchase_id = p.id
    LEFT JOIN material_requests mr ON p.material_request_id = mr.id` + c.Where() + `
    GROUP BY py.payment_date
) d
LEFT JOIN petty_cash_ledger l ON l.ledger_date = d.day
ORDER BY d.day DESC`
	rows, err := r.pool.Query(ctx, query, c.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DailySummaryRow, error) {
		var out DailySummaryRow
		err := row.Scan(&out.Date, &out.NumPurchases, &out.TotalPaid, &out.Departments,
			&out.OpeningBalance, &out.TotalOutflow, &out.ClosingBalance)
		return out, err
	})
}

// VendorSummary aggregates non-rejected invoices per vendor, largest first.
func (r *Repository) VendorSummary(ctx context.Context, f Filter) ([]VendorSummaryRow, error) {
	var c mdshared.Conditions
	c.Fixed("p.status <> 'REJECTED'")
	dateRange(&c, "p.invoice_date", f)
	if f.VendorID != nil {
		c.Add("p.vendor_id = ?", *f.VendorID)
	}
	query := `SELECT v.id, v.name, COALESCE(v.phone, ''),
       COUNT(p.id), COALESCE(SUM(p.total_invoice_amount), 0), COALESCE(ROUND(AVG(p.total_invoice_amount), 2), 0)
FROM purchases p
JOIN vendors v ON p.vendor_id = v.id` + c.Where() + `
GROUP BY v.id, v.name, v.phone
ORDER BY 5 DESC`
	rows, err := r.pool.Query(ctx, query, c.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (VendorSummaryRow, error) {
		var out VendorSummaryRow
		err := row.Scan(&out.VendorID, &out.VendorName, &out.Phone, &out.NumInvoices, &out.TotalAmount, &out.AvgAmount)
		return out, err
	})
}

// BuyerOrder sums purchased material per buyer, order and material.
func (r *Repository) BuyerOrder(ctx context.Context, f Filter) ([]BuyerOrderRow, error) {
	var c mdshared.Conditions
	c.Fixed("p.status <> 'REJECTED'")
	dateRange(&c, "p.invoice_date", f)
	if f.BuyerID != nil {
		c.Add("mr.buyer_id = ?", *f.BuyerID)
	}
	if f.OrderID != nil {
		c.Add("mr.order_id = ?", *f.OrderID)
	}
	query := `SELECT COALESCE(b.name, ''), COALESCE(o.order_no, ''), COALESCE(o.style, ''),
       COALESCE(m.name, ''), COALESCE(m.category, ''),
       SUM(pl.quantity), COALESCE(m.unit_of_measure, ''),
       SUM(pl.amount), COUNT(DISTINCT p.id)
FROM purchase_lines pl
JOIN purchases p ON pl.purchase_id = p.id
LEFT JOIN material_requests mr ON p.material_request_id = mr.id
LEFT JOIN buyers b ON mr.buyer_id = b.id
LEFT JOIN orders o ON mr.order_id = o.id
LEFT JOIN materials m ON pl.material_id = m.id` + c.Where() + `
GROUP BY b.id, b.name, o.id, o.order_no, o.style, m.id, m.name, m.category, m.unit_of_measure
ORDER BY b.name, o.order_no, 8 DESC`
	rows, err := r.pool.Query(ctx, query, c.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (BuyerOrderRow, error) {
		var out BuyerOrderRow
		err := row.Scan(&out.BuyerName, &out.OrderNo, &out.Style, &out.MaterialName, &out.Category,
			&out.TotalQty, &out.UnitOfMeasure, &out.TotalCost, &out.NumPurchases)
		return out, err
	})
}

// RunnerPerformance aggregates non-rejected purchases per runner boy.
func (r *Repository) RunnerPerformance(ctx context.Context, f Filter) ([]RunnerPerformanceRow, error) {
	var c mdshared.Conditions
	c.Fixed("p.status <> 'REJECTED'")
	c.Fixed("u.role = 'RUNNER_BOY'")
	dateRange(&c, "p.invoice_date", f)
	query := `SELECT u.id, u.name, COUNT(p.id),
       COALESCE(SUM(p.total_invoice_amount), 0), COALESCE(ROUND(AVG(p.total_invoice_amount), 2), 0)
FROM purchases p
JOIN users u ON p.runner_boy_user_id = u.id` + c.Where() + `
GROUP BY u.id, u.name
ORDER BY 4 DESC`
	rows, err := r.pool.Query(ctx, query, c.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RunnerPerformanceRow, error) {
		var out RunnerPerformanceRow
		err := row.Scan(&out.RunnerID, &out.RunnerName, &out.NumPurchases, &out.TotalAmount, &out.AvgAmount)
		return out, err
	})
}

// Outstanding lists purchases still awaiting review or payment, oldest invoice first.
func (r *Repository) Outstanding(ctx context.Context, f Filter) ([]OutstandingRow, error) {
	var c mdshared.Conditions
	c.Fixed("p.status IN " + outstandingStatuses)
	dateRange(&c, "p.invoice_date", f)
	if f.VendorID != nil {
		c.Add("p.vendor_id = ?", *f.VendorID)
	}
	query := `SELECT p.id, COALESCE(mr.request_no, ''), COALESCE(p.invoice_no, ''), p.invoice_date,
       COALESCE(v.name, ''), COALESCE(u.name, ''), COALESCE(b.name, ''), COALESCE(o.order_no, ''),
       p.total_invoice_amount, COALESCE(paid.total, 0), p.status
FROM purchases p
LEFT JOIN material_requests mr ON p.material_request_id = mr.id
LEFT JOIN vendors v ON p.vendor_id = v.id
LEFT JOIN users u ON p.runner_boy_user_id = u.id
LEFT JOIN buyers b ON mr.buyer_id = b.id
LEFT JOIN orders o ON mr.order_id = o.id
LEFT JOIN LATERAL (SELECT SUM(paid_amount) AS total FROM payments WHERE purchase_id = p.id) paid ON TRUE` + c.Where() + `
ORDER BY p.invoice_date ASC NULLS LAST, p.created_at ASC`
	rows, err := r.pool.Query(ctx, query, c.Args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (OutstandingRow, error) {
		var out OutstandingRow
		err := row.Scan(&out.PurchaseID, &out.RequestNo, &out.InvoiceNo, &out.InvoiceDate,
			&out.VendorName, &out.RunnerName, &out.BuyerName, &out.OrderNo,
			&out.TotalInvoiceAmount, &out.TotalPaid, &out.Status)
		out.Balance = out.TotalInvoiceAmount.Sub(out.TotalPaid)
		return out, err
	})
}

// CountRequests counts every material request.
func (r *Repository) CountRequests(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM material_requests`).Scan(&n)
	return n, err
}

// CountPurchases counts purchases in any of the given statuses.
func (r *Repository) CountPurchases(ctx context.Context, statuses ...string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE status = ANY($1)`, statuses).Scan(&n)
	return n, err
}

// SumPaid totals payments, optionally bounded by payment date.
func (r *Repository) SumPaid(ctx context.Context, from, to *time.Time) (decimal.Decimal, error) {
	var c mdshared.Conditions
	dateRange(&c, "payment_date", Filter{From: from, To: to})
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(paid_amount), 0) FROM payments`+c.Where(), c.Args...).Scan(&total)
	return total, err
}

// SumInvoiced totals non-rejected invoices, optionally bounded by invoice date.
func (r *Repository) SumInvoiced(ctx context.Context, from, to *time.Time) (decimal.Decimal, error) {
	var c mdshared.Conditions
	c.Fixed("status <> 'REJECTED'")
	dateRange(&c, "invoice_date", Filter{From: from, To: to})
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_invoice_amount), 0) FROM purchases`+c.Where(), c.Args...).Scan(&total)
	return total, err
}

// MonthlyTrend returns the latest months with payments, oldest first.
func (r *Repository) MonthlyTrend(ctx context.Context, months int) ([]TrendPoint, error) {
	rows, err := r.pool.Query(ctx, `SELECT month, total_paid, num_payments FROM (
    SELECT to_char(payment_date, 'YYYY-MM') AS month, SUM(paid_amount) AS total_paid, COUNT(*) AS num_payments
    FROM payments GROUP BY 1 ORDER BY 1 DESC LIMIT $1
) t ORDER BY month ASC`, months)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TrendPoint, error) {
		var p TrendPoint
		err := row.Scan(&p.Month, &p.TotalPaid, &p.NumPayments)
		return p, err
	})
}

// TopVendors ranks vendors by non-rejected invoice total.
func (r *Repository) TopVendors(ctx context.Context, limit int) ([]VendorTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT v.name, SUM(p.total_invoice_amount) AS total
FROM purchases p JOIN vendors v ON p.vendor_id = v.id
WHERE p.status <> 'REJECTED'
GROUP BY v.id, v.name ORDER BY total DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (VendorTotal, error) {
		var v VendorTotal
		err := row.Scan(&v.Name, &v.Total)
		return v, err
	})
}

// StatusBreakdown counts purchases per status.
func (r *Repository) StatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM purchases GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (StatusCount, error) {
		var s StatusCount
		err := row.Scan(&s.Status, &s.Count)
		return s, err
	})
}
