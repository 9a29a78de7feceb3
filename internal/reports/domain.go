// Package reports aggregates petty cash spend for accountants and the CEO.
package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter scopes report queries. Date bounds are inclusive.
type Filter struct {
	From     *time.Time
	To       *time.Time
	VendorID *uuid.UUID
	BuyerID  *uuid.UUID
	OrderID  *uuid.UUID
}

// DailySummaryRow is one payment day merged with its ledger row.
type DailySummaryRow struct {
	Date           time.Time           `json:"date"`
	NumPurchases   int                 `json:"num_purchases"`
	TotalPaid      decimal.Decimal     `json:"total_paid"`
	Departments    []string            `json:"departments"`
	OpeningBalance decimal.NullDecimal `json:"opening_balance"`
	TotalOutflow   decimal.NullDecimal `json:"total_outflow"`
	ClosingBalance decimal.NullDecimal `json:"closing_balance"`
}

// VendorSummaryRow aggregates non-rejected invoices per vendor.
type VendorSummaryRow struct {
	VendorID    uuid.UUID       `json:"vendor_id"`
	VendorName  string          `json:"vendor_name"`
	Phone       string          `json:"phone"`
	NumInvoices int             `json:"num_invoices"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	AvgAmount   decimal.Decimal `json:"avg_amount"`
}

// BuyerOrderRow is material cost per buyer, order and material.
type BuyerOrderRow struct {
	BuyerName     string          `json:"buyer_name"`
	OrderNo       string          `json:"order_no"`
	Style         string          `json:"style"`
	MaterialName  string          `json:"material_name"`
	Category      string          `json:"category"`
	TotalQty      decimal.Decimal `json:"total_qty"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	NumPurchases  int             `json:"num_purchases"`
}

// RunnerPerformanceRow aggregates purchases per runner.
type RunnerPerformanceRow struct {
	RunnerID     uuid.UUID       `json:"id"`
	RunnerName   string          `json:"runner_name"`
	NumPurchases int             `json:"num_purchases"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	AvgAmount    decimal.Decimal `json:"avg_amount"`
}

// OutstandingRow is a purchase that still awaits review or payment.
type OutstandingRow struct {
	PurchaseID         uuid.UUID       `json:"id"`
	RequestNo          string          `json:"request_no"`
	InvoiceNo          string          `json:"invoice_no"`
	InvoiceDate        *time.Time      `json:"invoice_date"`
	VendorName         string          `json:"vendor_name"`
	RunnerName         string          `json:"runner_name"`
	BuyerName          string          `json:"buyer_name"`
	OrderNo            string          `json:"order_no"`
	TotalInvoiceAmount decimal.Decimal `json:"total_invoice_amount"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	Balance            decimal.Decimal `json:"balance"`
	Status             string          `json:"status"`
}

// TrendPoint is the payment total of one month, formatted YYYY-MM.
type TrendPoint struct {
	Month       string          `json:"month"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	NumPayments int             `json:"num_payments"`
}

// VendorTotal ranks vendors by invoiced amount.
type VendorTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// StatusCount counts purchases per status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Dashboard holds the CEO KPI cards and chart data.
type Dashboard struct {
	TotalRequests    int             `json:"totalRequests"`
	PendingPurchases int             `json:"pendingPurchases"`
	ApprovedUnpaid   int             `json:"approvedUnpaid"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	TotalInvoiced    decimal.Decimal `json:"totalInvoiced"`
	MonthlyTrend     []TrendPoint    `json:"monthlyTrend"`
	TopVendors       []VendorTotal   `json:"topVendors"`
	StatusBreakdown  []StatusCount   `json:"statusBreakdown"`
}
