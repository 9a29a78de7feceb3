package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/textileco/pettycash/internal/shared"
)

// Exportable report kinds.
const (
	ExportDailySummary  = "daily-summary"
	ExportVendorSummary = "vendor-summary"
	ExportOutstanding   = "outstanding"
)

const exportColumnWidth = 20

// Sheet is a tabular report ready to be written as a workbook.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Export loads the rows of kind and lays them out as a sheet.
func (s *Service) Export(ctx context.Context, actor shared.Actor, kind string, f Filter) (Sheet, error) {
	if err := authorize(actor); err != nil {
		return Sheet{}, err
	}
	switch kind {
	case ExportDailySummary:
		rows, err := s.DailySummary(ctx, actor, f)
		if err != nil {
			return Sheet{}, err
		}
		sheet := Sheet{Name: kind, Headers: []string{"Date", "Purchases", "Total Paid (₹)"}}
		for _, r := range rows {
			sheet.Rows = append(sheet.Rows, []any{r.Date.Format("2006-01-02"), r.NumPurchases, money(r.TotalPaid)})
		}
		return sheet, nil
	case ExportVendorSummary:
		rows, err := s.VendorSummary(ctx, actor, f)
		if err != nil {
			return Sheet{}, err
		}
		sheet := Sheet{Name: kind, Headers: []string{"Vendor", "Invoices", "Total (₹)", "Avg (₹)"}}
		for _, r := range rows {
			sheet.Rows = append(sheet.Rows, []any{r.VendorName, r.NumInvoices, money(r.TotalAmount), money(r.AvgAmount)})
		}
		return sheet, nil
	case ExportOutstanding:
		rows, err := s.Outstanding(ctx, actor, f)
		if err != nil {
			return Sheet{}, err
		}
		sheet := Sheet{Name: kind, Headers: []string{
			"Request No", "Invoice No", "Date", "Vendor", "Buyer", "Order",
			"Invoice (₹)", "Paid (₹)", "Balance (₹)", "Status",
		}}
		for _, r := range rows {
			date := ""
			if r.InvoiceDate != nil {
				date = r.InvoiceDate.Format("2006-01-02")
			}
			sheet.Rows = append(sheet.Rows, []any{
				r.RequestNo, r.InvoiceNo, date, r.VendorName, r.BuyerName, r.OrderNo,
				money(r.TotalInvoiceAmount), money(r.TotalPaid), money(r.Balance), r.Status,
			})
		}
		return sheet, nil
	}
	return Sheet{}, fmt.Errorf("%w: unknown report type %q", shared.ErrValidation, kind)
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// WriteXLSX renders the sheet as an xlsx workbook with a bold header row.
func (s Sheet) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", s.Name); err != nil {
		return err
	}
	if len(s.Headers) > 0 {
		header := make([]any, len(s.Headers))
		for i, h := range s.Headers {
			header[i] = h
		}
		if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
			return err
		}
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		if err := f.SetRowStyle(s.Name, 1, 1, bold); err != nil {
			return err
		}
		last, err := excelize.ColumnNumberToName(len(s.Headers))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.Name, "A", last, exportColumnWidth); err != nil {
			return err
		}
	}
	for i, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}
