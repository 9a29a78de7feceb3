package procurement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/textileco/pettycash/internal/platform/db"
	"github.com/textileco/pettycash/internal/shared"
)

// ledgerLockKey serialises ledger writes across transactions.
const ledgerLockKey int64 = 0x7065747479

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const requestColumns = `mr.id, mr.request_no, mr.requested_by_user_id, COALESCE(mr.department, ''), mr.buyer_id, mr.order_id,
mr.preferred_vendor_id, mr.status, mr.requested_date, mr.expected_purchase_date, COALESCE(mr.notes, ''), mr.created_at, mr.updated_at`

func scanRequest(row pgx.Row, extra ...any) (MaterialRequest, error) {
	var mr MaterialRequest
	dest := []any{&mr.ID, &mr.RequestNo, &mr.RequestedBy, &mr.Department, &mr.BuyerID, &mr.OrderID,
		&mr.PreferredVendorID, &mr.Status, &mr.RequestedDate, &mr.ExpectedPurchaseDate, &mr.Notes, &mr.CreatedAt, &mr.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return mr, err
}

const purchaseColumns = `p.id, p.material_request_id, p.runner_boy_user_id, p.vendor_id, COALESCE(p.invoice_no, ''), p.invoice_date,
p.invoice_type_submitted, p.total_invoice_amount, COALESCE(p.invoice_file_path, ''), COALESCE(p.tax_invoice_path, ''),
COALESCE(p.accountant_comment, ''), COALESCE(p.notes, ''), p.status, p.created_at, p.updated_at`

func scanPurchase(row pgx.Row, extra ...any) (Purchase, error) {
	var p Purchase
	dest := []any{&p.ID, &p.RequestID, &p.RunnerID, &p.VendorID, &p.InvoiceNo, &p.InvoiceDate,
		&p.InvoiceType, &p.TotalInvoiceAmount, &p.InvoiceFilePath, &p.TaxInvoicePath,
		&p.AccountantComment, &p.Notes, &p.Status, &p.CreatedAt, &p.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return p, err
}

const confirmationColumns = `vc.id, vc.purchase_id, vc.runner_user_id, COALESCE(u.name, ''), vc.acknowledgement_status,
vc.shown_to_vendor_at, vc.vendor_confirmed_at, COALESCE(vc.runner_remark, ''), vc.created_at, vc.updated_at`

func scanConfirmation(row pgx.Row) (VendorConfirmation, error) {
	var vc VendorConfirmation
	err := row.Scan(&vc.ID, &vc.PurchaseID, &vc.RunnerID, &vc.RunnerName, &vc.Status,
		&vc.ShownToVendorAt, &vc.VendorConfirmedAt, &vc.RunnerRemark, &vc.CreatedAt, &vc.UpdatedAt)
	return vc, err
}

const ledgerColumns = `id, ledger_date, opening_balance, total_outflow, closing_balance, COALESCE(remarks, '')`

func scanLedger(row pgx.Row) (LedgerEntry, error) {
	var e LedgerEntry
	err := row.Scan(&e.ID, &e.LedgerDate, &e.OpeningBalance, &e.TotalOutflow, &e.ClosingBalance, &e.Remarks)
	return e, err
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, what, id)
	}
	return err
}

// mapWriteErr translates constraint violations on insert/update.
func mapWriteErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", shared.ErrConflict, what)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s references a missing record", shared.ErrNotFound, what)
	}
	return err
}

// Fetch helpers

// GetRequest returns a request and its lines.
func (r *Repository) GetRequest(ctx context.Context, id uuid.UUID) (MaterialRequest, []RequestLine, error) {
	mr, err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM material_requests mr WHERE mr.id = $1`, id))
	if err != nil {
		return MaterialRequest{}, nil, notFound(err, "material request", id)
	}
	lines, err := listRequestLines(ctx, r.pool, id)
	if err != nil {
		return MaterialRequest{}, nil, err
	}
	return mr, lines, nil
}

const requestSummarySelect = `SELECT ` + requestColumns + `, COALESCE(u.name, ''), COALESCE(b.name, ''), COALESCE(o.order_no, ''), COALESCE(o.style, ''),
COALESCE((SELECT SUM(expected_amount) FROM material_request_lines WHERE material_request_id = mr.id), 0)`

const requestSummaryFrom = ` FROM material_requests mr
LEFT JOIN users u ON mr.requested_by_user_id = u.id
LEFT JOIN buyers b ON mr.buyer_id = b.id
LEFT JOIN orders o ON mr.order_id = o.id`

func scanRequestSummary(row pgx.Row, extra ...any) (RequestSummary, error) {
	var s RequestSummary
	mr, err := scanRequest(row, append([]any{&s.RequestedByName, &s.BuyerName, &s.OrderNo, &s.Style, &s.TotalExpectedAmount}, extra...)...)
	s.MaterialRequest = mr
	return s, err
}

// ListRequests returns request summaries, newest first.
func (r *Repository) ListRequests(ctx context.Context, filter RequestFilter) ([]RequestSummary, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.RequestedBy != nil {
		add("mr.requested_by_user_id = $%d", *filter.RequestedBy)
	}
	if filter.Status != "" {
		add("mr.status = $%d", filter.Status)
	}
	if filter.BuyerID != nil {
		add("mr.buyer_id = $%d", *filter.BuyerID)
	}
	if filter.OrderID != nil {
		add("mr.order_id = $%d", *filter.OrderID)
	}
	if filter.From != nil {
		add("mr.requested_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("mr.requested_date <= $%d", *filter.To)
	}
	sql := requestSummarySelect + requestSummaryFrom + whereClause(where) + ` ORDER BY mr.created_at DESC`
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RequestSummary
	for rows.Next() {
		s, err := scanRequestSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetRequestDetail returns the request with lines and purchases.
func (r *Repository) GetRequestDetail(ctx context.Context, id uuid.UUID) (RequestDetail, error) {
	var d RequestDetail
	row := r.pool.QueryRow(ctx, requestSummarySelect+`, COALESCE(v.name, '')`+requestSummaryFrom+`
LEFT JOIN vendors v ON mr.preferred_vendor_id = v.id
WHERE mr.id = $1`, id)
	summary, err := scanRequestSummary(row, &d.PreferredVendorName)
	if err != nil {
		return RequestDetail{}, notFound(err, "material request", id)
	}
	d.RequestSummary = summary
	if d.Lines, err = listRequestLines(ctx, r.pool, id); err != nil {
		return RequestDetail{}, err
	}
	if d.Purchases, err = r.ListPurchases(ctx, PurchaseFilter{RequestID: &id}); err != nil {
		return RequestDetail{}, err
	}
	return d, nil
}

func listRequestLines(ctx context.Context, q dbtx, requestID uuid.UUID) ([]RequestLine, error) {
	rows, err := q.Query(ctx, `SELECT l.id, l.material_request_id, l.line_no, l.material_id, COALESCE(m.name, ''), COALESCE(l.description, ''),
l.quantity, l.expected_rate, l.expected_amount, COALESCE(l.remarks, '')
FROM material_request_lines l LEFT JOIN materials m ON l.material_id = m.id
WHERE l.material_request_id = $1 ORDER BY l.line_no`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RequestLine
	for rows.Next() {
		var l RequestLine
		if err := rows.Scan(&l.ID, &l.RequestID, &l.LineNo, &l.MaterialID, &l.MaterialName, &l.Description,
			&l.Quantity, &l.ExpectedRate, &l.ExpectedAmount, &l.Remarks); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const purchaseSummarySelect = `SELECT ` + purchaseColumns + `, COALESCE(mr.request_no, ''), COALESCE(mr.department, ''),
COALESCE(u.name, ''), COALESCE(v.name, ''), COALESCE(b.name, ''), COALESCE(o.order_no, ''), COALESCE(o.style, ''),
COALESCE((SELECT SUM(amount) FROM purchase_lines WHERE purchase_id = p.id), 0),
COALESCE((SELECT SUM(paid_amount) FROM payments WHERE purchase_id = p.id), 0),
vc.acknowledgement_status
FROM purchases p
LEFT JOIN material_requests mr ON p.material_request_id = mr.id
LEFT JOIN users u ON p.runner_boy_user_id = u.id
LEFT JOIN vendors v ON p.vendor_id = v.id
LEFT JOIN buyers b ON mr.buyer_id = b.id
LEFT JOIN orders o ON mr.order_id = o.id
LEFT JOIN vendor_confirmations vc ON vc.purchase_id = p.id`

func scanPurchaseSummary(row pgx.Row) (PurchaseSummary, error) {
	var s PurchaseSummary
	p, err := scanPurchase(row, &s.RequestNo, &s.Department, &s.RunnerName, &s.VendorName, &s.BuyerName,
		&s.OrderNo, &s.Style, &s.ComputedTotal, &s.TotalPaid, &s.AckStatus)
	s.Purchase = p
	return s, err
}

// ListPurchases returns purchase summaries, newest first.
func (r *Repository) ListPurchases(ctx context.Context, filter PurchaseFilter) ([]PurchaseSummary, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.RequestID != nil {
		add("p.material_request_id = $%d", *filter.RequestID)
	}
	if filter.RunnerID != nil {
		add("p.runner_boy_user_id = $%d", *filter.RunnerID)
	}
	if filter.Status != "" {
		add("p.status = $%d", filter.Status)
	}
	if filter.VendorID != nil {
		add("p.vendor_id = $%d", *filter.VendorID)
	}
	if filter.BuyerID != nil {
		add("mr.buyer_id = $%d", *filter.BuyerID)
	}
	if filter.OrderID != nil {
		add("mr.order_id = $%d", *filter.OrderID)
	}
	if filter.From != nil {
		add("p.invoice_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("p.invoice_date <= $%d", *filter.To)
	}
	rows, err := r.pool.Query(ctx, purchaseSummarySelect+whereClause(where)+` ORDER BY p.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseSummary
	for rows.Next() {
		s, err := scanPurchaseSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetPurchaseDetail returns the purchase with lines, payments, request lines
// and vendor confirmation.
func (r *Repository) GetPurchaseDetail(ctx context.Context, id uuid.UUID) (PurchaseDetail, error) {
	summary, err := scanPurchaseSummary(r.pool.QueryRow(ctx, purchaseSummarySelect+` WHERE p.id = $1`, id))
	if err != nil {
		return PurchaseDetail{}, notFound(err, "purchase", id)
	}
	d := PurchaseDetail{PurchaseSummary: summary}
	if d.Lines, err = listPurchaseLines(ctx, r.pool, id); err != nil {
		return PurchaseDetail{}, err
	}
	if d.Payments, err = r.ListPayments(ctx, &id); err != nil {
		return PurchaseDetail{}, err
	}
	if d.RequestLines, err = listRequestLines(ctx, r.pool, summary.RequestID); err != nil {
		return PurchaseDetail{}, err
	}
	for _, l := range d.RequestLines {
		d.TotalExpected = d.TotalExpected.Add(l.ExpectedAmount)
	}
	vc, ok, err := r.GetConfirmation(ctx, id)
	if err != nil {
		return PurchaseDetail{}, err
	}
	if ok {
		d.VendorConfirmation = &vc
	}
	return d, nil
}

func listPurchaseLines(ctx context.Context, q dbtx, purchaseID uuid.UUID) ([]PurchaseLine, error) {
	rows, err := q.Query(ctx, `SELECT pl.id, pl.purchase_id, pl.line_no, pl.material_id, COALESCE(m.name, ''), COALESCE(pl.description, ''),
pl.quantity, pl.rate, pl.amount
FROM purchase_lines pl LEFT JOIN materials m ON pl.material_id = m.id
WHERE pl.purchase_id = $1 ORDER BY pl.line_no`, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PurchaseLine
	for rows.Next() {
		var l PurchaseLine
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.LineNo, &l.MaterialID, &l.MaterialName, &l.Description,
			&l.Quantity, &l.Rate, &l.Amount); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListPayments returns payments, latest payment date first.
func (r *Repository) ListPayments(ctx context.Context, purchaseID *uuid.UUID) ([]Payment, error) {
	sql := `SELECT py.id, py.purchase_id, py.payment_date, py.payment_method, py.paid_amount, COALESCE(py.reference_no, ''),
COALESCE(py.notes, ''), COALESCE(py.payment_proof_file_path, ''), py.created_by_user_id, COALESCE(u.name, ''), py.created_at
FROM payments py LEFT JOIN users u ON py.created_by_user_id = u.id`
	var args []any
	if purchaseID != nil {
		sql += ` WHERE py.purchase_id = $1`
		args = append(args, *purchaseID)
	}
	rows, err := r.pool.Query(ctx, sql+` ORDER BY py.payment_date DESC, py.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.PurchaseID, &p.PaymentDate, &p.Method, &p.PaidAmount, &p.ReferenceNo,
			&p.Notes, &p.ProofFilePath, &p.CreatedBy, &p.CreatedByName, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetConfirmation returns the vendor confirmation for a purchase, if any.
func (r *Repository) GetConfirmation(ctx context.Context, purchaseID uuid.UUID) (VendorConfirmation, bool, error) {
	return getConfirmation(ctx, r.pool, purchaseID, "")
}

func getConfirmation(ctx context.Context, q dbtx, purchaseID uuid.UUID, suffix string) (VendorConfirmation, bool, error) {
	vc, err := scanConfirmation(q.QueryRow(ctx, `SELECT `+confirmationColumns+`
FROM vendor_confirmations vc LEFT JOIN users u ON vc.runner_user_id = u.id
WHERE vc.purchase_id = $1`+suffix, purchaseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return VendorConfirmation{}, false, nil
	}
	if err != nil {
		return VendorConfirmation{}, false, err
	}
	return vc, true, nil
}

// ListLedger returns ledger days in date order.
func (r *Repository) ListLedger(ctx context.Context, from, to *time.Time) ([]LedgerEntry, error) {
	var (
		where []string
		args  []any
	)
	if from != nil {
		args = append(args, *from)
		where = append(where, fmt.Sprintf("ledger_date >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		where = append(where, fmt.Sprintf("ledger_date <= $%d", len(args)))
	}
	rows, err := r.pool.Query(ctx, `SELECT `+ledgerColumns+` FROM petty_cash_ledger`+whereClause(where)+` ORDER BY ledger_date`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerEntry
	for rows.Next() {
		e, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// Transactional operations

func (t *txRepo) NextRequestNo(ctx context.Context, year int) (string, error) {
	var seq int
	err := t.tx.QueryRow(ctx, `INSERT INTO request_sequences (year, last_value) VALUES ($1, 1)
ON CONFLICT (year) DO UPDATE SET last_value = request_sequences.last_value + 1
RETURNING last_value`, year).Scan(&seq)
	if err != nil {
		return "", err
	}
	return formatRequestNo(year, seq), nil
}

func (t *txRepo) CreateRequest(ctx context.Context, req MaterialRequest, lines []RequestLine) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO material_requests (id, request_no, requested_by_user_id, department, buyer_id, order_id,
preferred_vendor_id, status, requested_date, expected_purchase_date, notes, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $12)`,
		req.ID, req.RequestNo, req.RequestedBy, req.Department, req.BuyerID, req.OrderID,
		req.PreferredVendorID, req.Status, req.RequestedDate, req.ExpectedPurchaseDate, req.Notes, req.CreatedAt)
	if err != nil {
		return mapWriteErr(err, "material request")
	}
	return t.insertRequestLines(ctx, lines)
}

func (t *txRepo) insertRequestLines(ctx context.Context, lines []RequestLine) error {
	for _, l := range lines {
		_, err := t.tx.Exec(ctx, `INSERT INTO material_request_lines (id, material_request_id, line_no, material_id, description,
quantity, expected_rate, expected_amount, remarks)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''))`,
			l.ID, l.RequestID, l.LineNo, l.MaterialID, l.Description, l.Quantity, l.ExpectedRate, l.ExpectedAmount, l.Remarks)
		if err != nil {
			return mapWriteErr(err, "material request line")
		}
	}
	return nil
}

func (t *txRepo) LockRequest(ctx context.Context, id uuid.UUID) (MaterialRequest, error) {
	mr, err := scanRequest(t.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM material_requests mr WHERE mr.id = $1 FOR UPDATE`, id))
	if err != nil {
		return MaterialRequest{}, notFound(err, "material request", id)
	}
	return mr, nil
}

func (t *txRepo) UpdateRequest(ctx context.Context, id uuid.UUID, patch RequestFields) error {
	_, err := t.tx.Exec(ctx, `UPDATE material_requests SET
department = COALESCE($2, department),
expected_purchase_date = COALESCE($3, expected_purchase_date),
preferred_vendor_id = COALESCE($4, preferred_vendor_id),
notes = COALESCE($5, notes),
updated_at = NOW()
WHERE id = $1`, id, patch.Department, patch.ExpectedPurchaseDate, patch.PreferredVendorID, patch.Notes)
	return mapWriteErr(err, "material request")
}

func (t *txRepo) ReplaceRequestLines(ctx context.Context, requestID uuid.UUID, lines []RequestLine) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM material_request_lines WHERE material_request_id = $1`, requestID); err != nil {
		return err
	}
	return t.insertRequestLines(ctx, lines)
}

func (t *txRepo) SetRequestStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE material_requests SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (t *txRepo) CountPurchases(ctx context.Context, requestID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE material_request_id = $1`, requestID).Scan(&n)
	return n, err
}

func (t *txRepo) CreatePurchase(ctx context.Context, p Purchase, lines []PurchaseLine) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO purchases (id, material_request_id, runner_boy_user_id, vendor_id, invoice_no, invoice_date,
invoice_type_submitted, total_invoice_amount, notes, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''), $10, $11, $11)`,
		p.ID, p.RequestID, p.RunnerID, p.VendorID, p.InvoiceNo, p.InvoiceDate,
		p.InvoiceType, p.TotalInvoiceAmount, p.Notes, p.Status, p.CreatedAt)
	if err != nil {
		return mapWriteErr(err, "purchase")
	}
	for _, l := range lines {
		_, err := t.tx.Exec(ctx, `INSERT INTO purchase_lines (id, purchase_id, line_no, material_id, description, quantity, rate, amount)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
			l.ID, l.PurchaseID, l.LineNo, l.MaterialID, l.Description, l.Quantity, l.Rate, l.Amount)
		if err != nil {
			return mapWriteErr(err, "purchase line")
		}
	}
	return nil
}

func (t *txRepo) LockPurchase(ctx context.Context, id uuid.UUID) (Purchase, error) {
	p, err := scanPurchase(t.tx.QueryRow(ctx, `SELECT `+purchaseColumns+` FROM purchases p WHERE p.id = $1 FOR UPDATE`, id))
	if err != nil {
		return Purchase{}, notFound(err, "purchase", id)
	}
	return p, nil
}

func (t *txRepo) SetPurchaseStatus(ctx context.Context, id uuid.UUID, status PurchaseStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchases SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (t *txRepo) SetAccountantComment(ctx context.Context, id uuid.UUID, comment string) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchases SET accountant_comment = $2, updated_at = NOW() WHERE id = $1`, id, comment)
	return err
}

func (t *txRepo) SetInvoiceFile(ctx context.Context, id uuid.UUID, path string) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchases SET invoice_file_path = $2, updated_at = NOW() WHERE id = $1`, id, path)
	return err
}

func (t *txRepo) SetTaxInvoice(ctx context.Context, id uuid.UUID, path string, status PurchaseStatus) error {
	_, err := t.tx.Exec(ctx, `UPDATE purchases SET tax_invoice_path = $2, status = $3, updated_at = NOW() WHERE id = $1`, id, path, status)
	return err
}

func (t *txRepo) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	for _, stmt := range []string{
		`DELETE FROM vendor_confirmations WHERE purchase_id = $1`,
		`DELETE FROM payments WHERE purchase_id = $1`,
		`DELETE FROM purchase_lines WHERE purchase_id = $1`,
		`DELETE FROM purchases WHERE id = $1`,
	} {
		if _, err := t.tx.Exec(ctx, stmt, id); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepo) InsertPayment(ctx context.Context, p Payment) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO payments (id, purchase_id, payment_date, payment_method, paid_amount, reference_no, notes,
created_by_user_id, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		p.ID, p.PurchaseID, p.PaymentDate, p.Method, p.PaidAmount, p.ReferenceNo, p.Notes, p.CreatedBy, p.CreatedAt)
	return mapWriteErr(err, "payment")
}

func (t *txRepo) SumPayments(ctx context.Context, purchaseID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(paid_amount), 0) FROM payments WHERE purchase_id = $1`, purchaseID).Scan(&total)
	return total, err
}

func (t *txRepo) SetPaymentProof(ctx context.Context, paymentID uuid.UUID, path string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE payments SET payment_proof_file_path = $2 WHERE id = $1`, paymentID, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment %s", shared.ErrNotFound, paymentID)
	}
	return nil
}

func (t *txRepo) LockConfirmation(ctx context.Context, purchaseID uuid.UUID) (VendorConfirmation, bool, error) {
	return getConfirmation(ctx, t.tx, purchaseID, ` FOR UPDATE OF vc`)
}

func (t *txRepo) InsertConfirmation(ctx context.Context, vc VendorConfirmation) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO vendor_confirmations (id, purchase_id, runner_user_id, acknowledgement_status,
shown_to_vendor_at, vendor_confirmed_at, runner_remark, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)`,
		vc.ID, vc.PurchaseID, vc.RunnerID, vc.Status, vc.ShownToVendorAt, vc.VendorConfirmedAt, vc.RunnerRemark, vc.CreatedAt, vc.UpdatedAt)
	return mapWriteErr(err, "vendor confirmation")
}

// UpdateConfirmation keeps stored timestamps when already set.
func (t *txRepo) UpdateConfirmation(ctx context.Context, vc VendorConfirmation) error {
	_, err := t.tx.Exec(ctx, `UPDATE vendor_confirmations SET acknowledgement_status = $2,
shown_to_vendor_at = COALESCE(shown_to_vendor_at, $3),
vendor_confirmed_at = COALESCE(vendor_confirmed_at, $4),
runner_remark = NULLIF($5, ''), updated_at = $6
WHERE id = $1`, vc.ID, vc.Status, vc.ShownToVendorAt, vc.VendorConfirmedAt, vc.RunnerRemark, vc.UpdatedAt)
	return err
}

func (t *txRepo) LockLedger(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey)
	return err
}

func (t *txRepo) GetLedgerByDate(ctx context.Context, date time.Time) (LedgerEntry, bool, error) {
	e, err := scanLedger(t.tx.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM petty_cash_ledger WHERE ledger_date = $1`, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return LedgerEntry{}, false, nil
	}
	return e, err == nil, err
}

func (t *txRepo) LatestLedger(ctx context.Context) (LedgerEntry, bool, error) {
	e, err := scanLedger(t.tx.QueryRow(ctx, `SELECT `+ledgerColumns+` FROM petty_cash_ledger ORDER BY ledger_date DESC LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return LedgerEntry{}, false, nil
	}
	return e, err == nil, err
}

func (t *txRepo) InsertLedger(ctx context.Context, e LedgerEntry) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO petty_cash_ledger (id, ledger_date, opening_balance, total_outflow, closing_balance, remarks)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
		e.ID, e.LedgerDate, e.OpeningBalance, e.TotalOutflow, e.ClosingBalance, e.Remarks)
	return mapWriteErr(err, "ledger day")
}

func (t *txRepo) AddLedgerOutflow(ctx context.Context, date time.Time, amount decimal.Decimal) (LedgerEntry, error) {
	return scanLedger(t.tx.QueryRow(ctx, `UPDATE petty_cash_ledger
SET total_outflow = total_outflow + $2, closing_balance = closing_balance - $2, updated_at = NOW()
WHERE ledger_date = $1
RETURNING `+ledgerColumns, date, amount))
}

var (
	_ RepositoryPort = (*Repository)(nil)
	_ TxRepository   = (*txRepo)(nil)
)
