package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus is the material request lifecycle status.
type RequestStatus string

const (
	RequestDraft           RequestStatus = "DRAFT"
	RequestPendingPurchase RequestStatus = "PENDING_PURCHASE"
	RequestInProgress      RequestStatus = "IN_PROGRESS"
	RequestCompleted       RequestStatus = "COMPLETED"
	RequestCancelled       RequestStatus = "CANCELLED"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestDraft, RequestPendingPurchase, RequestInProgress, RequestCompleted, RequestCancelled:
		return true
	}
	return false
}

// PurchaseStatus is the purchase lifecycle status.
type PurchaseStatus string

const (
	PurchaseInvoiceSubmitted      PurchaseStatus = "INVOICE_SUBMITTED"
	PurchaseUnderReview           PurchaseStatus = "UNDER_REVIEW"
	PurchaseApproved              PurchaseStatus = "APPROVED"
	PurchaseRejected              PurchaseStatus = "REJECTED"
	PurchasePartiallyPaid         PurchaseStatus = "PARTIALLY_PAID"
	PurchasePaid                  PurchaseStatus = "PAID"
	PurchasePaidTaxInvoicePending PurchaseStatus = "PAID_TAX_INVOICE_PENDING"
	PurchaseCompleted             PurchaseStatus = "COMPLETED"
)

// Valid reports whether s is a known purchase status.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseInvoiceSubmitted, PurchaseUnderReview, PurchaseApproved, PurchaseRejected,
		PurchasePartiallyPaid, PurchasePaid, PurchasePaidTaxInvoicePending, PurchaseCompleted:
		return true
	}
	return false
}

// InvoiceType is the kind of invoice a runner submitted.
type InvoiceType string

const (
	InvoiceTax         InvoiceType = "TAX_INVOICE"
	InvoiceProvisional InvoiceType = "PROVISIONAL"
)

// ParseInvoiceType falls back to TAX_INVOICE for empty or unknown values.
func ParseInvoiceType(v string) InvoiceType {
	if InvoiceType(v) == InvoiceProvisional {
		return InvoiceProvisional
	}
	return InvoiceTax
}

// Label is the human wording used in notifications.
func (t InvoiceType) Label() string {
	if t == InvoiceProvisional {
		return "Provisional Invoice"
	}
	return "Tax Invoice"
}

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "Cash"
	MethodUPI          PaymentMethod = "UPI"
	MethodBankTransfer PaymentMethod = "BankTransfer"
	MethodCheque       PaymentMethod = "Cheque"
	MethodOther        PaymentMethod = "Other"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodBankTransfer, MethodCheque, MethodOther:
		return true
	}
	return false
}

// AckStatus is the vendor acknowledgement status.
type AckStatus string

const (
	AckNotAcknowledged AckStatus = "NOT_ACKNOWLEDGED"
	AckShownToVendor   AckStatus = "SHOWN_TO_VENDOR"
	AckVendorConfirmed AckStatus = "VENDOR_CONFIRMED"
)

// MaterialRequest is a store manager's request for materials.
type MaterialRequest struct {
	ID                   uuid.UUID     `json:"id"`
	RequestNo            string        `json:"request_no"`
	RequestedBy          uuid.UUID     `json:"requested_by_user_id"`
	Department           string        `json:"department,omitempty"`
	BuyerID              *uuid.UUID    `json:"buyer_id"`
	OrderID              *uuid.UUID    `json:"order_id"`
	PreferredVendorID    *uuid.UUID    `json:"preferred_vendor_id"`
	Status               RequestStatus `json:"status"`
	RequestedDate        time.Time     `json:"requested_date"`
	ExpectedPurchaseDate *time.Time    `json:"expected_purchase_date"`
	Notes                string        `json:"notes,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// RequestLine is one requested material.
type RequestLine struct {
	ID             uuid.UUID       `json:"id"`
	RequestID      uuid.UUID       `json:"material_request_id"`
	LineNo         int             `json:"line_no"`
	MaterialID     *uuid.UUID      `json:"material_id"`
	MaterialName   string          `json:"material_name,omitempty"`
	Description    string          `json:"description,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpectedRate   decimal.Decimal `json:"expected_rate"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	Remarks        string          `json:"remarks,omitempty"`
}

// Purchase is a runner's invoice submission against a request.
type Purchase struct {
	ID                 uuid.UUID       `json:"id"`
	RequestID          uuid.UUID       `json:"material_request_id"`
	RunnerID           uuid.UUID       `json:"runner_boy_user_id"`
	VendorID           uuid.UUID       `json:"vendor_id"`
	InvoiceNo          string          `json:"invoice_no,omitempty"`
	InvoiceDate        *time.Time      `json:"invoice_date"`
	InvoiceType        InvoiceType     `json:"invoice_type_submitted"`
	TotalInvoiceAmount decimal.Decimal `json:"total_invoice_amount"`
	InvoiceFilePath    string          `json:"invoice_file_path,omitempty"`
	TaxInvoicePath     string          `json:"tax_invoice_path,omitempty"`
	AccountantComment  string          `json:"accountant_comment,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	Status             PurchaseStatus  `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Reference returns the short label used in messages.
func (p Purchase) Reference() string {
	if p.InvoiceNo != "" {
		return p.InvoiceNo
	}
	return p.ID.String()[:8]
}

// PurchaseLine is an invoiced item. Amount is fixed at creation.
type PurchaseLine struct {
	ID           uuid.UUID       `json:"id"`
	PurchaseID   uuid.UUID       `json:"purchase_id"`
	LineNo       int             `json:"line_no"`
	MaterialID   *uuid.UUID      `json:"material_id"`
	MaterialName string          `json:"material_name,omitempty"`
	Description  string          `json:"description,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
}

// Payment is an append-only payment event.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	PurchaseID    uuid.UUID       `json:"purchase_id"`
	PaymentDate   time.Time       `json:"payment_date"`
	Method        PaymentMethod   `json:"payment_method"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	ReferenceNo   string          `json:"reference_no,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ProofFilePath string          `json:"payment_proof_file_path,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by_user_id"`
	CreatedByName string          `json:"created_by_name,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// VendorConfirmation tracks runner-attested vendor acknowledgement.
type VendorConfirmation struct {
	ID                uuid.UUID  `json:"id"`
	PurchaseID        uuid.UUID  `json:"purchase_id"`
	RunnerID          uuid.UUID  `json:"runner_user_id"`
	RunnerName        string     `json:"runner_name,omitempty"`
	Status            AckStatus  `json:"acknowledgement_status"`
	ShownToVendorAt   *time.Time `json:"shown_to_vendor_at"`
	VendorConfirmedAt *time.Time `json:"vendor_confirmed_at"`
	RunnerRemark      string     `json:"runner_remark,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// LedgerEntry is one petty cash day.
type LedgerEntry struct {
	ID             uuid.UUID       `json:"id"`
	LedgerDate     time.Time       `json:"ledger_date"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalOutflow   decimal.Decimal `json:"total_outflow"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Remarks        string          `json:"remarks,omitempty"`
}

// RequestSummary is the list projection of a request.
type RequestSummary struct {
	MaterialRequest
	RequestedByName     string          `json:"requested_by_name,omitempty"`
	BuyerName           string          `json:"buyer_name,omitempty"`
	OrderNo             string          `json:"order_no,omitempty"`
	Style               string          `json:"style,omitempty"`
	TotalExpectedAmount decimal.Decimal `json:"total_expected_amount"`
}

// RequestDetail is a request with its lines and purchases.
type RequestDetail struct {
	RequestSummary
	PreferredVendorName string            `json:"preferred_vendor_name,omitempty"`
	Lines               []RequestLine     `json:"lines"`
	Purchases           []PurchaseSummary `json:"purchases"`
}

// PurchaseSummary is the list projection of a purchase.
type PurchaseSummary struct {
	Purchase
	RequestNo     string          `json:"request_no,omitempty"`
	Department    string          `json:"department,omitempty"`
	RunnerName    string          `json:"runner_name,omitempty"`
	VendorName    string          `json:"vendor_name,omitempty"`
	BuyerName     string          `json:"buyer_name,omitempty"`
	OrderNo       string          `json:"order_no,omitempty"`
	Style         string          `json:"style,omitempty"`
	ComputedTotal decimal.Decimal `json:"computed_total"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	AckStatus     *AckStatus      `json:"acknowledgement_status"`
}

// PurchaseDetail is a purchase with everything the review screen needs.
type PurchaseDetail struct {
	PurchaseSummary
	TotalExpected      decimal.Decimal     `json:"total_expected"`
	Lines              []PurchaseLine      `json:"lines"`
	Payments           []Payment           `json:"payments"`
	RequestLines       []RequestLine       `json:"requestLines"`
	VendorConfirmation *VendorConfirmation `json:"vendorConfirmation"`
}

// RequestFilter narrows request listings.
type RequestFilter struct {
	Status      RequestStatus
	BuyerID     *uuid.UUID
	OrderID     *uuid.UUID
	RequestedBy *uuid.UUID
	From        *time.Time
	To          *time.Time
}

// PurchaseFilter narrows purchase listings.
type PurchaseFilter struct {
	Status    PurchaseStatus
	RequestID *uuid.UUID
	VendorID  *uuid.UUID
	RunnerID  *uuid.UUID
	BuyerID   *uuid.UUID
	OrderID   *uuid.UUID
	From      *time.Time
	To        *time.Time
}
