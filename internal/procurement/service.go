package procurement

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/textileco/pettycash/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRequest(ctx context.Context, id uuid.UUID) (MaterialRequest, []RequestLine, error)
	GetRequestDetail(ctx context.Context, id uuid.UUID) (RequestDetail, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]RequestSummary, error)
	GetPurchaseDetail(ctx context.Context, id uuid.UUID) (PurchaseDetail, error)
	ListPurchases(ctx context.Context, filter PurchaseFilter) ([]PurchaseSummary, error)
	ListPayments(ctx context.Context, purchaseID *uuid.UUID) ([]Payment, error)
	GetConfirmation(ctx context.Context, purchaseID uuid.UUID) (VendorConfirmation, bool, error)
	ListLedger(ctx context.Context, from, to *time.Time) ([]LedgerEntry, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	NextRequestNo(ctx context.Context, year int) (string, error)
	CreateRequest(ctx context.Context, req MaterialRequest, lines []RequestLine) error
	LockRequest(ctx context.Context, id uuid.UUID) (MaterialRequest, error)
	UpdateRequest(ctx context.Context, id uuid.UUID, patch RequestFields) error
	ReplaceRequestLines(ctx context.Context, requestID uuid.UUID, lines []RequestLine) error
	SetRequestStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error
	CountPurchases(ctx context.Context, requestID uuid.UUID) (int, error)

	CreatePurchase(ctx context.Context, p Purchase, lines []PurchaseLine) error
	LockPurchase(ctx context.Context, id uuid.UUID) (Purchase, error)
	SetPurchaseStatus(ctx context.Context, id uuid.UUID, status PurchaseStatus) error
	SetAccountantComment(ctx context.Context, id uuid.UUID, comment string) error
	SetInvoiceFile(ctx context.Context, id uuid.UUID, path string) error
	SetTaxInvoice(ctx context.Context, id uuid.UUID, path string, status PurchaseStatus) error
	DeletePurchase(ctx context.Context, id uuid.UUID) error

	InsertPayment(ctx context.Context, payment Payment) error
	SumPayments(ctx context.Context, purchaseID uuid.UUID) (decimal.Decimal, error)
	SetPaymentProof(ctx context.Context, paymentID uuid.UUID, path string) error

	LockConfirmation(ctx context.Context, purchaseID uuid.UUID) (VendorConfirmation, bool, error)
	InsertConfirmation(ctx context.Context, vc VendorConfirmation) error
	UpdateConfirmation(ctx context.Context, vc VendorConfirmation) error

	LockLedger(ctx context.Context) error
	GetLedgerByDate(ctx context.Context, date time.Time) (LedgerEntry, bool, error)
	LatestLedger(ctx context.Context) (LedgerEntry, bool, error)
	InsertLedger(ctx context.Context, entry LedgerEntry) error
	AddLedgerOutflow(ctx context.Context, date time.Time, amount decimal.Decimal) (LedgerEntry, error)
}

// Observer receives lifecycle counters.
type Observer interface {
	ObserveTransition(entity, from, to string)
	ObservePayment(amount float64)
}

// IdempotencyPort guards replayed payment submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// ServiceConfig carries optional collaborators and behaviour switches.
type ServiceConfig struct {
	// Lenient lets approve/reject run from any status and lets callers set
	// any request status, matching legacy admin tooling.
	Lenient     bool
	Clock       func() time.Time
	Logger      *slog.Logger
	Observer    Observer
	Idempotency IdempotencyPort
}

// Service orchestrates the petty cash lifecycle.
type Service struct {
	repo    RepositoryPort
	emitter shared.Emitter
	cfg     ServiceConfig
}

// NewService constructs procurement service.
func NewService(repo RepositoryPort, emitter shared.Emitter, cfg ServiceConfig) *Service {
	if emitter == nil {
		emitter = shared.NopEmitter{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{repo: repo, emitter: emitter, cfg: cfg}
}

func (s *Service) now() time.Time {
	return s.cfg.Clock().UTC()
}

func (s *Service) emit(ctx context.Context, events shared.Events) {
	if events.Empty() {
		return
	}
	s.emitter.Emit(ctx, events)
}

func (s *Service) observeTransition(entity string, from, to string) {
	if s.cfg.Observer == nil || from == to {
		return
	}
	s.cfg.Observer.ObserveTransition(entity, from, to)
}
