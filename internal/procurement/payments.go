package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/textileco/pettycash/internal/shared"
)

const idempotencyModule = "procurement.payment"

// PaymentInput describes a payment against an approved purchase.
type PaymentInput struct {
	PurchaseID     uuid.UUID
	PaymentDate    time.Time
	Method         PaymentMethod
	Amount         decimal.Decimal
	ReferenceNo    string
	Notes          string
	IdempotencyKey string
}

// PaymentResult reports the outcome of RecordPayment.
type PaymentResult struct {
	ID        uuid.UUID       `json:"id"`
	Status    PurchaseStatus  `json:"status"`
	TotalPaid decimal.Decimal `json:"total_paid"`
	Ledger    LedgerEntry     `json:"ledger"`
}

// OpenLedgerInput seeds the petty cash balance for a day.
type OpenLedgerInput struct {
	LedgerDate     time.Time
	OpeningBalance decimal.Decimal
	Remarks        string
}

func (in PaymentInput) validate() error {
	switch {
	case in.PurchaseID == uuid.Nil:
		return fmt.Errorf("%w: purchase_id required", shared.ErrValidation)
	case in.PaymentDate.IsZero():
		return fmt.Errorf("%w: payment_date required", shared.ErrValidation)
	case !in.Method.Valid():
		return fmt.Errorf("%w: payment_method must be one of Cash, UPI, BankTransfer, Cheque, Other", shared.ErrValidation)
	}
	return validateMoney("paid_amount", in.Amount, true)
}

// RecordPayment appends a payment, re-derives the purchase status from the
// fresh paid total, books the ledger and bootstraps the vendor confirmation,
// all in one transaction holding the purchase row lock.
func (s *Service) RecordPayment(ctx context.Context, actor shared.Actor, input PaymentInput) (PaymentResult, error) {
	if err := shared.RequireRole(actor, shared.RoleAccountant); err != nil {
		return PaymentResult{}, err
	}
	if err := input.validate(); err != nil {
		return PaymentResult{}, err
	}
	claimed := false
	if input.IdempotencyKey != "" && s.cfg.Idempotency != nil {
		if err := s.cfg.Idempotency.CheckAndInsert(ctx, input.IdempotencyKey, idempotencyModule); err != nil {
			return PaymentResult{}, err
		}
		claimed = true
	}

	payment := Payment{
		ID:          uuid.New(),
		PurchaseID:  input.PurchaseID,
		PaymentDate: dateOnly(input.PaymentDate),
		Method:      input.Method,
		PaidAmount:  input.Amount,
		ReferenceNo: input.ReferenceNo,
		Notes:       input.Notes,
		CreatedBy:   actor.ID,
		CreatedAt:   s.now(),
	}
	var (
		p      Purchase
		req    MaterialRequest
		result = PaymentResult{ID: payment.ID}
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		p, err = tx.LockPurchase(ctx, input.PurchaseID)
		if err != nil {
			return err
		}
		if err := checkPayable(p); err != nil {
			return err
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}
		result.TotalPaid, err = tx.SumPayments(ctx, p.ID)
		if err != nil {
			return err
		}
		result.Status, err = derivePaymentStatus(p, result.TotalPaid)
		if err != nil {
			return err
		}
		if err := tx.SetPurchaseStatus(ctx, p.ID, result.Status); err != nil {
			return err
		}
		result.Ledger, err = postOutflow(ctx, tx, payment.PaymentDate, payment.PaidAmount)
		if err != nil {
			return err
		}
		if err := ensureConfirmation(ctx, tx, p, s.now()); err != nil {
			return err
		}
		req, err = tx.LockRequest(ctx, p.RequestID)
		return err
	})
	if err != nil {
		if claimed {
			if delErr := s.cfg.Idempotency.Delete(ctx, input.IdempotencyKey, idempotencyModule); delErr != nil {
				s.cfg.Logger.Warn("release idempotency key", slog.String("key", input.IdempotencyKey), slog.Any("error", delErr))
			}
		}
		return PaymentResult{}, err
	}
	s.observeTransition("purchase", string(p.Status), string(result.Status))
	if s.cfg.Observer != nil {
		s.cfg.Observer.ObservePayment(payment.PaidAmount.InexactFloat64())
	}

	var events shared.Events
	link := purchaseLink(p.ID)
	events.NotifyUsers("Payment Recorded – Confirmation Required",
		fmt.Sprintf("Payment of %s recorded for purchase %s. Please view payment proof and confirm with vendor.", rupees(payment.PaidAmount), p.Reference()),
		link, p.RunnerID)
	events.NotifyUsers("Payment Recorded", fmt.Sprintf("Payment recorded for your request %s", req.RequestNo), link, req.RequestedBy)
	events.Audit(audit(actor, EntityPayment, payment.ID, "CREATE", nil, map[string]any{
		"purchase_id": p.ID,
		"paid_amount": payment.PaidAmount,
		"newStatus":   result.Status,
	}))
	s.emit(ctx, events)
	return result, nil
}

func ensureConfirmation(ctx context.Context, tx TxRepository, p Purchase, now time.Time) error {
	if _, ok, err := tx.LockConfirmation(ctx, p.ID); err != nil || ok {
		return err
	}
	return tx.InsertConfirmation(ctx, VendorConfirmation{
		ID:         uuid.New(),
		PurchaseID: p.ID,
		RunnerID:   p.RunnerID,
		Status:     AckNotAcknowledged,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

// AttachPaymentProof stores the proof file path. It has no status effect.
func (s *Service) AttachPaymentProof(ctx context.Context, actor shared.Actor, paymentID uuid.UUID, path string) error {
	if err := shared.RequireRole(actor, shared.RoleAccountant); err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: no file uploaded", shared.ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetPaymentProof(ctx, paymentID, path)
	})
}

// ListPayments lists payments, optionally for one purchase.
func (s *Service) ListPayments(ctx context.Context, actor shared.Actor, purchaseID *uuid.UUID) ([]Payment, error) {
	if actor.ID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	return s.repo.ListPayments(ctx, purchaseID)
}

// ListLedger returns ledger days within the optional range.
func (s *Service) ListLedger(ctx context.Context, actor shared.Actor, from, to *time.Time) ([]LedgerEntry, error) {
	if err := shared.RequireRole(actor, shared.RoleAccountant, shared.RoleCEO); err != nil {
		return nil, err
	}
	return s.repo.ListLedger(ctx, from, to)
}

// OpenLedgerDay creates a ledger row with no outflow for the given date.
func (s *Service) OpenLedgerDay(ctx context.Context, actor shared.Actor, input OpenLedgerInput) (LedgerEntry, error) {
	if err := shared.RequireRole(actor, shared.RoleAccountant); err != nil {
		return LedgerEntry{}, err
	}
	if input.LedgerDate.IsZero() {
		return LedgerEntry{}, fmt.Errorf("%w: ledger_date required", shared.ErrValidation)
	}
	if err := validateMoney("opening_balance", input.OpeningBalance, false); err != nil {
		return LedgerEntry{}, err
	}
	entry := LedgerEntry{
		ID:             uuid.New(),
		LedgerDate:     dateOnly(input.LedgerDate),
		OpeningBalance: input.OpeningBalance,
		TotalOutflow:   decimal.Zero,
		ClosingBalance: input.OpeningBalance,
		Remarks:        input.Remarks,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockLedger(ctx); err != nil {
			return err
		}
		if _, ok, err := tx.GetLedgerByDate(ctx, entry.LedgerDate); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: ledger already exists for %s", shared.ErrConflict, entry.LedgerDate.Format(time.DateOnly))
		}
		return tx.InsertLedger(ctx, entry)
	})
	if err != nil {
		return LedgerEntry{}, err
	}
	var events shared.Events
	events.Audit(audit(actor, EntityLedger, entry.ID, "OPEN", nil, entry))
	s.emit(ctx, events)
	return entry, nil
}
