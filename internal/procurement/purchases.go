package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/textileco/pettycash/internal/shared"
)

// PurchaseLineInput describes an invoiced item. ActualRate, when non-zero,
// takes precedence over Rate.
type PurchaseLineInput struct {
	MaterialID  *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	ActualRate  decimal.Decimal
}

// CreatePurchaseInput describes an invoice submission.
type CreatePurchaseInput struct {
	RequestID          uuid.UUID
	VendorID           uuid.UUID
	InvoiceNo          string
	InvoiceDate        *time.Time
	InvoiceType        InvoiceType
	TotalInvoiceAmount decimal.Decimal
	Notes              string
	Lines              []PurchaseLineInput
}

// ReviewInput carries the accountant's decision comment.
type ReviewInput struct {
	Comment string
}

// TaxInvoiceResult reports the stored path and resulting status.
type TaxInvoiceResult struct {
	FilePath string         `json:"file_path"`
	Status   PurchaseStatus `json:"status"`
}

// CreatePurchase records a runner's invoice submission and moves the parent
// request to IN_PROGRESS.
func (s *Service) CreatePurchase(ctx context.Context, actor shared.Actor, input CreatePurchaseInput) (Purchase, error) {
	if err := shared.RequireRole(actor, shared.RoleRunnerBoy); err != nil {
		return Purchase{}, err
	}
	if input.RequestID == uuid.Nil {
		return Purchase{}, fmt.Errorf("%w: material_request_id required", shared.ErrValidation)
	}
	if input.VendorID == uuid.Nil {
		return Purchase{}, fmt.Errorf("%w: vendor_id required", shared.ErrValidation)
	}
	if err := validateMoney("total_invoice_amount", input.TotalInvoiceAmount, false); err != nil {
		return Purchase{}, err
	}
	if input.InvoiceType == "" {
		input.InvoiceType = InvoiceTax
	}
	now := s.now()
	p := Purchase{
		ID:                 uuid.New(),
		RequestID:          input.RequestID,
		RunnerID:           actor.ID,
		VendorID:           input.VendorID,
		InvoiceNo:          input.InvoiceNo,
		InvoiceDate:        input.InvoiceDate,
		InvoiceType:        input.InvoiceType,
		TotalInvoiceAmount: input.TotalInvoiceAmount,
		Notes:              input.Notes,
		Status:             PurchaseInvoiceSubmitted,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	lines := make([]PurchaseLine, 0, len(input.Lines))
	for i, in := range input.Lines {
		rate := in.Rate
		if !in.ActualRate.IsZero() {
			rate = in.ActualRate
		}
		if in.Quantity.IsNegative() || rate.IsNegative() {
			return Purchase{}, fmt.Errorf("%w: line %d quantity and rate must not be negative", shared.ErrValidation, i+1)
		}
		lines = append(lines, PurchaseLine{
			ID:          uuid.New(),
			PurchaseID:  p.ID,
			LineNo:      i + 1,
			MaterialID:  in.MaterialID,
			Description: in.Description,
			Quantity:    in.Quantity,
			Rate:        rate,
			Amount:      in.Quantity.Mul(rate).Round(2),
		})
	}

	var req MaterialRequest
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		req, err = tx.LockRequest(ctx, input.RequestID)
		if err != nil {
			return err
		}
		if req.Status != RequestPendingPurchase && req.Status != RequestInProgress {
			return fmt.Errorf("%w: request %s is not in a purchasable state (%s)", shared.ErrInvalidState, req.RequestNo, req.Status)
		}
		if err := tx.CreatePurchase(ctx, p, lines); err != nil {
			return err
		}
		if req.Status == RequestPendingPurchase {
			next, err := requestMachine.Next(req.Status, ActionStartPurchase)
			if err != nil {
				return err
			}
			return tx.SetRequestStatus(ctx, req.ID, next)
		}
		return nil
	})
	if err != nil {
		return Purchase{}, err
	}
	s.observeTransition("request", string(req.Status), string(RequestInProgress))
	s.observeTransition("purchase", "", string(p.Status))

	var events shared.Events
	events.NotifyRoles("Invoice Submitted",
		fmt.Sprintf("Runner %s submitted %s for %s", actorName(actor), p.InvoiceType.Label(), req.RequestNo),
		purchaseLink(p.ID), shared.RoleAccountant)
	events.Audit(audit(actor, EntityPurchase, p.ID, "CREATE", nil, map[string]any{
		"material_request_id":    p.RequestID,
		"status":                 p.Status,
		"invoice_type_submitted": p.InvoiceType,
	}))
	s.emit(ctx, events)
	return p, nil
}

// StartReview moves a submitted purchase to UNDER_REVIEW.
func (s *Service) StartReview(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := shared.RequireRole(actor, shared.RoleAccountant); err != nil {
		return err
	}
	var before Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.LockPurchase(ctx, id)
		if err != nil {
			return err
		}
		before = p
		next, err := purchaseMachine.Next(p.Status, ActionReview)
		if err != nil {
			return err
		}
		return tx.SetPurchaseStatus(ctx, id, next)
	})
	if err != nil {
		return err
	}
	s.observeTransition("purchase", string(before.Status), string(PurchaseUnderReview))
	var events shared.Events
	events.Audit(audit(actor, EntityPurchase, id, "REVIEW", before, map[string]any{"status": PurchaseUnderReview}))
	s.emit(ctx, events)
	return nil
}

// Approve marks a purchase approved.
func (s *Service) Approve(ctx context.Context, actor shared.Actor, id uuid.UUID, input ReviewInput) error {
	return s.decide(ctx, actor, id, ActionApprove, input)
}

// Reject marks a purchase rejected. A comment is recommended but optional.
func (s *Service) Reject(ctx context.Context, actor shared.Actor, id uuid.UUID, input ReviewInput) error {
	return s.decide(ctx, actor, id, ActionReject, input)
}

func (s *Service) decide(ctx context.Context, actor shared.Actor, id uuid.UUID, action Action, input ReviewInput) error {
	if err := shared.RequireRole(actor, shared.RoleAccountant); err != nil {
		return err
	}
	var (
		before PurchaseStatus
		p      Purchase
		req    MaterialRequest
		to     PurchaseStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		p, err = tx.LockPurchase(ctx, id)
		if err != nil {
			return err
		}
		before = p.Status
		to, err = s.decisionTarget(p.Status, action)
		if err != nil {
			return err
		}
		if err := tx.SetPurchaseStatus(ctx, id, to); err != nil {
			return err
		}
		if input.Comment != "" {
			if err := tx.SetAccountantComment(ctx, id, input.Comment); err != nil {
				return err
			}
		}
		req, err = tx.LockRequest(ctx, p.RequestID)
		return err
	})
	if err != nil {
		return err
	}
	s.observeTransition("purchase", string(before), string(to))

	var events shared.Events
	link := purchaseLink(id)
	if action == ActionApprove {
		events.NotifyUsers("Purchase Approved", fmt.Sprintf("Your purchase for %s has been approved", req.RequestNo), link, p.RunnerID)
		events.NotifyUsers("Purchase Approved", fmt.Sprintf("Purchase for your request %s approved", req.RequestNo), link, req.RequestedBy)
		events.Audit(audit(actor, EntityPurchase, id, "APPROVE", p, map[string]any{"status": to}))
	} else {
		reason := input.Comment
		if reason == "" {
			reason = "See details"
		}
		events.NotifyUsers("Purchase Rejected", fmt.Sprintf("Your purchase for %s was rejected. Reason: %s", req.RequestNo, reason), link, p.RunnerID)
		events.NotifyUsers("Purchase Rejected", fmt.Sprintf("Purchase for %s was rejected", req.RequestNo), link, req.RequestedBy)
		events.Audit(audit(actor, EntityPurchase, id, "REJECT", p, map[string]any{"status": to, "accountant_comment": input.Comment}))
	}
	s.emit(ctx, events)
	return nil
}

func (s *Service) decisionTarget(from PurchaseStatus, action Action) (PurchaseStatus, error) {
	if s.cfg.Lenient {
		if action == ActionApprove {
			return PurchaseApproved, nil
		}
		return PurchaseRejected, nil
	}
	return purchaseMachine.Next(from, action)
}

// AttachInvoice stores the submitted invoice file path.
func (s *Service) AttachInvoice(ctx context.Context, actor shared.Actor, id uuid.UUID, path string) error {
	if path == "" {
		return fmt.Errorf("%w: no file uploaded", shared.ErrValidation)
	}
	if err := shared.RequireRole(actor, shared.RoleRunnerBoy); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.LockPurchase(ctx, id)
		if err != nil {
			return err
		}
		if actor.Role != shared.RoleAccountant && !actor.Is(p.RunnerID) {
			return fmt.Errorf("%w: only the assigned runner can upload the invoice", shared.ErrForbidden)
		}
		return tx.SetInvoiceFile(ctx, id, path)
	})
}

// UploadTaxInvoice finalises a provisional purchase. Paid or partially paid
// purchases complete; otherwise the status is unchanged.
func (s *Service) UploadTaxInvoice(ctx context.Context, actor shared.Actor, id uuid.UUID, path string) (TaxInvoiceResult, error) {
	if err := shared.RequireRole(actor, shared.RoleRunnerBoy); err != nil {
		return TaxInvoiceResult{}, err
	}
	var (
		before Purchase
		req    MaterialRequest
		next   PurchaseStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.LockPurchase(ctx, id)
		if err != nil {
			return err
		}
		before = p
		if !actor.Is(p.RunnerID) {
			return fmt.Errorf("%w: only the assigned runner can upload the tax invoice", shared.ErrForbidden)
		}
		if p.InvoiceType != InvoiceProvisional {
			return fmt.Errorf("%w: tax invoice upload only applies to provisional invoice purchases", shared.ErrInvalidState)
		}
		if path == "" {
			return fmt.Errorf("%w: no file uploaded", shared.ErrValidation)
		}
		next = p.Status
		if purchaseMachine.Can(p.Status, ActionFinalize) {
			if next, err = purchaseMachine.Next(p.Status, ActionFinalize); err != nil {
				return err
			}
		}
		if err := tx.SetTaxInvoice(ctx, id, path, next); err != nil {
			return err
		}
		req, err = tx.LockRequest(ctx, p.RequestID)
		return err
	})
	if err != nil {
		return TaxInvoiceResult{}, err
	}
	s.observeTransition("purchase", string(before.Status), string(next))

	ref := req.RequestNo
	if ref == "" {
		ref = "purchase"
	}
	var events shared.Events
	events.NotifyRoles("Tax Invoice Uploaded",
		fmt.Sprintf("Runner %s uploaded final Tax Invoice for %s", actorName(actor), ref),
		purchaseLink(id), shared.RoleAccountant)
	events.Audit(audit(actor, EntityPurchase, id, "TAX_INVOICE_UPLOAD", before, map[string]any{"status": next, "tax_invoice_path": path}))
	s.emit(ctx, events)
	return TaxInvoiceResult{FilePath: path, Status: next}, nil
}

// DeletePurchase removes a purchase with its lines, payments and confirmation.
func (s *Service) DeletePurchase(ctx context.Context, actor shared.Actor, id uuid.UUID) error {
	if err := shared.RequireRole(actor, shared.RoleAccountant); err != nil {
		return err
	}
	var before Purchase
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.LockPurchase(ctx, id)
		if err != nil {
			return err
		}
		before = p
		return tx.DeletePurchase(ctx, id)
	})
	if err != nil {
		return err
	}
	var events shared.Events
	events.Audit(audit(actor, EntityPurchase, id, "DELETE", before, nil))
	s.emit(ctx, events)
	return nil
}

// GetPurchase returns the purchase detail view.
func (s *Service) GetPurchase(ctx context.Context, actor shared.Actor, id uuid.UUID) (PurchaseDetail, error) {
	if actor.ID == uuid.Nil {
		return PurchaseDetail{}, shared.ErrUnauthorized
	}
	return s.repo.GetPurchaseDetail(ctx, id)
}

// ListPurchases lists purchases; runners only see their own.
func (s *Service) ListPurchases(ctx context.Context, actor shared.Actor, filter PurchaseFilter) ([]PurchaseSummary, error) {
	if actor.ID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if actor.Role == shared.RoleRunnerBoy {
		filter.RunnerID = &actor.ID
	}
	return s.repo.ListPurchases(ctx, filter)
}
