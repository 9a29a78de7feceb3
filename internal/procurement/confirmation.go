package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/textileco/pettycash/internal/shared"
)

// AcknowledgeInput is the runner's vendor acknowledgement update. A nil
// Remark keeps the stored remark.
type AcknowledgeInput struct {
	Status AckStatus
	Remark *string
}

func ackAction(status AckStatus) (Action, bool) {
	switch status {
	case AckShownToVendor:
		return ActionShowToVendor, true
	case AckVendorConfirmed:
		return ActionVendorConfirm, true
	}
	return "", false
}

// applyAcknowledgement advances vc to status. Timestamps are set once and
// confirming backfills shown_to_vendor_at. Repeating the current status only
// touches the remark.
func applyAcknowledgement(vc VendorConfirmation, status AckStatus, remark *string, now time.Time) (VendorConfirmation, error) {
	action, ok := ackAction(status)
	if !ok {
		return vc, fmt.Errorf("%w: invalid status, use SHOWN_TO_VENDOR or VENDOR_CONFIRMED", shared.ErrValidation)
	}
	if vc.Status != status {
		next, err := confirmationMachine.Next(vc.Status, action)
		if err != nil {
			return vc, err
		}
		vc.Status = next
	}
	if vc.ShownToVendorAt == nil {
		vc.ShownToVendorAt = &now
	}
	if vc.Status == AckVendorConfirmed && vc.VendorConfirmedAt == nil {
		vc.VendorConfirmedAt = &now
	}
	if remark != nil {
		vc.RunnerRemark = *remark
	}
	vc.UpdatedAt = now
	return vc, nil
}

// Acknowledge records the runner's vendor acknowledgement. Only the assigned
// runner may call it; a missing confirmation is created on the fly.
func (s *Service) Acknowledge(ctx context.Context, actor shared.Actor, purchaseID uuid.UUID, input AcknowledgeInput) (VendorConfirmation, error) {
	if err := shared.RequireRole(actor, shared.RoleRunnerBoy); err != nil {
		return VendorConfirmation{}, err
	}
	var (
		before  *VendorConfirmation
		updated VendorConfirmation
	)
	now := s.now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.LockPurchase(ctx, purchaseID)
		if err != nil {
			return err
		}
		if !actor.Is(p.RunnerID) {
			return fmt.Errorf("%w: only the assigned runner can update confirmation", shared.ErrForbidden)
		}
		current, exists, err := tx.LockConfirmation(ctx, purchaseID)
		if err != nil {
			return err
		}
		if !exists {
			current = VendorConfirmation{
				ID:         uuid.New(),
				PurchaseID: purchaseID,
				RunnerID:   actor.ID,
				Status:     AckNotAcknowledged,
				CreatedAt:  now,
			}
		} else {
			snapshot := current
			before = &snapshot
		}
		updated, err = applyAcknowledgement(current, input.Status, input.Remark, now)
		if err != nil {
			return err
		}
		if exists {
			return tx.UpdateConfirmation(ctx, updated)
		}
		return tx.InsertConfirmation(ctx, updated)
	})
	if err != nil {
		return VendorConfirmation{}, err
	}
	from := AckNotAcknowledged
	action := "CREATE"
	var prev any
	if before != nil {
		from = before.Status
		action = "STATUS_" + string(updated.Status)
		prev = before
	}
	s.observeTransition("vendor_confirmation", string(from), string(updated.Status))

	var events shared.Events
	events.Audit(audit(actor, EntityConfirmation, updated.ID, action, prev, updated))
	s.emit(ctx, events)
	return updated, nil
}

// GetAcknowledgement returns the purchase's confirmation, or nil if none exists.
func (s *Service) GetAcknowledgement(ctx context.Context, actor shared.Actor, purchaseID uuid.UUID) (*VendorConfirmation, error) {
	if actor.ID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	vc, ok, err := s.repo.GetConfirmation(ctx, purchaseID)
	if err != nil || !ok {
		return nil, err
	}
	return &vc, nil
}
