package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/textileco/pettycash/internal/shared"
)

// RequestLineInput describes one requested material.
type RequestLineInput struct {
	MaterialID   *uuid.UUID
	Description  string
	Quantity     decimal.Decimal
	ExpectedRate decimal.Decimal
	Remarks      string
}

// CreateRequestInput describes creation payload.
type CreateRequestInput struct {
	Department           string
	BuyerID              *uuid.UUID
	OrderID              *uuid.UUID
	PreferredVendorID    *uuid.UUID
	RequestedDate        *time.Time
	ExpectedPurchaseDate *time.Time
	Notes                string
	Lines                []RequestLineInput
}

// RequestFields holds header fields of a partial update. Nil means unchanged.
type RequestFields struct {
	Department           *string
	ExpectedPurchaseDate *time.Time
	PreferredVendorID    *uuid.UUID
	Notes                *string
}

func (f RequestFields) empty() bool {
	return f.Department == nil && f.ExpectedPurchaseDate == nil && f.PreferredVendorID == nil && f.Notes == nil
}

// UpdateRequestInput is a partial update. Lines, when non-nil, replace the
// existing lines; Status, when set, requests a lifecycle transition.
type UpdateRequestInput struct {
	Fields RequestFields
	Lines  []RequestLineInput
	Status *RequestStatus
}

// CreatedRequest is returned from CreateRequest.
type CreatedRequest struct {
	ID        uuid.UUID `json:"id"`
	RequestNo string    `json:"request_no"`
}

// CreateRequest persists a DRAFT request with its lines.
func (s *Service) CreateRequest(ctx context.Context, actor shared.Actor, input CreateRequestInput) (CreatedRequest, error) {
	if err := shared.RequireRole(actor, shared.RoleStoreManager); err != nil {
		return CreatedRequest{}, err
	}
	if len(input.Lines) == 0 {
		return CreatedRequest{}, fmt.Errorf("%w: at least one line item required", shared.ErrValidation)
	}
	now := s.now()
	req := MaterialRequest{
		ID:                   uuid.New(),
		RequestedBy:          actor.ID,
		Department:           input.Department,
		BuyerID:              input.BuyerID,
		OrderID:              input.OrderID,
		PreferredVendorID:    input.PreferredVendorID,
		Status:               RequestDraft,
		RequestedDate:        dateOnly(now),
		ExpectedPurchaseDate: input.ExpectedPurchaseDate,
		Notes:                input.Notes,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if input.RequestedDate != nil {
		req.RequestedDate = dateOnly(*input.RequestedDate)
	}
	lines, err := buildRequestLines(req.ID, input.Lines)
	if err != nil {
		return CreatedRequest{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		no, err := tx.NextRequestNo(ctx, now.Year())
		if err != nil {
			return err
		}
		req.RequestNo = no
		return tx.CreateRequest(ctx, req, lines)
	})
	if err != nil {
		return CreatedRequest{}, err
	}
	var events shared.Events
	events.Audit(audit(actor, EntityRequest, req.ID, "CREATE", nil, map[string]any{"request_no": req.RequestNo, "status": req.Status}))
	s.emit(ctx, events)
	return CreatedRequest{ID: req.ID, RequestNo: req.RequestNo}, nil
}

// UpdateRequest applies a partial update, an optional line replacement and an
// optional status transition in one transaction.
func (s *Service) UpdateRequest(ctx context.Context, actor shared.Actor, id uuid.UUID, input UpdateRequestInput) error {
	if actor.ID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	if input.Lines != nil && len(input.Lines) == 0 {
		return fmt.Errorf("%w: at least one line item required", shared.ErrValidation)
	}
	if input.Status != nil && !input.Status.Valid() {
		return fmt.Errorf("%w: unknown request status %q", shared.ErrValidation, *input.Status)
	}
	var (
		before MaterialRequest
		events shared.Events
		to     RequestStatus
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockRequest(ctx, id)
		if err != nil {
			return err
		}
		before = current
		if actor.Role != shared.RoleAccountant && !actor.Is(current.RequestedBy) {
			return fmt.Errorf("%w: only the requester can edit this request", shared.ErrForbidden)
		}
		if input.Lines != nil {
			n, err := tx.CountPurchases(ctx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: cannot edit lines after purchase has been created", shared.ErrConflict)
			}
			lines, err := buildRequestLines(id, input.Lines)
			if err != nil {
				return err
			}
			if err := tx.ReplaceRequestLines(ctx, id, lines); err != nil {
				return err
			}
		}
		if !input.Fields.empty() {
			if err := tx.UpdateRequest(ctx, id, input.Fields); err != nil {
				return err
			}
		}
		to = current.Status
		if input.Status != nil {
			to, err = s.nextRequestStatus(current.Status, *input.Status)
			if err != nil {
				return err
			}
			if to != current.Status {
				if err := tx.SetRequestStatus(ctx, id, to); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	action := "UPDATE"
	if input.Status != nil {
		action = "STATUS_" + string(*input.Status)
		s.observeTransition("request", string(before.Status), string(to))
	}
	if to != before.Status && to == RequestPendingPurchase {
		events.NotifyRoles("New Material Request",
			fmt.Sprintf("Request %s submitted and ready for purchase", before.RequestNo),
			requestLink(id), shared.RoleRunnerBoy, shared.RoleAccountant)
	}
	events.Audit(audit(actor, EntityRequest, id, action, before, input))
	s.emit(ctx, events)
	return nil
}

func (s *Service) nextRequestStatus(from, to RequestStatus) (RequestStatus, error) {
	if from == to || s.cfg.Lenient {
		return to, nil
	}
	action, ok := requestActionFor(to)
	if !ok {
		return from, fmt.Errorf("%w: material request cannot be moved to %s", shared.ErrInvalidState, to)
	}
	return requestMachine.Next(from, action)
}

// GetRequest returns a request with its lines and purchases.
func (s *Service) GetRequest(ctx context.Context, actor shared.Actor, id uuid.UUID) (RequestDetail, error) {
	if actor.ID == uuid.Nil {
		return RequestDetail{}, shared.ErrUnauthorized
	}
	return s.repo.GetRequestDetail(ctx, id)
}

// ListRequests lists requests; store managers only see their own.
func (s *Service) ListRequests(ctx context.Context, actor shared.Actor, filter RequestFilter) ([]RequestSummary, error) {
	if actor.ID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}
	if actor.Role == shared.RoleStoreManager {
		filter.RequestedBy = &actor.ID
	}
	return s.repo.ListRequests(ctx, filter)
}

func buildRequestLines(requestID uuid.UUID, inputs []RequestLineInput) ([]RequestLine, error) {
	lines := make([]RequestLine, 0, len(inputs))
	for i, in := range inputs {
		if in.MaterialID == nil && in.Description == "" {
			return nil, fmt.Errorf("%w: line %d needs a material or description", shared.ErrValidation, i+1)
		}
		if in.Quantity.IsNegative() || in.ExpectedRate.IsNegative() {
			return nil, fmt.Errorf("%w: line %d quantity and rate must not be negative", shared.ErrValidation, i+1)
		}
		lines = append(lines, RequestLine{
			ID:             uuid.New(),
			RequestID:      requestID,
			LineNo:         i + 1,
			MaterialID:     in.MaterialID,
			Description:    in.Description,
			Quantity:       in.Quantity,
			ExpectedRate:   in.ExpectedRate,
			ExpectedAmount: in.Quantity.Mul(in.ExpectedRate).Round(2),
			Remarks:        in.Remarks,
		})
	}
	return lines, nil
}

func formatRequestNo(year, seq int) string {
	return fmt.Sprintf("MR-%d-%04d", year, seq)
}
