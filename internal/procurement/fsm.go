package procurement

import (
	"fmt"

	"github.com/textileco/pettycash/internal/shared"
)

// Action names a lifecycle step.
type Action string

const (
	ActionSubmit        Action = "submit"
	ActionCancel        Action = "cancel"
	ActionStartPurchase Action = "start_purchase"
	ActionComplete      Action = "complete"

	ActionReview         Action = "review"
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionPartialPayment Action = "partial_payment"
	ActionSettle         Action = "settle"
	ActionSettlePending  Action = "settle_pending_tax_invoice"
	ActionFinalize       Action = "finalize_tax_invoice"

	ActionShowToVendor  Action = "show_to_vendor"
	ActionVendorConfirm Action = "vendor_confirm"
)

type transition[S ~string] struct {
	from   S
	action Action
	to     S
}

// machine is a (state, action) -> state table.
type machine[S ~string] struct {
	entity string
	table  map[S]map[Action]S
}

func newMachine[S ~string](entity string, transitions ...transition[S]) machine[S] {
	table := make(map[S]map[Action]S)
	for _, t := range transitions {
		if table[t.from] == nil {
			table[t.from] = make(map[Action]S)
		}
		table[t.from][t.action] = t.to
	}
	return machine[S]{entity: entity, table: table}
}

// Next returns the target state or ErrInvalidState for an undefined pair.
func (m machine[S]) Next(from S, action Action) (S, error) {
	to, ok := m.table[from][action]
	if !ok {
		return from, fmt.Errorf("%w: cannot %s %s in status %s", shared.ErrInvalidState, action, m.entity, from)
	}
	return to, nil
}

// Can reports whether action is defined from state.
func (m machine[S]) Can(from S, action Action) bool {
	_, ok := m.table[from][action]
	return ok
}

var requestMachine = newMachine("material request",
	transition[RequestStatus]{RequestDraft, ActionSubmit, RequestPendingPurchase},
	transition[RequestStatus]{RequestDraft, ActionCancel, RequestCancelled},
	transition[RequestStatus]{RequestPendingPurchase, ActionCancel, RequestCancelled},
	transition[RequestStatus]{RequestPendingPurchase, ActionStartPurchase, RequestInProgress},
	transition[RequestStatus]{RequestInProgress, ActionComplete, RequestCompleted},
)

// requestActionFor maps a caller-requested target status to its action.
// IN_PROGRESS has no caller action: it follows purchase creation.
func requestActionFor(to RequestStatus) (Action, bool) {
	switch to {
	case RequestPendingPurchase:
		return ActionSubmit, true
	case RequestCancelled:
		return ActionCancel, true
	case RequestCompleted:
		return ActionComplete, true
	}
	return "", false
}

var purchaseMachine = newMachine("purchase",
	transition[PurchaseStatus]{PurchaseInvoiceSubmitted, ActionReview, PurchaseUnderReview},
	transition[PurchaseStatus]{PurchaseInvoiceSubmitted, ActionApprove, PurchaseApproved},
	transition[PurchaseStatus]{PurchaseInvoiceSubmitted, ActionReject, PurchaseRejected},
	transition[PurchaseStatus]{PurchaseUnderReview, ActionApprove, PurchaseApproved},
	transition[PurchaseStatus]{PurchaseUnderReview, ActionReject, PurchaseRejected},

	transition[PurchaseStatus]{PurchaseApproved, ActionPartialPayment, PurchasePartiallyPaid},
	transition[PurchaseStatus]{PurchaseApproved, ActionSettle, PurchasePaid},
	transition[PurchaseStatus]{PurchaseApproved, ActionSettlePending, PurchasePaidTaxInvoicePending},
	transition[PurchaseStatus]{PurchasePartiallyPaid, ActionPartialPayment, PurchasePartiallyPaid},
	transition[PurchaseStatus]{PurchasePartiallyPaid, ActionSettle, PurchasePaid},
	transition[PurchaseStatus]{PurchasePartiallyPaid, ActionSettlePending, PurchasePaidTaxInvoicePending},

	transition[PurchaseStatus]{PurchasePartiallyPaid, ActionFinalize, PurchaseCompleted},
	transition[PurchaseStatus]{PurchasePaid, ActionFinalize, PurchaseCompleted},
	transition[PurchaseStatus]{PurchasePaidTaxInvoicePending, ActionFinalize, PurchaseCompleted},
)

var confirmationMachine = newMachine("vendor confirmation",
	transition[AckStatus]{AckNotAcknowledged, ActionShowToVendor, AckShownToVendor},
	transition[AckStatus]{AckNotAcknowledged, ActionVendorConfirm, AckVendorConfirmed},
	transition[AckStatus]{AckShownToVendor, ActionVendorConfirm, AckVendorConfirmed},
)
