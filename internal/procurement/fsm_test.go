package procurement

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/shared"
)

func TestRequestMachine(t *testing.T) {
	cases := []struct {
		from   RequestStatus
		action Action
		to     RequestStatus
		ok     bool
	}{
		{RequestDraft, ActionSubmit, RequestPendingPurchase, true},
		{RequestDraft, ActionCancel, RequestCancelled, true},
		{RequestPendingPurchase, ActionCancel, RequestCancelled, true},
		{RequestPendingPurchase, ActionStartPurchase, RequestInProgress, true},
		{RequestInProgress, ActionComplete, RequestCompleted, true},
		{RequestInProgress, ActionCancel, "", false},
		{RequestDraft, ActionStartPurchase, "", false},
		{RequestCompleted, ActionSubmit, "", false},
		{RequestCancelled, ActionSubmit, "", false},
	}
	for _, tc := range cases {
		got, err := requestMachine.Next(tc.from, tc.action)
		if !tc.ok {
			require.ErrorIs(t, err, shared.ErrInvalidState, "%s/%s", tc.from, tc.action)
			require.Equal(t, tc.from, got)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.to, got)
	}
}

func TestRequestActionForRejectsInProgress(t *testing.T) {
	_, ok := requestActionFor(RequestInProgress)
	require.False(t, ok)
	_, ok = requestActionFor(RequestDraft)
	require.False(t, ok)
}

func TestPurchaseMachineTerminalStates(t *testing.T) {
	actions := []Action{ActionReview, ActionApprove, ActionReject, ActionPartialPayment, ActionSettle, ActionSettlePending, ActionFinalize}
	for _, terminal := range []PurchaseStatus{PurchaseRejected, PurchaseCompleted} {
		for _, a := range actions {
			require.False(t, purchaseMachine.Can(terminal, a), "%s/%s", terminal, a)
		}
	}
}

func TestPurchaseMachineFinalize(t *testing.T) {
	for _, s := range []PurchaseStatus{PurchasePartiallyPaid, PurchasePaid, PurchasePaidTaxInvoicePending} {
		to, err := purchaseMachine.Next(s, ActionFinalize)
		require.NoError(t, err)
		require.Equal(t, PurchaseCompleted, to)
	}
	require.False(t, purchaseMachine.Can(PurchaseApproved, ActionFinalize))
	require.False(t, purchaseMachine.Can(PurchaseInvoiceSubmitted, ActionFinalize))
}

func TestConfirmationMachineIsMonotonic(t *testing.T) {
	require.True(t, confirmationMachine.Can(AckNotAcknowledged, ActionShowToVendor))
	require.True(t, confirmationMachine.Can(AckNotAcknowledged, ActionVendorConfirm))
	require.True(t, confirmationMachine.Can(AckShownToVendor, ActionVendorConfirm))
	require.False(t, confirmationMachine.Can(AckVendorConfirmed, ActionShowToVendor))
}
