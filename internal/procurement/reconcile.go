package procurement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/textileco/pettycash/internal/shared"
)

// settlementAction derives the payment action from the fresh paid total.
// Comparison is exact; overpayment settles like an exact payment.
func settlementAction(p Purchase, totalPaid decimal.Decimal) Action {
	if totalPaid.GreaterThanOrEqual(p.TotalInvoiceAmount) {
		if p.InvoiceType == InvoiceProvisional && p.TaxInvoicePath == "" {
			return ActionSettlePending
		}
		return ActionSettle
	}
	return ActionPartialPayment
}

// derivePaymentStatus returns the status a purchase moves to after a payment.
func derivePaymentStatus(p Purchase, totalPaid decimal.Decimal) (PurchaseStatus, error) {
	return purchaseMachine.Next(p.Status, settlementAction(p, totalPaid))
}

// checkPayable gates payments on the current purchase status.
func checkPayable(p Purchase) error {
	switch p.Status {
	case PurchaseRejected:
		return fmt.Errorf("%w: cannot pay a rejected purchase", shared.ErrInvalidState)
	case PurchaseApproved, PurchasePartiallyPaid:
		return nil
	}
	return fmt.Errorf("%w: purchase must be APPROVED before payment", shared.ErrInvalidState)
}

// validateMoney accepts non-negative amounts with at most two fractional digits.
func validateMoney(field string, amount decimal.Decimal, positive bool) error {
	if positive && !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", shared.ErrValidation, field)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", shared.ErrValidation, field)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: %s allows at most two decimal places", shared.ErrValidation, field)
	}
	return nil
}
