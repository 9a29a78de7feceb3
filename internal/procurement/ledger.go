package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// postOutflow books amount against the ledger row for date. A missing row is
// opened from the closing balance of the most recent row by ledger date, or
// zero. Later dates are not recomputed for backdated payments.
func postOutflow(ctx context.Context, tx TxRepository, date time.Time, amount decimal.Decimal) (LedgerEntry, error) {
	date = dateOnly(date)
	if err := tx.LockLedger(ctx); err != nil {
		return LedgerEntry{}, err
	}
	if _, ok, err := tx.GetLedgerByDate(ctx, date); err != nil {
		return LedgerEntry{}, err
	} else if ok {
		return tx.AddLedgerOutflow(ctx, date, amount)
	}
	opening := decimal.Zero
	prev, ok, err := tx.LatestLedger(ctx)
	if err != nil {
		return LedgerEntry{}, err
	}
	if ok {
		opening = prev.ClosingBalance
	}
	entry := LedgerEntry{
		ID:             uuid.New(),
		LedgerDate:     date,
		OpeningBalance: opening,
		TotalOutflow:   amount,
		ClosingBalance: opening.Sub(amount),
	}
	if err := tx.InsertLedger(ctx, entry); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
