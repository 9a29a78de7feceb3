package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	internalShared "github.com/textileco/pettycash/internal/shared"
)

func (s *Service) validate(o Order) error {
	if o.BuyerID == uuid.Nil {
		return fmt.Errorf("%w: buyer_id required", internalShared.ErrValidation)
	}
	if o.Status != "" && !validStatus(o.Status) {
		return fmt.Errorf("%w: unknown order status %q", internalShared.ErrValidation, o.Status)
	}
	return validateDates(o.StartDate, o.EndDate)
}

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end_date is before start_date", internalShared.ErrValidation)
	}
	return nil
}

// FormatOrderNo renders "ORD-<year>-<NNN>".
func FormatOrderNo(year, existing int) string {
	return fmt.Sprintf("ORD-%d-%03d", year, existing+1)
}

func validStatus(status string) bool {
	switch status {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
