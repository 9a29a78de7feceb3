package materials

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	internalShared "github.com/textileco/pettycash/internal/shared"
)

func (s *Service) validate(m Material) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: material name required", internalShared.ErrValidation)
	}
	if m.DefaultRate.Valid {
		return validateRate(m.DefaultRate.Decimal)
	}
	return nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return fmt.Errorf("%w: default_rate must not be negative", internalShared.ErrValidation)
	}
	if !rate.Equal(rate.Round(2)) {
		return fmt.Errorf("%w: default_rate allows at most 2 decimals", internalShared.ErrValidation)
	}
	return nil
}
