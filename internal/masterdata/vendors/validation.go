package vendors

import (
	"fmt"
	"strings"

	internalShared "github.com/textileco/pettycash/internal/shared"
)

func (s *Service) validate(v Vendor) error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: vendor name required", internalShared.ErrValidation)
	}
	return nil
}
