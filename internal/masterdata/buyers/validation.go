package buyers

import (
	"fmt"
	"strings"
	"unicode"

	internalShared "github.com/textileco/pettycash/internal/shared"
)

const fallbackPrefix = "BUY"

func (s *Service) validate(b Buyer) error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: buyer name required", internalShared.ErrValidation)
	}
	return nil
}

// GenerateCode builds "<first three ASCII letters of name><NNN>".
func GenerateCode(name string, existing int) string {
	var prefix []rune
	for _, r := range name {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			prefix = append(prefix, unicode.ToUpper(r))
			if len(prefix) == 3 {
				break
			}
		}
	}
	p := string(prefix)
	if p == "" {
		p = fallbackPrefix
	}
	return fmt.Sprintf("%s%03d", p, existing+1)
}
