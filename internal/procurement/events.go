package procurement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/textileco/pettycash/internal/shared"
)

// Audited entity types.
const (
	EntityRequest      = "MaterialRequest"
	EntityPurchase     = "Purchase"
	EntityPayment      = "Payment"
	EntityConfirmation = "VendorConfirmation"
	EntityLedger       = "PettyCashLedger"
)

var rupeePrinter = message.NewPrinter(language.MustParse("en-IN"))

// rupees renders an amount the way notification messages show it.
func rupees(amount decimal.Decimal) string {
	return "₹" + rupeePrinter.Sprint(number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(2)))
}

func requestLink(id uuid.UUID) string  { return "/requests/" + id.String() }
func purchaseLink(id uuid.UUID) string { return "/purchases/" + id.String() }

func audit(actor shared.Actor, entity string, id uuid.UUID, action string, before, after any) shared.AuditLog {
	return shared.AuditLog{ActorID: actor.ID, Entity: entity, EntityID: id, Action: action, Before: before, After: after}
}

func actorName(actor shared.Actor) string {
	if actor.Name == "" {
		return "Unknown"
	}
	return actor.Name
}
