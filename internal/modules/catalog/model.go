// README: Service catalog entries families book.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"carebook/internal/types"
)

type Type string

const (
	TypeSubscription Type = "SUBSCRIPTION"
	TypeOneTime      Type = "ONETIME"
)

func (t Type) Valid() bool {
	return t == TypeSubscription || t == TypeOneTime
}

// Entry is one bookable service. Entries are immutable once created.
type Entry struct {
	ID          types.ID
	Title       string
	Description string
	Price       decimal.Decimal
	Type        Type
	Features    []string
	CreatedAt   time.Time
}
