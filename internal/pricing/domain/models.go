package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OpenEnd is the active_to sentinel carried by the currently-open price
// version of a gas.
var OpenEnd = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// GasPrice is one time-bounded price version for a gas. Versions of the
// same gas never overlap: for any instant at most one version has the
// instant in [ActiveFrom, ActiveTo). A version is immutable once closed.
type GasPrice struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	GasID      snowflake.ID `json:"gas_id" gorm:"not null;index;uniqueIndex:idx_gas_price_gas_from,priority:1"`
	PriceCents int64        `json:"price_cents" gorm:"not null"`
	ActiveFrom time.Time    `json:"active_from" gorm:"not null;uniqueIndex:idx_gas_price_gas_from,priority:2"`
	ActiveTo   time.Time    `json:"active_to" gorm:"not null"`
}

func (GasPrice) TableName() string { return "gas_prices" }

// Covers reports whether at falls inside [ActiveFrom, ActiveTo).
func (p GasPrice) Covers(at time.Time) bool {
	return !at.Before(p.ActiveFrom) && at.Before(p.ActiveTo)
}
