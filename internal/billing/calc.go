// Package billing computes monetary totals for priced fill line items.
// It is a pure function over already-resolved price data: no I/O, no
// database, so it can arbitrate the client/server price comparison and be
// unit-tested in isolation.
package billing

import (
	"math"

	"github.com/bwmarrin/snowflake"
)

// PricedLineItem is one gas component of a fill event joined with its
// pinned price version. Air items carry no storage cylinder and cost
// nothing regardless of the pinned price.
type PricedLineItem struct {
	StorageCylinderID *snowflake.ID
	VolumeLitres      float64
	PriceCents        int64
}

// Cost returns the total cost in cents: the sum of volume x price over
// non-air items. Air-only or empty inputs yield 0.
func Cost(items []PricedLineItem) int64 {
	var total int64
	for _, item := range items {
		if item.StorageCylinderID == nil {
			continue
		}
		total += int64(math.Round(item.VolumeLitres * float64(item.PriceCents)))
	}
	return total
}
