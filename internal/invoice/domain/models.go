package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	userdomain "github.com/tanklab/gasworks/internal/user/domain"
	"gorm.io/gorm"
)

// Invoice is a derived, per-user view of currently unpaid fill events.
// Never persisted; recomputed on demand.
type Invoice struct {
	User         userdomain.User             `json:"user"`
	InvoiceTotal int64                       `json:"invoice_total_cents"`
	InvoiceRows  []filleventdomain.FillEvent `json:"invoice_rows"`
}

// PricedRow is a fill line item joined with its pinned price version.
type PricedRow struct {
	FillEventID       snowflake.ID  `json:"fill_event_id"`
	StorageCylinderID *snowflake.ID `json:"storage_cylinder_id"`
	VolumeLitres      float64       `json:"volume_litres"`
	PriceCents        int64         `json:"price_cents"`
}

type Service interface {
	// UnpaidFillEvents lists a user's fill events that have at least one
	// priced line item and are not settled or in flight under another
	// payment event. Events whose only links point at FAILED payment
	// events are billable again.
	UnpaidFillEvents(ctx context.Context, userID snowflake.ID) ([]filleventdomain.FillEvent, error)
	// UnpaidFillEventsIn is UnpaidFillEvents against an explicit
	// transaction handle, so billability checks see the transaction's own
	// uncommitted writes.
	UnpaidFillEventsIn(ctx context.Context, tx *gorm.DB, userID snowflake.ID) ([]filleventdomain.FillEvent, error)
	// TotalCost sums the given fill events through each line item's pinned
	// price version, never the current price.
	TotalCost(ctx context.Context, fillEventIDs []snowflake.ID) (int64, error)
	// TotalCostIn is TotalCost against an explicit transaction handle.
	TotalCostIn(ctx context.Context, tx *gorm.DB, fillEventIDs []snowflake.ID) (int64, error)
	// AllInvoices renders one invoice per user with outstanding fills;
	// users with nothing unpaid are dropped.
	AllInvoices(ctx context.Context) ([]Invoice, error)
}

type Repository interface {
	UnpaidFillEvents(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]filleventdomain.FillEvent, error)
	UnpaidUserIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
	PricedRows(ctx context.Context, db *gorm.DB, fillEventIDs []snowflake.ID) ([]PricedRow, error)
}

var ErrNoFillEvents = errors.New("no_fill_events")
