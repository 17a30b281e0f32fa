package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FillEvent is one record of gas dispensed into a customer's cylinder set.
// Rows are written once inside the billing transaction and never updated;
// only their payment linkage changes afterwards.
type FillEvent struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID          snowflake.ID `json:"user_id" gorm:"not null;index"`
	CylinderSetID   snowflake.ID `json:"cylinder_set_id" gorm:"not null;index"`
	GasMixtureLabel string       `json:"gas_mixture_label" gorm:"type:text;not null"`
	Description     string       `json:"description,omitempty" gorm:"type:text"`
	CreatedAt       time.Time    `json:"created_at" gorm:"not null"`

	// TotalCents is derived from the line items at creation; carried on
	// responses, not persisted.
	TotalCents int64          `json:"total_cents" gorm:"-"`
	LineItems  []FillLineItem `json:"line_items,omitempty" gorm:"-"`
}

func (FillEvent) TableName() string { return "fill_events" }

// FillLineItem is one gas component of a fill event. A NULL storage
// cylinder denotes free compressed air. GasPriceID pins the price version
// in effect at fill time; billing history is never recomputed from current
// prices.
type FillLineItem struct {
	FillEventID       snowflake.ID  `json:"fill_event_id" gorm:"not null;index"`
	StorageCylinderID *snowflake.ID `json:"storage_cylinder_id,omitempty"`
	VolumeLitres      float64       `json:"volume_litres" gorm:"not null"`
	GasPriceID        snowflake.ID  `json:"gas_price_id" gorm:"not null"`
}

func (FillLineItem) TableName() string { return "fill_event_line_items" }
