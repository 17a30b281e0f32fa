package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Create validates, prices and records a fill event atomically. The
	// caller's quoted total is checked against the recomputed authoritative
	// total; on disagreement the whole transaction rolls back.
	Create(ctx context.Context, req CreateRequest) (*FillEvent, error)
	Get(ctx context.Context, id snowflake.ID) (*FillEvent, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]FillEvent, error)
}

// StorageCylinderUsage is one storage cylinder drawn down during a fill.
// Pressures are in bar; the dispensed volume is derived from the pressure
// delta and the cylinder's water volume.
type StorageCylinderUsage struct {
	StorageCylinderID snowflake.ID `json:"storage_cylinder_id"`
	StartPressureBar  float64      `json:"start_pressure_bar"`
	EndPressureBar    float64      `json:"end_pressure_bar"`
}

type CreateRequest struct {
	UserID               snowflake.ID           `json:"user_id"`
	CylinderSetID        snowflake.ID           `json:"cylinder_set_id"`
	FilledAir            bool                   `json:"filled_air"`
	StorageCylinderUsage []StorageCylinderUsage `json:"storage_cylinder_usage"`
	GasMixtureLabel      string                 `json:"gas_mixture_label"`
	Description          string                 `json:"description"`
	// QuotedPriceCents is the total the client computed from the prices it
	// was shown. Defends against a price change between quote and submit.
	QuotedPriceCents int64 `json:"quoted_price_cents"`
}

var (
	ErrNoGasesGiven         = errors.New("no_gases_given")
	ErrNegativeFillPressure = errors.New("negative_fill_pressure")
	ErrBlenderRequired      = errors.New("blender_required")
	ErrPriceMismatch        = errors.New("price_mismatch")
	ErrNotFound             = errors.New("fill_event_not_found")
)
