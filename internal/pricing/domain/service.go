package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// ActivePrice resolves the single price version covering asOf.
	ActivePrice(ctx context.Context, gasID snowflake.ID, asOf time.Time) (*GasPrice, error)
	// Resolve is ActivePrice against an explicit transaction-scoped handle,
	// for callers that pin prices inside their own transaction.
	Resolve(ctx context.Context, tx *gorm.DB, gasID snowflake.ID, asOf time.Time) (*GasPrice, error)
	// CreatePriceVersion closes the covering version exactly at the new
	// version's start and inserts the new one, atomically. A back-dated
	// version is capped at the next version's start so intervals never
	// overlap.
	CreatePriceVersion(ctx context.Context, req CreateRequest) (*GasPrice, error)
	ListPrices(ctx context.Context, gasID snowflake.ID) ([]GasPrice, error)
}

type CreateRequest struct {
	GasID      snowflake.ID `json:"gas_id"`
	PriceCents int64        `json:"price_cents"`
	ActiveFrom time.Time    `json:"active_from"`
	ActiveTo   *time.Time   `json:"active_to,omitempty"`
}

var (
	ErrInvalidGas      = errors.New("invalid_gas")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidInterval = errors.New("invalid_interval")
	ErrPriceNotFound   = errors.New("price_not_found")
	// ErrMultipleActivePrices signals the non-overlap invariant was broken.
	// It is never auto-repaired; operators must intervene.
	ErrMultipleActivePrices = errors.New("multiple_active_prices")
	// ErrPriceConflict is a concurrent price-creation race detected by the
	// unique (gas_id, active_from) constraint. The whole operation is safe
	// to retry.
	ErrPriceConflict = errors.New("price_conflict")
)
