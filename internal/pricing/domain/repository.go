package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, price *GasPrice) error
	// FindCovering returns every version of the gas whose interval contains
	// the instant. Callers needing mutual exclusion pass a transaction
	// handle wrapped with a row lock.
	FindCovering(ctx context.Context, db *gorm.DB, gasID snowflake.ID, at time.Time) ([]GasPrice, error)
	// FindStartingWithin returns the gas's versions whose active_from lies
	// strictly inside (after, before), ordered by active_from ascending.
	FindStartingWithin(ctx context.Context, db *gorm.DB, gasID snowflake.ID, after, before time.Time) ([]GasPrice, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*GasPrice, error)
	CloseVersion(ctx context.Context, db *gorm.DB, id snowflake.ID, closeAt time.Time) error
	ListByGas(ctx context.Context, db *gorm.DB, gasID snowflake.ID) ([]GasPrice, error)
}
