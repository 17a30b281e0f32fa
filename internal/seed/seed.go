package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	"gorm.io/gorm"
)

// EnsureGases seeds the canonical gas catalog on startup. Air additionally
// gets a zero-price open version so air line items always pin a price.
func EnsureGases(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	names := []string{
		gasdomain.NameAir,
		gasdomain.NameOxygen,
		gasdomain.NameHelium,
		gasdomain.NameArgon,
		gasdomain.NameDiluent,
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			gas, err := ensureGasTx(ctx, tx, node, name)
			if err != nil {
				return err
			}
			if name == gasdomain.NameAir {
				if err := ensureFreeAirPriceTx(ctx, tx, node, gas.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func ensureGasTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string) (gasdomain.Gas, error) {
	var gas gasdomain.Gas
	err := tx.WithContext(ctx).Where("name = ?", name).First(&gas).Error
	if err == nil {
		return gas, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return gas, err
	}
	gas = gasdomain.Gas{
		ID:   node.Generate(),
		Name: name,
	}
	if err := tx.WithContext(ctx).Create(&gas).Error; err != nil {
		return gas, err
	}
	return gas, nil
}

func ensureFreeAirPriceTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, gasID snowflake.ID) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&pricingdomain.GasPrice{}).
		Where("gas_id = ?", gasID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	price := pricingdomain.GasPrice{
		ID:         node.Generate(),
		GasID:      gasID,
		PriceCents: 0,
		ActiveFrom: time.Unix(0, 0).UTC(),
		ActiveTo:   pricingdomain.OpenEnd,
	}
	return tx.WithContext(ctx).Create(&price).Error
}
