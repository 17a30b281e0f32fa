package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/tanklab/gasworks/internal/pricing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() pricingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *pricingdomain.GasPrice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO gas_prices (id, gas_id, price_cents, active_from, active_to)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID,
		p.GasID,
		p.PriceCents,
		p.ActiveFrom,
		p.ActiveTo,
	).Error
}

func (r *repo) FindCovering(ctx context.Context, db *gorm.DB, gasID snowflake.ID, at time.Time) ([]pricingdomain.GasPrice, error) {
	var items []pricingdomain.GasPrice
	err := db.WithContext(ctx).
		Where("gas_id = ? AND active_from <= ? AND active_to > ?", gasID, at, at).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindStartingWithin(ctx context.Context, db *gorm.DB, gasID snowflake.ID, after, before time.Time) ([]pricingdomain.GasPrice, error) {
	var items []pricingdomain.GasPrice
	err := db.WithContext(ctx).
		Where("gas_id = ? AND active_from > ? AND active_from < ?", gasID, after, before).
		Order("active_from ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*pricingdomain.GasPrice, error) {
	var p pricingdomain.GasPrice
	err := db.WithContext(ctx).Raw(
		`SELECT id, gas_id, price_cents, active_from, active_to
		 FROM gas_prices WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) CloseVersion(ctx context.Context, db *gorm.DB, id snowflake.ID, closeAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE gas_prices SET active_to = ? WHERE id = ?`,
		closeAt,
		id,
	).Error
}

func (r *repo) ListByGas(ctx context.Context, db *gorm.DB, gasID snowflake.ID) ([]pricingdomain.GasPrice, error) {
	var items []pricingdomain.GasPrice
	err := db.WithContext(ctx).Raw(
		`SELECT id, gas_id, price_cents, active_from, active_to
		 FROM gas_prices WHERE gas_id = ? ORDER BY active_from ASC`,
		gasID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
