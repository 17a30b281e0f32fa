package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() filleventdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *filleventdomain.FillEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO fill_events (id, user_id, cylinder_set_id, gas_mixture_label, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.UserID,
		e.CylinderSetID,
		e.GasMixtureLabel,
		e.Description,
		e.CreatedAt,
	).Error
}

func (r *repo) InsertLineItem(ctx context.Context, db *gorm.DB, item *filleventdomain.FillLineItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO fill_event_line_items (fill_event_id, storage_cylinder_id, volume_litres, gas_price_id)
		 VALUES (?, ?, ?, ?)`,
		item.FillEventID,
		item.StorageCylinderID,
		item.VolumeLitres,
		item.GasPriceID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*filleventdomain.FillEvent, error) {
	var e filleventdomain.FillEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, cylinder_set_id, gas_mixture_label, description, created_at
		 FROM fill_events WHERE id = ?`,
		id,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]filleventdomain.FillEvent, error) {
	var items []filleventdomain.FillEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, cylinder_set_id, gas_mixture_label, description, created_at
		 FROM fill_events WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListLineItems(ctx context.Context, db *gorm.DB, fillEventID snowflake.ID) ([]filleventdomain.FillLineItem, error) {
	var items []filleventdomain.FillLineItem
	err := db.WithContext(ctx).Raw(
		`SELECT fill_event_id, storage_cylinder_id, volume_litres, gas_price_id
		 FROM fill_event_line_items WHERE fill_event_id = ?`,
		fillEventID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
