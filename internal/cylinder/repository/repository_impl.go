package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	cylinderdomain "github.com/tanklab/gasworks/internal/cylinder/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() cylinderdomain.Repository {
	return &repo{}
}

func (r *repo) SetExists(ctx context.Context, db *gorm.DB, setID, userID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM cylinder_sets WHERE id = ? AND user_id = ?`,
		setID,
		userID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) FindStorageCylinder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*cylinderdomain.StorageCylinder, error) {
	var c cylinderdomain.StorageCylinder
	err := db.WithContext(ctx).Raw(
		`SELECT id, gas_id, name, volume_litres FROM storage_cylinders WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}
