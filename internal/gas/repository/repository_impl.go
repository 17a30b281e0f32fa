package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	gasdomain "github.com/tanklab/gasworks/internal/gas/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() gasdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*gasdomain.Gas, error) {
	var g gasdomain.Gas
	err := db.WithContext(ctx).Raw(
		`SELECT id, name FROM gases WHERE id = ?`,
		id,
	).Scan(&g).Error
	if err != nil {
		return nil, err
	}
	if g.ID == 0 {
		return nil, nil
	}
	return &g, nil
}

func (r *repo) FindByName(ctx context.Context, db *gorm.DB, name string) (*gasdomain.Gas, error) {
	var g gasdomain.Gas
	err := db.WithContext(ctx).Raw(
		`SELECT id, name FROM gases WHERE name = ?`,
		name,
	).Scan(&g).Error
	if err != nil {
		return nil, err
	}
	if g.ID == 0 {
		return nil, nil
	}
	return &g, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]gasdomain.Gas, error) {
	var items []gasdomain.Gas
	err := db.WithContext(ctx).Raw(
		`SELECT id, name FROM gases ORDER BY name ASC`,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
