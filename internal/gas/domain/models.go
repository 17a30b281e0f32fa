package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Canonical gas names seeded at startup. Compressed air is the only gas
// that is free of charge and exempt from price administration.
const (
	NameAir     = "Air"
	NameOxygen  = "Oxygen"
	NameHelium  = "Helium"
	NameArgon   = "Argon"
	NameDiluent = "Diluent"
)

type Gas struct {
	ID   snowflake.ID `json:"id" gorm:"primaryKey"`
	Name string       `json:"name" gorm:"type:text;not null;uniqueIndex"`
}

func (Gas) TableName() string { return "gases" }

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Gas, error)
	FindByName(ctx context.Context, db *gorm.DB, name string) (*Gas, error)
	List(ctx context.Context, db *gorm.DB) ([]Gas, error)
}

var ErrNotFound = errors.New("gas_not_found")
