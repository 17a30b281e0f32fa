package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CylinderSet is the customer-owned set a fill event targets. Lifecycle
// management lives elsewhere; this service only reads.
type CylinderSet struct {
	ID     snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID snowflake.ID `json:"user_id" gorm:"not null;index"`
	Name   string       `json:"name" gorm:"type:text;not null"`
}

func (CylinderSet) TableName() string { return "cylinder_sets" }

// StorageCylinder is a station-side supply cylinder holding one gas.
type StorageCylinder struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	GasID        snowflake.ID `json:"gas_id" gorm:"not null;index"`
	Name         string       `json:"name" gorm:"type:text;not null"`
	VolumeLitres float64      `json:"volume_litres" gorm:"not null"`
}

func (StorageCylinder) TableName() string { return "storage_cylinders" }

// Repository is the read surface the billing core trusts for cylinder data.
type Repository interface {
	SetExists(ctx context.Context, db *gorm.DB, setID, userID snowflake.ID) (bool, error)
	FindStorageCylinder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*StorageCylinder, error)
}

var (
	ErrSetNotFound             = errors.New("cylinder_set_not_found")
	ErrStorageCylinderNotFound = errors.New("storage_cylinder_not_found")
)
