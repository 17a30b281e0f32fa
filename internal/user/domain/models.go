package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// User is the minimal read model the billing core needs to address an
// invoice. Account lifecycle and roles are owned by the identity service.
type User struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Email       string       `json:"email" gorm:"type:text;not null;uniqueIndex"`
	DisplayName string       `json:"display_name" gorm:"type:text;not null"`
}

func (User) TableName() string { return "users" }

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]User, error)
}

var ErrNotFound = errors.New("user_not_found")
