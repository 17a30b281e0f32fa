package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *FillEvent) error
	InsertLineItem(ctx context.Context, db *gorm.DB, item *FillLineItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*FillEvent, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]FillEvent, error)
	ListLineItems(ctx context.Context, db *gorm.DB, fillEventID snowflake.ID) ([]FillLineItem, error)
}
