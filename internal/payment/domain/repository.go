package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// LockFillEvents takes row locks on the given fill events so
	// concurrent payment creation over the same events serializes.
	LockFillEvents(ctx context.Context, db *gorm.DB, fillEventIDs []snowflake.ID) error
	InsertPaymentEvent(ctx context.Context, db *gorm.DB, event *PaymentEvent) error
	InsertLinks(ctx context.Context, db *gorm.DB, paymentEventID snowflake.ID, fillEventIDs []snowflake.ID) error
	FindPaymentEvent(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentEvent, error)
	LinkedFillEventIDs(ctx context.Context, db *gorm.DB, paymentEventID snowflake.ID) ([]snowflake.ID, error)
	// UpdateStatus performs the guarded single-row transition and reports
	// whether a row changed. A no-op (already in the target state, or the
	// transition is not allowed from the current state) is not an error.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []Status, to Status, at time.Time) (bool, error)
	InsertIntent(ctx context.Context, db *gorm.DB, intent *ExternalIntent) error
	UpdateIntentStatus(ctx context.Context, db *gorm.DB, externalIntentID string, status string) error
	// InsertWebhookEvent dedupes on (provider, provider_event_id) and
	// reports whether the row was newly inserted.
	InsertWebhookEvent(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
	FindWebhookEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*WebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
}
