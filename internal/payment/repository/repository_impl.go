package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tanklab/gasworks/internal/payment/domain"
	pkgdb "github.com/tanklab/gasworks/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) LockFillEvents(ctx context.Context, db *gorm.DB, fillEventIDs []snowflake.ID) error {
	if len(fillEventIDs) == 0 {
		return nil
	}
	var locked []int64
	return pkgdb.ForUpdate(db.WithContext(ctx)).
		Table("fill_events").
		Where("id IN ?", fillEventIDs).
		Pluck("id", &locked).Error
}

func (r *repo) InsertPaymentEvent(ctx context.Context, db *gorm.DB, event *domain.PaymentEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_events (id, user_id, status, total_amount_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.UserID,
		event.Status,
		event.TotalAmountCents,
		event.CreatedAt,
		event.UpdatedAt,
	).Error
}

func (r *repo) InsertLinks(ctx context.Context, db *gorm.DB, paymentEventID snowflake.ID, fillEventIDs []snowflake.ID) error {
	links := make([]domain.FillEventLink, 0, len(fillEventIDs))
	for _, fillEventID := range fillEventIDs {
		links = append(links, domain.FillEventLink{
			PaymentEventID: paymentEventID,
			FillEventID:    fillEventID,
		})
	}
	return db.WithContext(ctx).Create(&links).Error
}

func (r *repo) FindPaymentEvent(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentEvent, error) {
	var item domain.PaymentEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, status, total_amount_cents, created_at, updated_at
		 FROM payment_events WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) LinkedFillEventIDs(ctx context.Context, db *gorm.DB, paymentEventID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT fill_event_id FROM payment_event_fill_events WHERE payment_event_id = ?`,
		paymentEventID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []domain.Status, to domain.Status, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_events SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN ?`,
		to,
		at,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertIntent(ctx context.Context, db *gorm.DB, intent *domain.ExternalIntent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO external_payment_intents (id, payment_event_id, external_intent_id, amount_cents, status)
		 VALUES (?, ?, ?, ?, ?)`,
		intent.ID,
		intent.PaymentEventID,
		intent.ExternalIntentID,
		intent.AmountCents,
		intent.Status,
	).Error
}

func (r *repo) UpdateIntentStatus(ctx context.Context, db *gorm.DB, externalIntentID string, status string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE external_payment_intents SET status = ? WHERE external_intent_id = ?`,
		status,
		externalIntentID,
	).Error
}

func (r *repo) InsertWebhookEvent(ctx context.Context, db *gorm.DB, event *domain.WebhookEvent) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (id, provider, provider_event_id, event_type, payload, received_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider, provider_event_id) DO NOTHING`,
		event.ID,
		event.Provider,
		event.ProviderEventID,
		event.EventType,
		event.Payload,
		event.ReceivedAt,
		event.ProcessedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindWebhookEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*domain.WebhookEvent, error) {
	var item domain.WebhookEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, provider, provider_event_id, event_type, payload, received_at, processed_at
		 FROM webhook_events
		 WHERE provider = ? AND provider_event_id = ?
		 LIMIT 1`,
		provider,
		providerEventID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) MarkWebhookProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET processed_at = ? WHERE id = ?`,
		processedAt,
		id,
	).Error
}
