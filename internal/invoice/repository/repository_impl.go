package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	filleventdomain "github.com/tanklab/gasworks/internal/fillevent/domain"
	invoicedomain "github.com/tanklab/gasworks/internal/invoice/domain"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() invoicedomain.Repository {
	return &repo{}
}

// A fill event is unpaid iff it has a priced line item and no link to a
// payment event that is settled or still in flight. Links to FAILED
// payment events do not count: those fills are billable again.
const unpaidPredicate = `
	EXISTS (
		SELECT 1 FROM fill_event_line_items li
		WHERE li.fill_event_id = fe.id AND li.storage_cylinder_id IS NOT NULL
	)
	AND NOT EXISTS (
		SELECT 1
		FROM payment_event_fill_events pef
		JOIN payment_events pe ON pe.id = pef.payment_event_id
		WHERE pef.fill_event_id = fe.id AND pe.status IN (?, ?, ?)
	)`

func (r *repo) UnpaidFillEvents(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]filleventdomain.FillEvent, error) {
	var items []filleventdomain.FillEvent
	err := db.WithContext(ctx).Raw(
		`SELECT fe.id, fe.user_id, fe.cylinder_set_id, fe.gas_mixture_label, fe.description, fe.created_at
		 FROM fill_events fe
		 WHERE fe.user_id = ? AND `+unpaidPredicate+`
		 ORDER BY fe.created_at ASC`,
		userID,
		paymentdomain.StatusCreated,
		paymentdomain.StatusInProgress,
		paymentdomain.StatusCompleted,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UnpaidUserIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT fe.user_id
		 FROM fill_events fe
		 WHERE `+unpaidPredicate,
		paymentdomain.StatusCreated,
		paymentdomain.StatusInProgress,
		paymentdomain.StatusCompleted,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) PricedRows(ctx context.Context, db *gorm.DB, fillEventIDs []snowflake.ID) ([]invoicedomain.PricedRow, error) {
	if len(fillEventIDs) == 0 {
		return nil, nil
	}
	var rows []invoicedomain.PricedRow
	err := db.WithContext(ctx).Raw(
		`SELECT li.fill_event_id, li.storage_cylinder_id, li.volume_litres, gp.price_cents
		 FROM fill_event_line_items li
		 JOIN gas_prices gp ON gp.id = li.gas_price_id
		 WHERE li.fill_event_id IN ?`,
		fillEventIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
