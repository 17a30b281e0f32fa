package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

// Lifecycle: CREATED -> IN_PROGRESS -> {COMPLETED | FAILED}. FAILED is not
// terminal: a later payment event may re-bill the same fill events.
// COMPLETED is terminal.
const (
	StatusCreated    Status = "CREATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFailed     Status = "FAILED"
	StatusCompleted  Status = "COMPLETED"
)

// PaymentEvent aggregates unpaid fill events submitted for settlement.
// Status is the only mutable field after creation.
type PaymentEvent struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID           snowflake.ID `json:"user_id" gorm:"not null;index"`
	Status           Status       `json:"status" gorm:"type:text;not null"`
	TotalAmountCents int64        `json:"total_amount_cents" gorm:"not null"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"not null"`
}

func (PaymentEvent) TableName() string { return "payment_events" }

// FillEventLink joins payment events to the fill events they settle.
// Written once at payment-event creation, never mutated.
type FillEventLink struct {
	PaymentEventID snowflake.ID `json:"payment_event_id" gorm:"primaryKey;autoIncrement:false"`
	FillEventID    snowflake.ID `json:"fill_event_id" gorm:"primaryKey;autoIncrement:false"`
}

func (FillEventLink) TableName() string { return "payment_event_fill_events" }

// ExternalIntent is the locally persisted record of a processor-side
// payment intent. Created lazily when the user proceeds to pay.
type ExternalIntent struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	PaymentEventID   snowflake.ID `json:"payment_event_id" gorm:"not null;index"`
	ExternalIntentID string       `json:"external_intent_id" gorm:"type:text;not null"`
	AmountCents      int64        `json:"amount_cents" gorm:"not null"`
	Status           string       `json:"status" gorm:"type:text;not null"`
}

func (ExternalIntent) TableName() string { return "external_payment_intents" }

// WebhookEvent dedupes processor notifications by provider event id so
// replays are observable no-ops.
type WebhookEvent struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null;uniqueIndex:idx_webhook_provider_event,priority:1"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex:idx_webhook_provider_event,priority:2"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }

// Processor event types the state machine understands. Anything else is
// logged and ignored.
const (
	EventTypeProcessing = "processing"
	EventTypeSucceeded  = "succeeded"
	EventTypeFailed     = "payment_failed"
	EventTypeCanceled   = "canceled"
)

// ProcessorEvent is the canonical notification parsed from a verified
// webhook payload.
type ProcessorEvent struct {
	Provider        string
	ProviderEventID string
	Type            string
	PaymentEventID  snowflake.ID
	IntentID        string
	AmountCents     int64
	OccurredAt      time.Time
	RawPayload      []byte
}

// TargetStatus maps a processor event type onto the state machine. The
// second return is false for unrecognized types.
func TargetStatus(eventType string) (Status, bool) {
	switch eventType {
	case EventTypeProcessing:
		return StatusInProgress, true
	case EventTypeSucceeded:
		return StatusCompleted, true
	case EventTypeFailed, EventTypeCanceled:
		return StatusFailed, true
	default:
		return "", false
	}
}
