package domain

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/tanklab/gasworks/internal/invoice/domain"
)

type Service interface {
	// Create aggregates the given unpaid fill events of a user into a new
	// payment event in status CREATED.
	Create(ctx context.Context, userID snowflake.ID, fillEventIDs []snowflake.ID, createdBy snowflake.ID) (*PaymentEvent, error)
	// CreateInvoicePaymentEvents batch-creates one payment event per
	// invoice and bulk-links the fill events.
	CreateInvoicePaymentEvents(ctx context.Context, invoices []invoicedomain.Invoice, createdBy snowflake.ID) ([]snowflake.ID, error)
	// CreateIntent reserves a processor-side payment intent for the event's
	// recomputed total and records it locally, compensating on failure.
	CreateIntent(ctx context.Context, paymentEventID snowflake.ID, userID snowflake.ID) (*IntentResult, error)
	// ApplyProcessorEvent drives the state machine from a verified webhook
	// notification. Replays are idempotent.
	ApplyProcessorEvent(ctx context.Context, evt *ProcessorEvent) error
	Get(ctx context.Context, id snowflake.ID) (*PaymentEvent, error)
}

// WebhookCodec verifies and decodes raw processor webhook deliveries.
type WebhookCodec interface {
	Verify(payload []byte, headers http.Header) error
	Parse(payload []byte) (*ProcessorEvent, error)
}

// IntentClient is the outbound surface toward the payment processor.
type IntentClient interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string, idempotencyKey string) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string, reason string) error
}

// Intent is the processor's view of a created payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// IntentResult is returned to the client so it can complete the payment.
type IntentResult struct {
	PaymentEventID snowflake.ID `json:"payment_event_id"`
	IntentID       string       `json:"intent_id"`
	ClientSecret   string       `json:"client_secret"`
	AmountCents    int64        `json:"amount_cents"`
	Status         string       `json:"status"`
}

// MinimumChargeCents is the processor's floor for a charge.
const MinimumChargeCents = 50

var (
	ErrNotFound             = errors.New("payment_event_not_found")
	ErrNoFillEvents         = errors.New("no_fill_events")
	ErrFillEventNotBillable = errors.New("fill_event_not_billable")
	ErrBelowMinimumCharge   = errors.New("below_minimum_charge")
	ErrInvalidSignature     = errors.New("invalid_signature")
	ErrInvalidPayload       = errors.New("invalid_payload")
	ErrInvalidEvent         = errors.New("invalid_event")
	// ErrEventIgnored marks event types the state machine deliberately
	// does not act on.
	ErrEventIgnored = errors.New("event_ignored")
	// ErrIntentOrphaned is surfaced after a compensating cancellation: the
	// external intent was created but could not be recorded locally.
	ErrIntentOrphaned = errors.New("intent_persistence_failed")
	// ErrProcessorUnavailable wraps transport failures toward the processor.
	ErrProcessorUnavailable = errors.New("processor_unavailable")
)
