// Package stripe adapts Stripe webhook deliveries and the payment-intent
// API onto the payment domain interfaces.
package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tanklab/gasworks/internal/clock"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
)

const provider = "stripe"

type Codec struct {
	webhookSecret string
	clock         clock.Clock
}

func NewCodec(webhookSecret string, clk clock.Clock) *Codec {
	return &Codec{
		webhookSecret: strings.TrimSpace(webhookSecret),
		clock:         clk,
	}
}

func (c *Codec) Verify(payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return paymentdomain.ErrInvalidSignature
}

func (c *Codec) Parse(payload []byte) (*paymentdomain.ProcessorEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	var eventType string
	switch strings.TrimSpace(event.Type) {
	case "payment_intent.processing":
		eventType = paymentdomain.EventTypeProcessing
	case "payment_intent.succeeded":
		eventType = paymentdomain.EventTypeSucceeded
	case "payment_intent.payment_failed":
		eventType = paymentdomain.EventTypeFailed
	case "payment_intent.canceled":
		eventType = paymentdomain.EventTypeCanceled
	default:
		return nil, paymentdomain.ErrEventIgnored
	}

	var intent stripeIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(intent.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	paymentEventID, err := parsePaymentEventID(intent.Metadata)
	if err != nil {
		return nil, err
	}

	amount := intent.AmountReceived
	if amount <= 0 {
		amount = intent.Amount
	}

	return &paymentdomain.ProcessorEvent{
		Provider:        provider,
		ProviderEventID: event.ID,
		Type:            eventType,
		PaymentEventID:  paymentEventID,
		IntentID:        intent.ID,
		AmountCents:     amount,
		OccurredAt:      c.occurredAt(intent.Created, event.Created),
		RawPayload:      payload,
	}, nil
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeIntent struct {
	ID             string            `json:"id"`
	Amount         int64             `json:"amount"`
	AmountReceived int64             `json:"amount_received"`
	Currency       string            `json:"currency"`
	Created        int64             `json:"created"`
	Metadata       map[string]string `json:"metadata"`
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func parsePaymentEventID(metadata map[string]string) (snowflake.ID, error) {
	raw := strings.TrimSpace(metadata["payment_event_id"])
	if raw == "" {
		return 0, paymentdomain.ErrInvalidEvent
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, paymentdomain.ErrInvalidEvent
	}
	return id, nil
}

func (c *Codec) occurredAt(primary int64, fallback int64) time.Time {
	value := primary
	if value == 0 {
		value = fallback
	}
	if value == 0 {
		return c.clock.Now()
	}
	return time.Unix(value, 0).UTC()
}
