package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tanklab/gasworks/internal/clock"
	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"payment_intent.succeeded","data":{"object":{}}}`)
	timestamp := time.Now().Unix()

	header := buildSignatureHeader(secret, payload, timestamp)
	reqHeader := http.Header{}
	reqHeader.Set("Stripe-Signature", header)

	codec := NewCodec(secret, clock.NewSystemClock())
	if err := codec.Verify(payload, reqHeader); err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}

	reqHeader.Set("Stripe-Signature", buildSignatureHeader("wrong", payload, timestamp))
	if err := codec.Verify(payload, reqHeader); err == nil {
		t.Fatalf("expected invalid signature error")
	}

	reqHeader.Del("Stripe-Signature")
	if err := codec.Verify(payload, reqHeader); err == nil {
		t.Fatalf("expected missing signature error")
	}
}

func TestParseProcessorEvent(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	paymentEventID := node.Generate()
	created := time.Now().UTC().Unix()

	tests := []struct {
		name     string
		evtType  string
		wantType string
		amount   int64
	}{
		{"payment_intent.processing", "payment_intent.processing", paymentdomain.EventTypeProcessing, 2500},
		{"payment_intent.succeeded", "payment_intent.succeeded", paymentdomain.EventTypeSucceeded, 2500},
		{"payment_intent.payment_failed", "payment_intent.payment_failed", paymentdomain.EventTypeFailed, 2500},
		{"payment_intent.canceled", "payment_intent.canceled", paymentdomain.EventTypeCanceled, 2500},
	}

	codec := NewCodec("whsec_test", clock.NewSystemClock())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(map[string]any{
				"id":      "evt_1",
				"type":    tt.evtType,
				"created": created,
				"data": map[string]any{
					"object": map[string]any{
						"id":              "pi_1",
						"amount":          2500,
						"amount_received": 2500,
						"currency":        "eur",
						"created":         created,
						"metadata": map[string]any{
							"payment_event_id": paymentEventID.String(),
						},
					},
				},
			})
			if err != nil {
				t.Fatalf("marshal payload: %v", err)
			}

			event, err := codec.Parse(payload)
			if err != nil {
				t.Fatalf("parse event: %v", err)
			}
			if event.Type != tt.wantType {
				t.Fatalf("expected type %s, got %s", tt.wantType, event.Type)
			}
			if event.PaymentEventID != paymentEventID {
				t.Fatalf("expected payment event id %s, got %s", paymentEventID, event.PaymentEventID)
			}
			if event.IntentID != "pi_1" {
				t.Fatalf("expected intent id pi_1, got %s", event.IntentID)
			}
			if event.AmountCents != tt.amount {
				t.Fatalf("expected amount %d, got %d", tt.amount, event.AmountCents)
			}
		})
	}
}

func TestParseIgnoresUnrelatedEvents(t *testing.T) {
	codec := NewCodec("whsec_test", clock.NewSystemClock())
	payload := []byte(`{"id":"evt_dispute","type":"charge.dispute.created","data":{"object":{"id":"dp_1"}}}`)

	_, err := codec.Parse(payload)
	if err != paymentdomain.ErrEventIgnored {
		t.Fatalf("expected event to be ignored, got %v", err)
	}
}

func TestParseTimestampFallbackUsesInjectedClock(t *testing.T) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := NewCodec("whsec_test", clock.NewFakeClock(frozen))

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_nots","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":100,"metadata":{"payment_event_id":"%s"}}}}`,
		node.Generate().String(),
	))

	event, err := codec.Parse(payload)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if !event.OccurredAt.Equal(frozen) {
		t.Fatalf("expected occurred_at %s, got %s", frozen, event.OccurredAt)
	}
}

func TestParseRejectsMissingMetadata(t *testing.T) {
	codec := NewCodec("whsec_test", clock.NewSystemClock())
	payload := []byte(`{"id":"evt_x","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":100,"metadata":{}}}}`)

	_, err := codec.Parse(payload)
	if err != paymentdomain.ErrInvalidEvent {
		t.Fatalf("expected invalid event, got %v", err)
	}
}

func buildSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, signature)
}
