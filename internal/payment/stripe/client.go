package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	paymentdomain "github.com/tanklab/gasworks/internal/payment/domain"
)

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the Stripe payment-intents API over form-encoded HTTP.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: "https://api.stripe.com",
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *Client) CreateIntent(
	ctx context.Context,
	amountCents int64,
	currency string,
	metadata map[string]string,
	idempotencyKey string,
) (*paymentdomain.Intent, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(amountCents, 10))
	values.Set("currency", strings.ToLower(currency))
	values.Set("automatic_payment_methods[enabled]", "false")
	values.Set("payment_method_types[]", "card")
	for key, value := range metadata {
		values.Set("metadata["+key+"]", value)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/payment_intents", values, idempotencyKey)
	if err != nil {
		return nil, err
	}
	return &paymentdomain.Intent{
		ID:           resp.ID,
		ClientSecret: resp.ClientSecret,
		Status:       resp.Status,
	}, nil
}

func (c *Client) CancelIntent(ctx context.Context, intentID string, reason string) error {
	values := url.Values{}
	values.Set("cancellation_reason", reason)
	_, err := c.doRequest(ctx, http.MethodPost, "/v1/payment_intents/"+intentID+"/cancel", values, "")
	return err
}

func (c *Client) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
) (intentResponse, error) {
	if c.apiKey == "" {
		return intentResponse{}, paymentdomain.ErrProcessorUnavailable
	}
	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return intentResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return intentResponse{}, paymentdomain.ErrProcessorUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return intentResponse{}, paymentdomain.ErrProcessorUnavailable
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			return intentResponse{}, paymentdomain.ErrProcessorUnavailable
		}
		return intentResponse{}, errors.New(message)
	}

	var intent intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return intentResponse{}, err
	}
	if intent.ID == "" {
		return intentResponse{}, paymentdomain.ErrProcessorUnavailable
	}
	return intent, nil
}
