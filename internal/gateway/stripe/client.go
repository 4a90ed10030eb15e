// Package stripe implements the payment gateway against the Stripe
// payment-intents HTTP API.
package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/aulakit/checkout/internal/domain/payment"
)

// DefaultTimeout bounds every gateway call. The upstream has no SLA; a
// confirm must not hang a request slot indefinitely.
const DefaultTimeout = 10 * time.Second

var _ payment.Gateway = (*Client)(nil)

// Config holds connection settings for the gateway client.
type Config struct {
	// BaseURL of the API, e.g. https://api.stripe.com. Tests and local
	// stacks point it at a stub.
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client talks to the payment-intents API. One intent correlates to one
// order; amounts are sent in minor currency units.
type Client struct {
	http      *http.Client
	baseURL   string
	secretKey string
}

// New creates a gateway client with a bounded per-call timeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
	}
}

type intentResponse struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
	Error        *apiError         `json:"error"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// CreateIntent creates a charge intent for the given amount.
func (c *Client) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	if amountMinor <= 0 {
		return nil, errors.Errorf("invalid amount: %d", amountMinor)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", strings.ToLower(currency))
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

// RetrieveIntent fetches the current status of an intent.
func (c *Client) RetrieveIntent(ctx context.Context, id string) (*payment.Intent, error) {
	if id == "" {
		return nil, errors.New("intent id required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payment_intents/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*payment.Intent, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "gateway request")
	}
	defer resp.Body.Close()

	var body intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "decode gateway response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if body.Error != nil {
			return nil, errors.Errorf("gateway %s: %s", resp.Status, body.Error.Message)
		}
		return nil, errors.Errorf("gateway %s", resp.Status)
	}

	return &payment.Intent{
		ID:           body.ID,
		ClientSecret: body.ClientSecret,
		Status:       body.Status,
		Metadata:     body.Metadata,
	}, nil
}
