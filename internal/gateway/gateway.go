// Package gateway is the boundary to the external card-payment gateway.
// The engine only needs intent creation and confirmation; everything else
// (webhooks, refunds, reconciliation) lives gateway-side.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/helpermatch/credits-backend/internal/models"
)

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type Confirmation struct {
	Status          string `json:"status"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// Client is implemented by the HTTP client below and by test fakes.
type Client interface {
	// CreatePaymentIntent passes the idempotency key through to the
	// gateway's own guard: second line of defense against a duplicate
	// charge if the local ledger were ever bypassed.
	CreatePaymentIntent(ctx context.Context, amountMinorUnits int64, currency string, meta models.PaymentMetadata, idempotencyKey string) (PaymentIntent, error)
	ConfirmPayment(ctx context.Context, clientSecret, paymentMethod string) (Confirmation, error)
}

type HTTPClient struct {
	baseURL string
	secret  string
	http    *http.Client
}

func NewHTTPClient(baseURL, secret string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) CreatePaymentIntent(ctx context.Context, amount int64, currency string, meta models.PaymentMetadata, idempotencyKey string) (PaymentIntent, error) {
	body := map[string]any{
		"amount":   amount,
		"currency": currency,
		"metadata": meta,
	}
	var out PaymentIntent
	if err := c.post(ctx, "/v1/payment_intents", idempotencyKey, body, &out); err != nil {
		return PaymentIntent{}, err
	}
	return out, nil
}

func (c *HTTPClient) ConfirmPayment(ctx context.Context, clientSecret, paymentMethod string) (Confirmation, error) {
	body := map[string]any{
		"client_secret":  clientSecret,
		"payment_method": paymentMethod,
	}
	var out Confirmation
	if err := c.post(ctx, "/v1/payment_intents/confirm", "", body, &out); err != nil {
		return Confirmation{}, err
	}
	return out, nil
}

func (c *HTTPClient) post(ctx context.Context, path, idempotencyKey string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var ge struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&ge)
		if ge.Error == "" {
			ge.Error = resp.Status
		}
		return fmt.Errorf("gateway %s: %s", path, ge.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
