package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/helpermatch/credits-backend/internal/gateway"
	"github.com/helpermatch/credits-backend/internal/models"
)

func TestCreatePaymentIntentForwardsIdempotencyKey(t *testing.T) {
	var gotKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Amount != 500 || body.Currency != "USD" {
			t.Errorf("unexpected body: %+v", body)
		}
		_ = json.NewEncoder(w).Encode(gateway.PaymentIntent{ID: "pi_1", ClientSecret: "cs_1"})
	}))
	defer srv.Close()

	c := gateway.NewHTTPClient(srv.URL, "sk_test")
	pi, err := c.CreatePaymentIntent(context.Background(), 500, "USD", models.PaymentMetadata{CreditsAmount: 10}, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pi.ID != "pi_1" || pi.ClientSecret != "cs_1" {
		t.Fatalf("unexpected intent: %+v", pi)
	}
	if gotKey != "key-1" {
		t.Fatalf("idempotency key not forwarded, got %q", gotKey)
	}
	if gotAuth != "Bearer sk_test" {
		t.Fatalf("missing bearer auth, got %q", gotAuth)
	}
}

func TestGatewayErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "card declined"})
	}))
	defer srv.Close()

	c := gateway.NewHTTPClient(srv.URL, "")
	_, err := c.CreatePaymentIntent(context.Background(), 500, "USD", models.PaymentMetadata{}, "key-2")
	if err == nil {
		t.Fatal("expected error from 402 response")
	}
}

func TestConfirmPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents/confirm" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(gateway.Confirmation{Status: "succeeded", PaymentIntentID: "pi_9"})
	}))
	defer srv.Close()

	c := gateway.NewHTTPClient(srv.URL, "")
	conf, err := c.ConfirmPayment(context.Background(), "cs_9", "pm_card")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Status != "succeeded" || conf.PaymentIntentID != "pi_9" {
		t.Fatalf("unexpected confirmation: %+v", conf)
	}
}
