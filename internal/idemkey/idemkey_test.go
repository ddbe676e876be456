package idemkey_test

import (
	"strings"
	"testing"

	"github.com/helpermatch/credits-backend/internal/idemkey"
	"github.com/helpermatch/credits-backend/internal/models"
)

func TestDeriveDeterministic(t *testing.T) {
	a := idemkey.Derive("actor-1", models.OpCreditPurchase, "attempt-42")
	b := idemkey.Derive("actor-1", models.OpCreditPurchase, "attempt-42")
	if a != b {
		t.Fatalf("same inputs produced different keys: %q vs %q", a, b)
	}
}

func TestDeriveDistinguishes(t *testing.T) {
	base := idemkey.Derive("actor-1", models.OpCreditPurchase, "attempt-1")

	cases := map[string]string{
		"different actor":   idemkey.Derive("actor-2", models.OpCreditPurchase, "attempt-1"),
		"different op":      idemkey.Derive("actor-1", models.OpContactFee, "attempt-1"),
		"different context": idemkey.Derive("actor-1", models.OpCreditPurchase, "attempt-2"),
	}
	for name, key := range cases {
		if key == base {
			t.Errorf("%s collided with base key %q", name, base)
		}
	}
}

func TestDeriveHasNoTimeComponent(t *testing.T) {
	// A retry seconds later must reuse the exact key.
	key := idemkey.Derive("actor-1", models.OpContactFee, idemkey.ContactContext("maid-9", "hello"))
	retry := idemkey.Derive("actor-1", models.OpContactFee, idemkey.ContactContext("maid-9", "hello"))
	if key != retry {
		t.Fatal("retry of the same logical action did not reuse the key")
	}
	if !strings.HasPrefix(key, "actor-1-contact_fee-") {
		t.Fatalf("unexpected key shape: %q", key)
	}
}

func TestContactContextSeparatesMessages(t *testing.T) {
	a := idemkey.ContactContext("maid-9", "hello")
	b := idemkey.ContactContext("maid-9", "different message")
	if a == b {
		t.Fatal("distinct messages mapped to the same context")
	}
}
