package models

import "time"

type TransactionKind string

const (
	KindPurchase TransactionKind = "purchase"
	KindDebit    TransactionKind = "debit"
)

// CreditTransaction is one ledger entry. CreditsDelta is positive for a
// purchase and negative for a debit; the signed sum per actor equals the
// account balance.
type CreditTransaction struct {
	ID                string          `json:"id"`
	ActorID           string          `json:"actor_id"`
	Kind              TransactionKind `json:"kind"`
	CreditsDelta      int64           `json:"credits_delta"`
	GatewayPaymentRef *string         `json:"gateway_payment_ref,omitempty"`
	CounterpartyID    *string         `json:"counterparty_id,omitempty"`
	IdempotencyKey    string          `json:"idempotency_key"`
	CreatedAt         time.Time       `json:"created_at"`
}
