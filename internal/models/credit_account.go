package models

import "time"

// CreditAccount is the materialized balance for one actor. It is only
// ever mutated inside the same transaction that appends the matching
// CreditTransaction row; the ledger is the source of truth.
type CreditAccount struct {
	ActorID               string     `json:"actor_id"`
	CreditsAvailable      int64      `json:"credits_available"`
	CreditsTotalPurchased int64      `json:"credits_total_purchased"`
	LastPurchaseAt        *time.Time `json:"last_purchase_at,omitempty"`
}
