package models

import "time"

type OperationType string

const (
	OpCreditPurchase OperationType = "credit_purchase"
	OpContactFee     OperationType = "contact_fee"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentSucceeded  PaymentStatus = "succeeded"
	PaymentFailed     PaymentStatus = "failed"
)

// Terminal states are immutable: no transition out of them is ever legal.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSucceeded || s == PaymentFailed
}

// CanTransition reports whether s -> to is a legal move in the
// pending -> processing -> succeeded|failed state machine. Staying on
// processing is allowed so the gateway reference can be recorded.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return to == PaymentProcessing || to == PaymentFailed
	case PaymentProcessing:
		return to == PaymentProcessing || to == PaymentSucceeded || to == PaymentFailed
	}
	return false
}

// PaymentMetadata carries the per-operation payload. Fields are optional
// per operation type: a credit purchase sets CreditsAmount, a contact fee
// sets CreditsAmount, TargetID and MessageHash.
type PaymentMetadata struct {
	CreditsAmount int64  `json:"credits_amount,omitempty"`
	TargetID      string `json:"target_id,omitempty"`
	MessageHash   string `json:"message_hash,omitempty"`
}

// PaymentRecord is one idempotency-guarded money operation. The key is
// globally unique; whoever inserts it first owns the attempt.
type PaymentRecord struct {
	Key               string          `json:"key"`
	ActorID           string          `json:"actor_id"`
	OperationType     OperationType   `json:"operation_type"`
	Amount            int64           `json:"amount"`
	Currency          string          `json:"currency"`
	Metadata          PaymentMetadata `json:"metadata"`
	Status            PaymentStatus   `json:"status"`
	GatewayPaymentRef *string         `json:"gateway_payment_ref,omitempty"`
	GatewayChargeRef  *string         `json:"gateway_charge_ref,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	ExpiresAt         time.Time       `json:"expires_at"`
}
