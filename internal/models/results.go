package models

// PurchaseOutcome classifies the result of initiating a credit purchase.
// Business outcomes are values here, not errors.
type PurchaseOutcome string

const (
	// PurchaseStarted: first attempt, gateway intent created, awaiting
	// confirmation and completion.
	PurchaseStarted PurchaseOutcome = "started"
	// PurchaseAlreadyCredited: duplicate of a succeeded attempt.
	PurchaseAlreadyCredited PurchaseOutcome = "already_credited"
	// PurchaseInFlight: duplicate of an attempt still processing.
	PurchaseInFlight PurchaseOutcome = "in_flight"
	// PurchasePreviouslyFailed: duplicate of a failed attempt; the caller
	// must mint a new attempt to retry.
	PurchasePreviouslyFailed PurchaseOutcome = "previously_failed"
	// PurchaseGatewayError: the gateway rejected the intent; the record is
	// now failed.
	PurchaseGatewayError PurchaseOutcome = "gateway_error"
)

type PurchaseStart struct {
	Outcome           PurchaseOutcome `json:"outcome"`
	Key               string          `json:"key"`
	Duplicate         bool            `json:"duplicate"`
	CreditsBalance    int64           `json:"credits_balance,omitempty"`
	GatewayPaymentRef string          `json:"gateway_payment_ref,omitempty"`
	ClientSecret      string          `json:"client_secret,omitempty"`
}

func (p PurchaseStart) Success() bool {
	return p.Outcome == PurchaseStarted || p.Outcome == PurchaseAlreadyCredited
}

// PurchaseCompletion is the result of closing out a confirmed purchase.
// AlreadyCompleted means a previous completion already credited the
// account and this call performed no mutation.
type PurchaseCompletion struct {
	AlreadyCompleted bool   `json:"already_completed"`
	CreditsBalance   int64  `json:"credits_balance"`
	TransactionID    string `json:"transaction_id,omitempty"`
}

// ContactChargeResult reports a contact fee debit. Exactly one of the
// three flags is set; CreditsRemaining is always the current balance.
type ContactChargeResult struct {
	Success             bool  `json:"success"`
	AlreadyContacted    bool  `json:"already_contacted"`
	InsufficientCredits bool  `json:"insufficient_credits"`
	CreditsRemaining    int64 `json:"credits_remaining"`
}
