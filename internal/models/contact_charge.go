package models

import "time"

// ContactCharge marks that a sponsor has paid the contact fee for a
// target. One row per (sponsor, target) pair, ever; existence of the row
// is the "already contacted" check, independent of idempotency keys.
type ContactCharge struct {
	SponsorID      string    `json:"sponsor_id"`
	TargetID       string    `json:"target_id"`
	CreditsCharged int64     `json:"credits_charged"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}
