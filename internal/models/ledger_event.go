package models

import "time"

// LedgerEvent is an audit trail entry for payment state changes. Written
// asynchronously; never part of the money-moving transaction itself.
type LedgerEvent struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entity_type"`
	EntityID   *string        `json:"entity_id"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}
