// Package idemkey derives idempotency keys for money-moving operations.
//
// A key identifies one logical attempt: retries of the same user action
// must land on the same key, distinct actions must not. The context string
// therefore carries an attempt identifier minted once by the client per
// user-initiated action and reused across its retries. Keys deliberately
// contain no time component; mixing a timestamp in would give every retry
// a fresh key and defeat deduplication.
package idemkey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/helpermatch/credits-backend/internal/models"
)

// Derive builds the key for (actor, operation, context). Pure; the same
// inputs always produce the same key, and distinct contexts collide only
// with sha256 probability.
func Derive(actorID string, op models.OperationType, context string) string {
	return fmt.Sprintf("%s-%s-%s", actorID, op, Fingerprint(context))
}

// Fingerprint is the short context hash embedded in derived keys and
// stored alongside contact-fee metadata.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

// ContactContext is the canonical context for a contact fee: the target
// pins the pair, the message hash separates logically distinct messages.
func ContactContext(targetID, message string) string {
	return "contact-" + targetID + "-" + Fingerprint(message)
}
