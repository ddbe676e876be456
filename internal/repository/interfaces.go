package repository

import (
	"context"
	"errors"
	"time"

	"github.com/helpermatch/credits-backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrIllegalTransition: an attempt to move a payment record backward
	// out of a terminal state. Integrity error, never applied silently.
	ErrIllegalTransition = errors.New("illegal payment status transition")
)

// Idempotency is the atomic guard. Ensure is the single ordering
// primitive of the engine: exactly one caller per key ever observes
// duplicate=false.
type Idempotency interface {
	// Ensure inserts a pending record for key, or returns the existing one
	// verbatim with duplicate=true. One atomic datastore operation, never a
	// read-then-insert pair.
	Ensure(ctx context.Context, key, actorID string, op models.OperationType, amount int64, currency string, meta models.PaymentMetadata, expiresAt time.Time) (models.PaymentRecord, bool, error)

	// UpdateStatus applies a legal transition and optionally records the
	// gateway references. Regressions from terminal states return
	// ErrIllegalTransition.
	UpdateStatus(ctx context.Context, key string, status models.PaymentStatus, gatewayPaymentRef, gatewayChargeRef *string) (models.PaymentRecord, error)

	GetByKey(ctx context.Context, key string) (models.PaymentRecord, error)

	// DeleteExpired removes records past expires_at. Processing records get
	// an extra grace period so an in-flight purchase is never reopened.
	DeleteExpired(ctx context.Context, now time.Time, processingGrace time.Duration) (int64, error)
}

type CreditAccounts interface {
	Get(ctx context.Context, actorID string) (models.CreditAccount, error)
	GetOrCreate(ctx context.Context, actorID string) (models.CreditAccount, error)
}

// Payments holds the two money-moving operations. Each runs as one
// serializable transaction: every check and every write commits together
// or not at all.
type Payments interface {
	// CompletePurchase credits the account for a confirmed purchase:
	// ledger entry, balance increment and the succeeded transition in one
	// transaction. Re-entrant: a record already succeeded short-circuits
	// with the committed balance and no mutation.
	CompletePurchase(ctx context.Context, key, gatewayPaymentRef string) (models.PurchaseCompletion, error)

	// ChargeContactFee claims the (sponsor, target) pair, debits the
	// balance if sufficient and appends the debit ledger entry, all in one
	// transaction. No partial effect survives an insufficient balance.
	ChargeContactFee(ctx context.Context, sponsorID, targetID string, credits int64, message, key string) (models.ContactChargeResult, error)
}

type CreditTransactions interface {
	ListByActor(ctx context.Context, actorID string, limit, offset int) ([]models.CreditTransaction, error)
}

type LedgerEvents interface {
	Create(ctx context.Context, e models.LedgerEvent) error
}

type Users interface {
	Create(ctx context.Context, email, passwordHash, role string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
}
