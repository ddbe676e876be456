package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/helpermatch/credits-backend/internal/models"
	repo "github.com/helpermatch/credits-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type idempotencyRepo struct{ pool *pgxpool.Pool }

const recordCols = `key, actor_id, operation_type, amount, currency, metadata,
       status, gateway_payment_ref, gateway_charge_ref, created_at, expires_at`

func scanRecord(row pgx.Row, rec *models.PaymentRecord, extra ...any) error {
	dest := []any{
		&rec.Key, &rec.ActorID, &rec.OperationType, &rec.Amount, &rec.Currency,
		&rec.Metadata, &rec.Status, &rec.GatewayPaymentRef, &rec.GatewayChargeRef,
		&rec.CreatedAt, &rec.ExpiresAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// Ensure is a single check-and-insert. The no-op DO UPDATE makes the
// conflicting row visible to RETURNING, and xmax=0 distinguishes the one
// caller whose insert won from everyone who hit the existing row.
func (r *idempotencyRepo) Ensure(ctx context.Context, key, actorID string, op models.OperationType, amount int64, currency string, meta models.PaymentMetadata, expiresAt time.Time) (models.PaymentRecord, bool, error) {
	const q = `
INSERT INTO payment_idempotency (key, actor_id, operation_type, amount, currency, metadata, status, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,'pending',$7)
ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
RETURNING ` + recordCols + `, (xmax = 0) AS inserted`

	var rec models.PaymentRecord
	var inserted bool
	row := r.pool.QueryRow(ctx, q, key, actorID, op, amount, currency, meta, expiresAt)
	if err := scanRecord(row, &rec, &inserted); err != nil {
		return models.PaymentRecord{}, false, err
	}
	return rec, !inserted, nil
}

// UpdateStatus enforces the transition table in the WHERE clause so a
// concurrent writer can never sneak a terminal record backward. A miss is
// disambiguated afterwards: missing row vs illegal move.
func (r *idempotencyRepo) UpdateStatus(ctx context.Context, key string, status models.PaymentStatus, gatewayPaymentRef, gatewayChargeRef *string) (models.PaymentRecord, error) {
	const q = `
UPDATE payment_idempotency
   SET status = $2,
       gateway_payment_ref = COALESCE($3, gateway_payment_ref),
       gateway_charge_ref  = COALESCE($4, gateway_charge_ref)
 WHERE key = $1
   AND status NOT IN ('succeeded','failed')
   AND NOT (status = 'pending' AND $2 = 'succeeded')
RETURNING ` + recordCols

	var rec models.PaymentRecord
	row := r.pool.QueryRow(ctx, q, key, status, gatewayPaymentRef, gatewayChargeRef)
	err := scanRecord(row, &rec)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.PaymentRecord{}, err
	}
	if _, getErr := r.GetByKey(ctx, key); getErr != nil {
		return models.PaymentRecord{}, getErr
	}
	return models.PaymentRecord{}, repo.ErrIllegalTransition
}

func (r *idempotencyRepo) GetByKey(ctx context.Context, key string) (models.PaymentRecord, error) {
	var rec models.PaymentRecord
	row := r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM payment_idempotency WHERE key=$1`, key)
	if err := scanRecord(row, &rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PaymentRecord{}, repo.ErrNotFound
		}
		return models.PaymentRecord{}, err
	}
	return rec, nil
}

func (r *idempotencyRepo) DeleteExpired(ctx context.Context, now time.Time, processingGrace time.Duration) (int64, error) {
	const q = `
DELETE FROM payment_idempotency
 WHERE expires_at < $1
   AND (status <> 'processing' OR expires_at < $2)`
	ct, err := r.pool.Exec(ctx, q, now, now.Add(-processingGrace))
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
