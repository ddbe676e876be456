package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/helpermatch/credits-backend/internal/models"
	repo "github.com/helpermatch/credits-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type paymentsRepo struct{ pool *pgxpool.Pool }

// sentinel used inside ChargeContactFee to roll the transaction back
// without surfacing an error to the caller
var errInsufficientCredits = errors.New("insufficient credits")

func (r *paymentsRepo) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// CompletePurchase closes out a confirmed purchase. The record row is
// locked first so two racing completions serialize; the loser observes
// succeeded and returns without touching the ledger.
func (r *paymentsRepo) CompletePurchase(ctx context.Context, key, gatewayPaymentRef string) (models.PurchaseCompletion, error) {
	var out models.PurchaseCompletion
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var actorID string
		var status models.PaymentStatus
		var meta models.PaymentMetadata
		err := tx.QueryRow(ctx,
			`SELECT actor_id, status, metadata FROM payment_idempotency WHERE key=$1 FOR UPDATE`,
			key,
		).Scan(&actorID, &status, &meta)
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}

		if status == models.PaymentSucceeded {
			out.AlreadyCompleted = true
			return tx.QueryRow(ctx,
				`SELECT credits_available FROM user_credits WHERE actor_id=$1`, actorID,
			).Scan(&out.CreditsBalance)
		}
		if status == models.PaymentFailed {
			return repo.ErrIllegalTransition
		}

		txID := uuid.NewString()
		if _, err := tx.Exec(ctx,
			`INSERT INTO credit_transactions(id, actor_id, kind, credits_delta, gateway_payment_ref, idempotency_key)
			 VALUES($1,$2,'purchase',$3,$4,$5)`,
			txID, actorID, meta.CreditsAmount, gatewayPaymentRef, key,
		); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx,
			`INSERT INTO user_credits(actor_id, credits_available, credits_total_purchased, last_purchase_at)
			 VALUES($1,$2,$2,now())
			 ON CONFLICT (actor_id) DO UPDATE
			   SET credits_available        = user_credits.credits_available + EXCLUDED.credits_available,
			       credits_total_purchased  = user_credits.credits_total_purchased + EXCLUDED.credits_available,
			       last_purchase_at         = now()
			 RETURNING credits_available`,
			actorID, meta.CreditsAmount,
		).Scan(&out.CreditsBalance); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE payment_idempotency SET status='succeeded', gateway_payment_ref=$2 WHERE key=$1`,
			key, gatewayPaymentRef,
		); err != nil {
			return err
		}
		out.TransactionID = txID
		return nil
	})
	if err != nil {
		return models.PurchaseCompletion{}, err
	}
	return out, nil
}

// ChargeContactFee is the single-pass check-and-act debit. Claiming the
// pair row, checking the balance and debiting happen in one transaction;
// interleaving them as separate round-trips would be the classic TOCTOU
// bug this exists to avoid.
func (r *paymentsRepo) ChargeContactFee(ctx context.Context, sponsorID, targetID string, credits int64, message, key string) (models.ContactChargeResult, error) {
	var out models.ContactChargeResult
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			`INSERT INTO contact_charges(sponsor_id, target_id, credits_charged, message)
			 VALUES($1,$2,$3,$4)
			 ON CONFLICT (sponsor_id, target_id) DO NOTHING`,
			sponsorID, targetID, credits, message,
		)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			out.AlreadyContacted = true
			return r.scanBalance(ctx, tx, sponsorID, &out.CreditsRemaining)
		}

		err = tx.QueryRow(ctx,
			`UPDATE user_credits
			    SET credits_available = credits_available - $2
			  WHERE actor_id = $1 AND credits_available >= $2
			 RETURNING credits_available`,
			sponsorID, credits,
		).Scan(&out.CreditsRemaining)
		if errors.Is(err, pgx.ErrNoRows) {
			// roll back the pair claim too
			return errInsufficientCredits
		}
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO credit_transactions(id, actor_id, kind, credits_delta, counterparty_id, idempotency_key)
			 VALUES($1,$2,'debit',$3,$4,$5)`,
			uuid.NewString(), sponsorID, -credits, targetID, key,
		); err != nil {
			return err
		}
		out.Success = true
		return nil
	})
	if errors.Is(err, errInsufficientCredits) {
		out = models.ContactChargeResult{InsufficientCredits: true}
		balErr := r.pool.QueryRow(ctx,
			`SELECT COALESCE((SELECT credits_available FROM user_credits WHERE actor_id=$1), 0)`,
			sponsorID,
		).Scan(&out.CreditsRemaining)
		return out, balErr
	}
	if err != nil {
		return models.ContactChargeResult{}, err
	}
	return out, nil
}

func (r *paymentsRepo) scanBalance(ctx context.Context, tx pgx.Tx, actorID string, dst *int64) error {
	return tx.QueryRow(ctx,
		`SELECT COALESCE((SELECT credits_available FROM user_credits WHERE actor_id=$1), 0)`,
		actorID,
	).Scan(dst)
}
