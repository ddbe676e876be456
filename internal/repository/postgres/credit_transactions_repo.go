package postgres

import (
	"context"

	"github.com/helpermatch/credits-backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type creditTransactionsRepo struct{ pool *pgxpool.Pool }

func (r *creditTransactionsRepo) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]models.CreditTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, actor_id, kind, credits_delta, gateway_payment_ref, counterparty_id, idempotency_key, created_at
		   FROM credit_transactions
		  WHERE actor_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		actorID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CreditTransaction
	for rows.Next() {
		var t models.CreditTransaction
		if err := rows.Scan(&t.ID, &t.ActorID, &t.Kind, &t.CreditsDelta, &t.GatewayPaymentRef, &t.CounterpartyID, &t.IdempotencyKey, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
