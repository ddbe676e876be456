package postgres

import (
	"context"
	"errors"

	"github.com/helpermatch/credits-backend/internal/models"
	repo "github.com/helpermatch/credits-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type creditAccountsRepo struct{ pool *pgxpool.Pool }

func (r *creditAccountsRepo) Get(ctx context.Context, actorID string) (models.CreditAccount, error) {
	var a models.CreditAccount
	err := r.pool.QueryRow(ctx,
		`SELECT actor_id, credits_available, credits_total_purchased, last_purchase_at
		   FROM user_credits
		  WHERE actor_id=$1`,
		actorID,
	).Scan(&a.ActorID, &a.CreditsAvailable, &a.CreditsTotalPurchased, &a.LastPurchaseAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CreditAccount{}, repo.ErrNotFound
	}
	return a, err
}

func (r *creditAccountsRepo) GetOrCreate(ctx context.Context, actorID string) (models.CreditAccount, error) {
	if a, err := r.Get(ctx, actorID); err == nil {
		return a, nil
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_credits(actor_id, credits_available, credits_total_purchased)
		 VALUES($1, 0, 0)
		 ON CONFLICT (actor_id) DO NOTHING`,
		actorID,
	)
	if err != nil {
		return models.CreditAccount{}, err
	}
	return r.Get(ctx, actorID)
}
