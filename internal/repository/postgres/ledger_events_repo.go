package postgres

import (
	"context"

	"github.com/helpermatch/credits-backend/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ledgerEventsRepo struct{ pool *pgxpool.Pool }

func (r *ledgerEventsRepo) Create(ctx context.Context, e models.LedgerEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ledger_events(entity_type, entity_id, action, details) VALUES($1,$2,$3,$4)`,
		e.EntityType, e.EntityID, e.Action, e.Details,
	)
	return err
}
