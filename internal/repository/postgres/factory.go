package postgres

import (
	repo "github.com/helpermatch/credits-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Idempotency        repo.Idempotency
	CreditAccounts     repo.CreditAccounts
	Payments           repo.Payments
	CreditTransactions repo.CreditTransactions
	LedgerEvents       repo.LedgerEvents
	Users              repo.Users
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Idempotency:        &idempotencyRepo{pool},
		CreditAccounts:     &creditAccountsRepo{pool},
		Payments:           &paymentsRepo{pool},
		CreditTransactions: &creditTransactionsRepo{pool},
		LedgerEvents:       &ledgerEventsRepo{pool},
		Users:              &usersRepo{pool},
	}
}
