package services

import (
	"context"

	"github.com/helpermatch/credits-backend/internal/models"
	repo "github.com/helpermatch/credits-backend/internal/repository"
)

type BalanceService struct {
	accounts repo.CreditAccounts
	txns     repo.CreditTransactions
}

func NewBalanceService(accounts repo.CreditAccounts, txns repo.CreditTransactions) *BalanceService {
	return &BalanceService{accounts: accounts, txns: txns}
}

func (s *BalanceService) Current(ctx context.Context, actorID string) (models.CreditAccount, error) {
	return s.accounts.GetOrCreate(ctx, actorID)
}

func (s *BalanceService) History(ctx context.Context, actorID string, limit, offset int) ([]models.CreditTransaction, error) {
	return s.txns.ListByActor(ctx, actorID, limit, offset)
}
