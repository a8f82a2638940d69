package service

import (
	"context"

	"crowdfunding-ledger-backend/internal/common/address"
	"crowdfunding-ledger-backend/internal/common/amount"
	apperrors "crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/features/custody/models"
	"crowdfunding-ledger-backend/internal/features/custody/repository"

	"github.com/shopspring/decimal"
)

type CustodyService interface {
	GetBalance(ctx context.Context, account string) (*models.BalanceResponse, error)
}

type custodyService struct {
	repo repository.PayoutRepository
}

func NewCustodyService(repo repository.PayoutRepository) CustodyService {
	return &custodyService{repo: repo}
}

func (s *custodyService) GetBalance(ctx context.Context, account string) (*models.BalanceResponse, error) {
	addr, err := address.Normalize(account)
	if err != nil {
		return nil, apperrors.NewValidationError("address", "Invalid address")
	}

	payouts, err := s.repo.ListByAccount(ctx, addr)
	if err != nil {
		return nil, apperrors.NewStorageError("list payouts", err)
	}

	if payouts == nil {
		payouts = []*models.Payout{}
	}
	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.Amount)
	}
	return &models.BalanceResponse{
		Address:    addr,
		Balance:    total.String(),
		BalanceEth: amount.Ether(total),
		Payouts:    payouts,
	}, nil
}
