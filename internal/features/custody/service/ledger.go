package service

import (
	"context"
	"time"

	"crowdfunding-ledger-backend/internal/features/custody/models"
	"crowdfunding-ledger-backend/internal/features/custody/repository"

	"github.com/google/uuid"
)

// LedgerTransferer credits payouts to an internal balance book instead of
// moving funds on chain.
type LedgerTransferer struct {
	repo repository.PayoutRepository
	now  func() time.Time
}

func NewLedgerTransferer(repo repository.PayoutRepository) *LedgerTransferer {
	return &LedgerTransferer{repo: repo, now: time.Now}
}

func (t *LedgerTransferer) Transfer(ctx context.Context, req TransferRequest) (*models.Payout, error) {
	payout := &models.Payout{
		ID:         uuid.New().String(),
		Account:    req.To,
		CampaignID: req.CampaignID,
		Amount:     req.Amount,
		Driver:     models.DriverLedger,
		CreatedAt:  t.now().UTC(),
	}
	if err := t.repo.Record(ctx, payout); err != nil {
		return nil, err
	}
	return payout, nil
}

func (t *LedgerTransferer) Reverse(ctx context.Context, payout *models.Payout) error {
	return t.repo.Remove(ctx, payout)
}
